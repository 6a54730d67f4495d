// Command simulate_game plays a whole game against the configured advisor
// with no human at the table, which is handy for checking prompts against a
// live model. Pass a deck file as the only argument, or nothing for the demo
// deck.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/decidarch/assistant/internal/advisor"
	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/engine"
	"github.com/decidarch/assistant/internal/models"
)

func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	// a simulation should surface advisor failures, not paper over them
	cfg.Advisor.Strict = true

	deck := models.DemoDeck()
	if len(os.Args) > 1 {
		d, err := models.LoadDeck(os.Args[1])
		if err != nil {
			logger.Fatal("failed to load deck", zap.String("path", os.Args[1]), zap.Error(err))
		}
		deck = *d
	}

	adv, err := advisor.New(ctx, cfg.Advisor)
	if err != nil {
		logger.Fatal("failed to create advisor", zap.Error(err))
	}
	defer adv.Close()

	eng, err := engine.New(cfg, deck, adv, logger)
	if err != nil {
		logger.Fatal("failed to create engine", zap.Error(err))
	}
	if err := eng.Start(); err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}

	fmt.Printf("--- %s ---\n", deck.Project)
	for eng.State() == engine.StateRunning {
		turn, err := eng.Step(ctx)
		if err != nil {
			fmt.Printf("Error playing turn: %v\n", err)
			break
		}
		if turn == nil {
			fmt.Println("Session budget used up.")
			break
		}
		fmt.Printf("--- Turn %d: %s ---\n", turn.Number, turn.Player)
		fmt.Printf("Concern: %s (%s)\n", turn.Concern, turn.Applied)
		fmt.Printf("Advisor: %s\n", turn.Suggestion)
		fmt.Printf("Scores: %s\n\n", turn.Scores)
	}

	res, err := eng.Score()
	if err != nil {
		// strict mode leaves the game RUNNING after an advisor failure
		logger.Fatal("game did not finish", zap.Error(err))
	}
	for _, s := range res.Satisfaction {
		fmt.Printf("%s satisfaction: %d\n", s.Role, s.Score)
	}
	fmt.Printf("Outcome: %s, Final Score: %d\n", res.Outcome, res.Score)
}
