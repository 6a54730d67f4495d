package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decidarch/assistant/internal/advisor"
	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/engine"
	"github.com/decidarch/assistant/internal/models"
	"github.com/decidarch/assistant/internal/setup"
	"github.com/decidarch/assistant/internal/store"
	"github.com/decidarch/assistant/internal/tui"
)

type playOptions struct {
	deckPath string
	demo     bool
	noTUI    bool
	noSave   bool
}

func (a *app) playCmd() *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Set up and play a game",
		Long: `Play a game. The deck comes from --deck, --demo, or interactive prompts.
Finished games are saved under .decidarch/saves and recorded in the history database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			logger := a.logger(cfg, cmd.ErrOrStderr())
			defer logger.Sync()
			return play(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVar(&opts.deckPath, "deck", "", "deck YAML file (skips interactive setup)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "play the built-in demo deck")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "play in plain text, one turn after another")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not save the finished game")
	cmd.Flags().String("provider", config.ProviderGemini, "advisor provider (gemini, ollama, static)")
	cmd.Flags().String("model", "", "advisor model (provider default when empty)")
	cmd.Flags().Duration("budget", 30*time.Minute, "session time budget")
	cmd.Flags().Duration("advisor-timeout", 0, "per-call advisor timeout (0 disables)")
	cmd.Flags().Bool("strict", false, "stop the game when the advisor fails")
	_ = a.v.BindPFlag("advisor.provider", cmd.Flags().Lookup("provider"))
	_ = a.v.BindPFlag("advisor.model", cmd.Flags().Lookup("model"))
	_ = a.v.BindPFlag("session_budget", cmd.Flags().Lookup("budget"))
	_ = a.v.BindPFlag("advisor.timeout", cmd.Flags().Lookup("advisor-timeout"))
	_ = a.v.BindPFlag("advisor.strict", cmd.Flags().Lookup("strict"))
	return cmd
}

func play(ctx context.Context, cfg config.Config, opts playOptions, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deck, err := loadDeck(cfg, opts, in, out, logger)
	if err != nil {
		return err
	}

	adv, err := advisor.New(ctx, cfg.Advisor)
	if err != nil {
		return err
	}
	defer adv.Close()

	eng, err := engine.New(cfg, *deck, adv, logger)
	if err != nil {
		return err
	}

	if opts.noTUI {
		if err := runHeadless(ctx, eng, out); err != nil {
			return err
		}
	} else if err := tui.Run(ctx, eng); err != nil {
		return err
	}

	if eng.State() != engine.StateScored {
		fmt.Fprintln(out, "Game abandoned before scoring, nothing saved.")
		return nil
	}
	if opts.noSave {
		return nil
	}
	rec, err := eng.Record()
	if err != nil {
		return err
	}
	if err := saveRecord(ctx, cfg, rec); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved game %s\n", rec.Result.GameID)
	return nil
}

func loadDeck(cfg config.Config, opts playOptions, in io.Reader, out io.Writer, logger *zap.Logger) (*models.Deck, error) {
	var deck *models.Deck
	switch {
	case opts.deckPath != "" && opts.demo:
		return nil, errors.New("--deck and --demo are mutually exclusive")
	case opts.deckPath != "":
		d, err := models.LoadDeck(opts.deckPath)
		if err != nil {
			return nil, fmt.Errorf("load deck: %w", err)
		}
		deck = d
	case opts.demo:
		d := models.DemoDeck()
		deck = &d
	default:
		return setup.NewCollector(cfg.Limits, in, out, logger).Collect()
	}
	if err := setup.Fit(deck, cfg.Limits, out, logger); err != nil {
		return nil, err
	}
	return deck, nil
}

// runHeadless plays every turn without waiting for input and prints the
// result.
func runHeadless(ctx context.Context, eng *engine.Engine, out io.Writer) error {
	if err := eng.Start(); err != nil {
		return err
	}
	deck := eng.Deck()
	fmt.Fprintf(out, "Project: %s\n", deck.Project)
	fmt.Fprintf(out, "Session ends at %s.\n\n", eng.Deadline().Format(time.Kitchen))

	for eng.State() == engine.StateRunning {
		turn, err := eng.Step(ctx)
		if err != nil {
			return err
		}
		if turn == nil {
			fmt.Fprintln(out, "Time is up.")
			break
		}
		printTurn(out, *turn)
	}

	res, err := eng.Score()
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func printTurn(out io.Writer, t models.Turn) {
	fmt.Fprintf(out, "%s's turn:\n", t.Player)
	fmt.Fprintf(out, "Concern: %s\n", t.Concern)
	if t.AdvisorError != "" {
		fmt.Fprintf(out, "Advisor unavailable: %s\n", t.AdvisorError)
	} else {
		fmt.Fprintf(out, "Suggestion: %s\n", t.Suggestion)
	}
	fmt.Fprintf(out, "Applied: %s\n\n", t.Applied)
}

func saveRecord(ctx context.Context, cfg config.Config, rec models.GameRecord) error {
	if err := models.SaveGame(cfg.SavesDir(), rec); err != nil {
		return fmt.Errorf("save game files: %w", err)
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveGame(ctx, rec); err != nil {
		return fmt.Errorf("record game history: %w", err)
	}
	return nil
}
