package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

// app carries the viper instance every subcommand resolves its config from.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "decidarch",
		Short: "DecidArch architecture decision game",
		Long: `DecidArch is a team game about architecture decisions.
- Stakeholders rank the quality attributes they care about.
- Each turn a player draws the next concern and an AI advisor suggests how to decide it.
- Every decision shifts the shared quality attribute scores.
- When the concerns run out or the session clock expires, stakeholder satisfaction decides the score.
- Any quality attribute that ends below zero loses the game, whether or not a stakeholder ranks it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("json", false, "output JSON")
	_ = a.v.BindPFlag("workspace", root.PersistentFlags().Lookup("workspace"))
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("json", root.PersistentFlags().Lookup("json"))

	root.AddCommand(a.playCmd())
	root.AddCommand(a.deckCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(a.showCmd())
	return root
}

func (a *app) config() (config.Config, error) {
	return config.Load(a.v)
}

// logger opens the workspace log file. Failing to log never stops a game.
func (a *app) logger(cfg config.Config, errOut io.Writer) *zap.Logger {
	l, err := logging.New(cfg.LogsDir(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(errOut, "warning: logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return l
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
