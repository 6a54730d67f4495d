package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/decidarch/assistant/internal/models"
	"github.com/decidarch/assistant/internal/store"
)

func newTable(out io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	return tw
}

func printResult(out io.Writer, res models.Result) {
	tw := newTable(out)
	tw.SetTitle("QA scores")
	tw.AppendHeader(table.Row{"Attribute", "Score"})
	for _, attr := range res.QAScores.Keys() {
		tw.AppendRow(table.Row{attr, res.QAScores[attr]})
	}
	tw.Render()

	if len(res.Satisfaction) > 0 {
		tw := newTable(out)
		tw.SetTitle("Satisfaction")
		tw.AppendHeader(table.Row{"Stakeholder", "Score"})
		for _, s := range res.Satisfaction {
			tw.AppendRow(table.Row{s.Role, s.Score})
		}
		tw.Render()
	}

	fmt.Fprintf(out, "Outcome: %s after %d turns\n", res.Outcome, res.Turns)
	if res.Lost {
		fmt.Fprintln(out, "A quality attribute went negative. The game is lost.")
	}
	fmt.Fprintf(out, "Final Score: %d\n", res.Score)
}

func printDeck(out io.Writer, d models.Deck) {
	fmt.Fprintf(out, "Project: %s\n", d.Project)

	tw := newTable(out)
	tw.SetTitle("Players")
	tw.AppendHeader(table.Row{"#", "Name"})
	for i, p := range d.Players {
		tw.AppendRow(table.Row{i + 1, p})
	}
	tw.Render()

	tw = newTable(out)
	tw.SetTitle("Stakeholders")
	tw.AppendHeader(table.Row{"Role", "Goal", "Priorities"})
	for _, s := range d.Stakeholders {
		tw.AppendRow(table.Row{s.Role, s.Goal, s.Priorities})
	}
	tw.Render()

	tw = newTable(out)
	tw.SetTitle("Concerns")
	tw.AppendHeader(table.Row{"ID", "Concern", "Impact"})
	for _, c := range d.Concerns {
		tw.AppendRow(table.Row{c.ID, c.Description, c.Impact})
	}
	tw.Render()

	if len(d.Events) > 0 {
		tw = newTable(out)
		tw.SetTitle("Events")
		tw.AppendHeader(table.Row{"Title", "Description", "Consequence"})
		for _, e := range d.Events {
			tw.AppendRow(table.Row{e.Title, e.Description, e.Consequence})
		}
		tw.Render()
	}
}

func (a *app) deckCmd() *cobra.Command {
	deck := &cobra.Command{Use: "deck", Short: "Manage deck files"}
	deck.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the demo deck as a starting point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			if err := models.DemoDeck().WriteFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		},
	})
	deck.AddCommand(&cobra.Command{
		Use:   "show <path>",
		Short: "Validate and print a deck file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := models.LoadDeck(args[0])
			if err != nil {
				return err
			}
			if a.v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), d)
			}
			printDeck(cmd.OutOrStdout(), *d)
			return nil
		},
	})
	return deck
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished games, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()
			games, err := st.ListGames(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.v.GetBool("json") {
				if games == nil {
					games = []store.GameSummary{}
				}
				return printJSON(out, games)
			}
			tw := newTable(out)
			tw.AppendHeader(table.Row{"ID", "Project", "Players", "Outcome", "Score", "Turns", "Finished"})
			for _, g := range games {
				tw.AppendRow(table.Row{shortID(g.ID), g.Project, strings.Join(g.Players, ", "), g.Outcome, g.Score, g.Turns, g.FinishedAt.Local().Format(time.DateTime)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum games to list (0 for all)")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show the turns and result of a finished game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()
			id, err := resolveGameID(cmd, st, cfg.SavesDir(), args[0])
			if err != nil {
				return err
			}
			rec, err := models.LoadGame(cfg.SavesDir(), id)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("game %s is in the history but its save files are missing", id)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if a.v.GetBool("json") {
				return printJSON(out, rec)
			}
			fmt.Fprintf(out, "Game %s\n", id)
			tw := newTable(out)
			tw.SetTitle("Turns")
			tw.AppendHeader(table.Row{"#", "Player", "Concern", "Applied", "Advisor"})
			for _, t := range rec.History {
				advice := t.Suggestion
				if t.AdvisorError != "" {
					advice = "unavailable: " + t.AdvisorError
				}
				tw.AppendRow(table.Row{t.Number, t.Player, t.Concern, t.Applied, advice})
			}
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 60}})
			tw.Render()
			printResult(out, rec.Result)
			return nil
		},
	}
}

// resolveGameID finds a game by id or prefix in the history database, then
// among save directories the database does not know about.
func resolveGameID(cmd *cobra.Command, st *store.Store, savesDir, prefix string) (string, error) {
	g, err := st.GetGame(cmd.Context(), prefix)
	if err == nil {
		return g.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	saved, err := models.ListGames(savesDir)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range saved {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no game matches %q", prefix)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("game id prefix %q is ambiguous", prefix)
}
