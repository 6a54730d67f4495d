package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decidarch/assistant/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	err := root.Execute()
	return out.String(), err
}

func TestPlayDeckFileHeadless(t *testing.T) {
	ws := t.TempDir()
	deckPath := filepath.Join(ws, "deck.yaml")

	if _, err := execute(t, "-w", ws, "deck", "init", deckPath); err != nil {
		t.Fatalf("deck init: %v", err)
	}
	if _, err := execute(t, "-w", ws, "deck", "init", deckPath); err == nil {
		t.Fatalf("deck init should refuse to overwrite")
	}

	shown, err := execute(t, "-w", ws, "deck", "show", deckPath)
	if err != nil {
		t.Fatalf("deck show: %v", err)
	}
	if !strings.Contains(shown, "Rick Harrington") || !strings.Contains(shown, "Security Breach") {
		t.Errorf("deck show missing content:\n%s", shown)
	}

	played, err := execute(t, "-w", ws, "play", "--deck", deckPath, "--no-tui", "--provider", "static")
	if err != nil {
		t.Fatalf("play: %v\n%s", err, played)
	}
	for _, want := range []string{"John Doe's turn:", "Concern: Security Breach", "Suggestion:", "Final Score: -1", "A quality attribute went negative", "Saved game"} {
		if !strings.Contains(played, want) {
			t.Errorf("play output missing %q:\n%s", want, played)
		}
	}

	hist, err := execute(t, "-w", ws, "--json", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var games []store.GameSummary
	if err := json.Unmarshal([]byte(hist), &games); err != nil {
		t.Fatalf("decode history: %v\n%s", err, hist)
	}
	if len(games) != 1 || games[0].Score != -1 || games[0].Turns != 3 {
		t.Fatalf("unexpected history %+v", games)
	}

	report, err := execute(t, "-w", ws, "show", shortID(games[0].ID))
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(report, games[0].ID) || !strings.Contains(report, "Final Score: -1") {
		t.Errorf("unexpected report:\n%s", report)
	}
}

func TestPlayNoSave(t *testing.T) {
	ws := t.TempDir()
	out, err := execute(t, "-w", ws, "play", "--demo", "--no-tui", "--no-save", "--provider", "static")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if strings.Contains(out, "Saved game") {
		t.Errorf("game should not be saved:\n%s", out)
	}
	hist, err := execute(t, "-w", ws, "--json", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.TrimSpace(hist) != "[]" {
		t.Errorf("expected empty history, got %s", hist)
	}
}

func TestPlayRejectsDeckAndDemo(t *testing.T) {
	ws := t.TempDir()
	_, err := execute(t, "-w", ws, "play", "--demo", "--deck", "x.yaml", "--no-tui", "--provider", "static")
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected mutually exclusive error, got %v", err)
	}
}

func TestPlayInteractiveEndsEarly(t *testing.T) {
	ws := t.TempDir()
	_, err := execute(t, "-w", ws, "play", "--no-tui", "--provider", "static")
	if err == nil {
		t.Fatalf("expected setup to fail on empty input")
	}
}
