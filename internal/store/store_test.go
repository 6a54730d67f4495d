package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/decidarch/assistant/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id string, score int, finished time.Time) models.GameRecord {
	return models.GameRecord{
		Deck: models.DemoDeck(),
		History: []models.Turn{
			{Number: 1, Player: models.Player{FirstName: "John", LastName: "Doe"}, ConcernID: 1, Concern: "Security Breach",
				Applied: models.Impact{"Security": -2}, AdvisorError: "timeout"},
		},
		Result: models.Result{
			GameID:     id,
			Outcome:    models.OutcomeExhausted,
			Score:      score,
			Lost:       score < 0,
			QAScores:   models.Impact{"Security": -2, "Cost": 0},
			Turns:      1,
			StartedAt:  finished.Add(-time.Minute),
			FinishedAt: finished,
		},
	}
}

func TestSaveAndListGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveGame(ctx, record("aaaa-1", -1, base)); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.SaveGame(ctx, record("bbbb-2", 4, base.Add(time.Hour))); err != nil {
		t.Fatalf("save second: %v", err)
	}

	games, err := s.ListGames(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != "bbbb-2" {
		t.Fatalf("expected newest first, got %+v", games)
	}
	first := games[1]
	if !first.Lost || first.Score != -1 || first.QAScores["Security"] != -2 {
		t.Errorf("unexpected summary %+v", first)
	}
	if len(first.Players) != 2 || first.Players[1] != "Rick Harrington" {
		t.Errorf("unexpected players %v", first.Players)
	}
	if !first.FinishedAt.Equal(base) {
		t.Errorf("finished_at round trip: got %s", first.FinishedAt)
	}

	limited, err := s.ListGames(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit: %v %v", limited, err)
	}
}

func TestGetGame(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"abc-1", "abd-2"} {
		if err := s.SaveGame(ctx, record(id, 0, now)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	g, err := s.GetGame(ctx, "abc")
	if err != nil || g.ID != "abc-1" {
		t.Fatalf("prefix lookup: %+v %v", g, err)
	}
	if _, err := s.GetGame(ctx, "ab"); err == nil {
		t.Errorf("expected ambiguous prefix error")
	}
	if _, err := s.GetGame(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetGameMatchesPrefixLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a_b-1", "axb-2", "run%3", "abc", "abc-1", "abc-2"} {
		if err := s.SaveGame(ctx, record(id, 0, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	tests := []struct {
		prefix string
		want   string
	}{
		{"a_b", "a_b-1"},
		{"axb", "axb-2"},
		{"run%", "run%3"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		g, err := s.GetGame(ctx, tt.prefix)
		if err != nil || g.ID != tt.want {
			t.Errorf("GetGame(%q) = %q, %v; want %q", tt.prefix, g.ID, err, tt.want)
		}
	}
	if _, err := s.GetGame(ctx, "ru_"); !errors.Is(err, ErrNotFound) {
		t.Errorf("underscore must not act as a wildcard, got %v", err)
	}
	if _, err := s.GetGame(ctx, "abc-"); err == nil {
		t.Errorf("expected ambiguous prefix error")
	}
}

func TestSaveGameDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := record("dup", 1, time.Now())
	if err := s.SaveGame(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveGame(ctx, rec); err == nil {
		t.Fatalf("expected primary key violation")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveGame(context.Background(), record("keep", 1, time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	games, err := s.ListGames(context.Background(), 0)
	if err != nil || len(games) != 1 {
		t.Fatalf("expected saved game after reopen: %v %v", games, err)
	}
}
