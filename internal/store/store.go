// Package store keeps a SQLite history of finished games.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/decidarch/assistant/internal/models"
)

var ErrNotFound = errors.New("store: game not found")

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// GameSummary is one row of the history.
type GameSummary struct {
	ID         string         `json:"id"`
	Project    string         `json:"project"`
	Players    []string       `json:"players"`
	Outcome    models.Outcome `json:"outcome"`
	Score      int            `json:"score"`
	Lost       bool           `json:"lost"`
	Turns      int            `json:"turns"`
	QAScores   models.Impact  `json:"qa_scores"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGame records a scored game and its turns.
func (s *Store) SaveGame(ctx context.Context, rec models.GameRecord) error {
	res := rec.Result
	if res.GameID == "" {
		return errors.New("store: missing game id")
	}
	players := make([]string, 0, len(rec.Deck.Players))
	for _, p := range rec.Deck.Players {
		players = append(players, p.String())
	}
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(res.QAScores)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO games(id, project, players, outcome, score, lost, turns, qa_scores, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.GameID, rec.Deck.Project.Name, string(playersJSON), string(res.Outcome), res.Score, boolToInt(res.Lost),
		res.Turns, string(scoresJSON), formatTime(res.StartedAt), formatTime(res.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for _, t := range rec.History {
		applied, err := json.Marshal(t.Applied)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO turns(game_id, number, player, concern_id, concern, applied, suggestion, advisor_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.GameID, t.Number, t.Player.String(), t.ConcernID, t.Concern, string(applied), t.Suggestion, t.AdvisorError)
		if err != nil {
			return fmt.Errorf("insert turn %d: %w", t.Number, err)
		}
	}
	return tx.Commit()
}

// ListGames returns the most recent games first. limit <= 0 returns all.
func (s *Store) ListGames(ctx context.Context, limit int) ([]GameSummary, error) {
	q := `SELECT id, project, players, outcome, score, lost, turns, qa_scores, started_at, finished_at
		FROM games ORDER BY finished_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGame looks a game up by id or unique id prefix.
func (s *Store) GetGame(ctx context.Context, id string) (GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project, players, outcome, score, lost, turns, qa_scores, started_at, finished_at
		FROM games WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, id LIMIT 2`, id, escapeLike(id)+"%", id)
	if err != nil {
		return GameSummary{}, err
	}
	defer rows.Close()

	var found []GameSummary
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return GameSummary{}, err
		}
		if g.ID == id {
			return g, nil
		}
		found = append(found, g)
	}
	if err := rows.Err(); err != nil {
		return GameSummary{}, err
	}
	switch len(found) {
	case 0:
		return GameSummary{}, ErrNotFound
	case 1:
		return found[0], nil
	}
	return GameSummary{}, fmt.Errorf("store: game id prefix %q is ambiguous", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (GameSummary, error) {
	var (
		g                   GameSummary
		players, scores     string
		outcome             string
		lost                int
		started, finishedAt string
	)
	if err := row.Scan(&g.ID, &g.Project, &players, &outcome, &g.Score, &lost, &g.Turns, &scores, &started, &finishedAt); err != nil {
		return GameSummary{}, err
	}
	g.Outcome = models.Outcome(outcome)
	g.Lost = lost != 0
	if err := json.Unmarshal([]byte(players), &g.Players); err != nil {
		return GameSummary{}, fmt.Errorf("decode players: %w", err)
	}
	if err := json.Unmarshal([]byte(scores), &g.QAScores); err != nil {
		return GameSummary{}, fmt.Errorf("decode qa scores: %w", err)
	}
	g.StartedAt, _ = time.Parse(timeLayout, started)
	g.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
	return g, nil
}

// timeLayout is fixed width so finished_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike makes s match itself literally in a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
