package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadDeck reads and normalizes a YAML deck file.
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDeck(data)
}

// ParseDeck decodes and normalizes a YAML deck.
func ParseDeck(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid deck yaml: %w", err)
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteFile stores the deck as YAML, creating parent directories.
func (d Deck) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveGame writes deck.yaml, history.yaml and result.yaml under dir/<game id>.
func SaveGame(dir string, rec GameRecord) error {
	if rec.Result.GameID == "" {
		return fmt.Errorf("save game: missing game id")
	}
	gameDir := filepath.Join(dir, rec.Result.GameID)
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		return err
	}

	files := []struct {
		name string
		v    any
	}{
		{"deck.yaml", rec.Deck},
		{"history.yaml", rec.History},
		{"result.yaml", rec.Result},
	}
	for _, f := range files {
		data, err := yaml.Marshal(f.v)
		if err != nil {
			return fmt.Errorf("save game: marshal %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(gameDir, f.name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// LoadGame reads a game saved by SaveGame.
func LoadGame(dir, id string) (*GameRecord, error) {
	gameDir := filepath.Join(dir, id)

	deck, err := LoadDeck(filepath.Join(gameDir, "deck.yaml"))
	if err != nil {
		return nil, err
	}

	historyData, err := os.ReadFile(filepath.Join(gameDir, "history.yaml"))
	if err != nil {
		return nil, err
	}
	var history []Turn
	if err := yaml.Unmarshal(historyData, &history); err != nil {
		return nil, err
	}

	resultData, err := os.ReadFile(filepath.Join(gameDir, "result.yaml"))
	if err != nil {
		return nil, err
	}
	var result Result
	if err := yaml.Unmarshal(resultData, &result); err != nil {
		return nil, err
	}

	return &GameRecord{
		Deck:    *deck,
		History: history,
		Result:  result,
	}, nil
}

// ListGames returns the ids of saved games found under dir.
func ListGames(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var games []string
	for _, entry := range entries {
		if entry.IsDir() {
			// result.yaml is written last and marks a complete save
			resultPath := filepath.Join(dir, entry.Name(), "result.yaml")
			if _, err := os.Stat(resultPath); err == nil {
				games = append(games, entry.Name())
			}
		}
	}
	return games, nil
}
