package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestBoundClamp(t *testing.T) {
	b := Bound{Min: 2, Max: 4}
	tests := []struct {
		in      int
		want    int
		clamped bool
	}{
		{in: 10, want: 4, clamped: true},
		{in: 0, want: 2, clamped: true},
		{in: -3, want: 2, clamped: true},
		{in: 3, want: 3},
		{in: 2, want: 2},
		{in: 4, want: 4},
	}
	for _, tt := range tests {
		got, clamped := b.Clamp(tt.in)
		if got != tt.want || clamped != tt.clamped {
			t.Errorf("Clamp(%d) = %d, %v; want %d, %v", tt.in, got, clamped, tt.want, tt.clamped)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("workspace", t.TempDir())
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.Players != (Bound{Min: 2, Max: 4}) {
		t.Errorf("unexpected player limits %+v", cfg.Limits.Players)
	}
	if cfg.Limits.Concerns.Max != 9 || cfg.Limits.Events.Max != 5 || cfg.Limits.Stakeholders.Max != 2 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.SessionBudget != 30*time.Minute {
		t.Errorf("expected 30m budget, got %s", cfg.SessionBudget)
	}
	if cfg.Advisor.ModelName() != "gemini-2.5-flash" {
		t.Errorf("unexpected default model %q", cfg.Advisor.ModelName())
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	ws := t.TempDir()
	file := `
session_budget: 5m
limits:
  players:
    max: 6
advisor:
  provider: ollama
`
	if err := os.WriteFile(filepath.Join(ws, "decidarch.yaml"), []byte(file), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DECIDARCH_LIMITS_EVENTS_MAX", "1")
	t.Setenv("GEMINI_API_KEY", "secret")

	v := viper.New()
	v.Set("workspace", ws)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionBudget != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.SessionBudget)
	}
	if cfg.Limits.Players.Max != 6 || cfg.Limits.Players.Min != 2 {
		t.Errorf("unexpected players %+v", cfg.Limits.Players)
	}
	if cfg.Limits.Events.Max != 1 {
		t.Errorf("env override ignored: %+v", cfg.Limits.Events)
	}
	if cfg.Advisor.ModelName() != "llama2" {
		t.Errorf("expected ollama default model, got %q", cfg.Advisor.ModelName())
	}
	if cfg.Advisor.GeminiAPIKey != "secret" {
		t.Errorf("GEMINI_API_KEY not picked up")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Limits.Concerns = Bound{Min: 5, Max: 1}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected inverted bound to fail")
	}

	cfg = Default()
	cfg.Advisor.Provider = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected unknown provider to fail")
	}

	cfg = Default()
	cfg.SessionBudget = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected zero budget to fail")
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDirs(t *testing.T) {
	cfg := Default()
	cfg.Workspace = "/tmp/ws"
	if got := cfg.DBPath(); got != filepath.Join("/tmp/ws", DirName, "history.db") {
		t.Errorf("unexpected db path %s", got)
	}
	if got := cfg.SavesDir(); got != filepath.Join("/tmp/ws", DirName, "saves") {
		t.Errorf("unexpected saves dir %s", got)
	}
}
