package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DirName is the per-workspace directory holding saves, logs and the history database.
const DirName = ".decidarch"

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderStatic = "static"
)

// Bound is an inclusive [Min, Max] range for a setup count.
type Bound struct {
	Min int
	Max int
}

// Clamp pulls n into the bound and reports whether it had to.
func (b Bound) Clamp(n int) (int, bool) {
	switch {
	case n > b.Max:
		return b.Max, true
	case n < b.Min:
		return b.Min, true
	}
	return n, false
}

// Limits bounds every count collected during setup.
type Limits struct {
	Players      Bound
	Stakeholders Bound
	Concerns     Bound
	Events       Bound
	Attributes   Bound // per stakeholder and per concern
}

// Advisor configures the suggestion service.
type Advisor struct {
	Provider      string
	Model         string
	AssistantName string
	GeminiAPIKey  string
	OllamaURL     string
	// Timeout bounds a single advisor call; zero leaves it to the session.
	Timeout time.Duration
	// Strict aborts the game on advisor failure instead of playing the turn
	// without a suggestion.
	Strict bool
}

// Config holds the application configuration. It is built once and passed by value.
type Config struct {
	Workspace     string
	LogLevel      string
	SessionBudget time.Duration
	Limits        Limits
	Advisor       Advisor
}

// Default returns the stock table limits and a thirty minute session.
func Default() Config {
	return Config{
		Workspace:     ".",
		LogLevel:      "info",
		SessionBudget: 30 * time.Minute,
		Limits: Limits{
			Players:      Bound{Min: 2, Max: 4},
			Stakeholders: Bound{Min: 1, Max: 2},
			Concerns:     Bound{Min: 1, Max: 9},
			Events:       Bound{Min: 0, Max: 5},
			Attributes:   Bound{Min: 1, Max: 8},
		},
		Advisor: Advisor{
			Provider:      ProviderGemini,
			AssistantName: "DecidArchV2Assistant",
			OllamaURL:     "http://localhost:11434",
		},
	}
}

// Dir returns <workspace>/.decidarch.
func (c Config) Dir() string {
	ws := c.Workspace
	if ws == "" {
		ws = "."
	}
	return filepath.Join(ws, DirName)
}

// SavesDir holds one directory per finished game.
func (c Config) SavesDir() string { return filepath.Join(c.Dir(), "saves") }

// LogsDir holds decidarch.log.
func (c Config) LogsDir() string { return filepath.Join(c.Dir(), "logs") }

// DBPath is the SQLite history database.
func (c Config) DBPath() string { return filepath.Join(c.Dir(), "history.db") }

// ModelName returns the configured model, falling back to the provider default.
func (a Advisor) ModelName() string {
	if a.Model != "" {
		return a.Model
	}
	switch a.Provider {
	case ProviderOllama:
		return "llama2"
	case ProviderGemini:
		return "gemini-2.5-flash"
	}
	return ""
}

// Validate rejects inverted bounds, negative durations and unknown providers.
func (c Config) Validate() error {
	bounds := []struct {
		name string
		b    Bound
	}{
		{"players", c.Limits.Players},
		{"stakeholders", c.Limits.Stakeholders},
		{"concerns", c.Limits.Concerns},
		{"events", c.Limits.Events},
		{"attributes", c.Limits.Attributes},
	}
	for _, nb := range bounds {
		if nb.b.Min < 0 {
			return fmt.Errorf("limits.%s.min must not be negative", nb.name)
		}
		if nb.b.Max < nb.b.Min {
			return fmt.Errorf("limits.%s: max %d is below min %d", nb.name, nb.b.Max, nb.b.Min)
		}
	}
	if c.Limits.Players.Min < 1 {
		return errors.New("limits.players.min must be at least 1")
	}
	if c.SessionBudget <= 0 {
		return errors.New("session_budget must be positive")
	}
	if c.Advisor.Timeout < 0 {
		return errors.New("advisor.timeout must not be negative")
	}
	switch c.Advisor.Provider {
	case ProviderGemini, ProviderOllama, ProviderStatic:
	default:
		return fmt.Errorf("advisor.provider %q is not one of gemini, ollama, static", c.Advisor.Provider)
	}
	return nil
}

// SetDefaults registers every key with its default so env lookups resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("workspace", d.Workspace)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("session_budget", d.SessionBudget)
	setBound(v, "limits.players", d.Limits.Players)
	setBound(v, "limits.stakeholders", d.Limits.Stakeholders)
	setBound(v, "limits.concerns", d.Limits.Concerns)
	setBound(v, "limits.events", d.Limits.Events)
	setBound(v, "limits.attributes", d.Limits.Attributes)
	v.SetDefault("advisor.provider", d.Advisor.Provider)
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.assistant_name", d.Advisor.AssistantName)
	v.SetDefault("advisor.ollama_url", d.Advisor.OllamaURL)
	v.SetDefault("advisor.timeout", time.Duration(0))
	v.SetDefault("advisor.strict", false)
	v.SetDefault("advisor.gemini_api_key", "")
}

func setBound(v *viper.Viper, key string, b Bound) {
	v.SetDefault(key+".min", b.Min)
	v.SetDefault(key+".max", b.Max)
}

// Load resolves flags, DECIDARCH_* env vars, an optional decidarch.yaml in the
// workspace and defaults into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("DECIDARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("advisor.gemini_api_key", "DECIDARCH_ADVISOR_GEMINI_API_KEY", "GEMINI_API_KEY")

	v.SetConfigName("decidarch")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("workspace"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Workspace:     v.GetString("workspace"),
		LogLevel:      v.GetString("log_level"),
		SessionBudget: v.GetDuration("session_budget"),
		Limits: Limits{
			Players:      getBound(v, "limits.players"),
			Stakeholders: getBound(v, "limits.stakeholders"),
			Concerns:     getBound(v, "limits.concerns"),
			Events:       getBound(v, "limits.events"),
			Attributes:   getBound(v, "limits.attributes"),
		},
		Advisor: Advisor{
			Provider:      strings.ToLower(v.GetString("advisor.provider")),
			Model:         v.GetString("advisor.model"),
			AssistantName: v.GetString("advisor.assistant_name"),
			GeminiAPIKey:  v.GetString("advisor.gemini_api_key"),
			OllamaURL:     v.GetString("advisor.ollama_url"),
			Timeout:       v.GetDuration("advisor.timeout"),
			Strict:        v.GetBool("advisor.strict"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getBound(v *viper.Viper, key string) Bound {
	return Bound{Min: v.GetInt(key + ".min"), Max: v.GetInt(key + ".max")}
}
