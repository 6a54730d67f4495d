// Package advisor produces natural-language design suggestions for a turn.
// Suggestions are informational only; nothing in the game reads them back.
package advisor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/models"
)

// Advisor turns a turn's context into a suggestion.
type Advisor interface {
	Suggest(ctx context.Context, req Request) (string, error)
}

// Service is an Advisor holding resources that must be released.
type Service interface {
	Advisor
	io.Closer
}

// Request is the context snapshot handed to the advisor on every turn.
type Request struct {
	Project      models.Project
	Stakeholders []models.Stakeholder
	Decisions    []models.Impact
	Scores       models.Impact
	Events       []models.Event
	Concern      models.Concern
}

// ProjectDescription renders "name - purpose".
func (r Request) ProjectDescription() string {
	return r.Project.String()
}

// StakeholdersInfo renders one "- role: priorities" line per stakeholder.
func (r Request) StakeholdersInfo() string {
	lines := make([]string, 0, len(r.Stakeholders))
	for _, s := range r.Stakeholders {
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Role, s.Priorities))
	}
	return strings.Join(lines, "\n")
}

// DecisionsText flattens the ledger in resolution order.
func (r Request) DecisionsText() string {
	var parts []string
	for _, d := range r.Decisions {
		if s := d.String(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}

// ScoresText renders the cumulative QA scores.
func (r Request) ScoresText() string {
	if len(r.Scores) == 0 {
		return "None"
	}
	return r.Scores.String()
}

// EventsText renders every event as "title: description. consequence".
func (r Request) EventsText() string {
	if len(r.Events) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		text := fmt.Sprintf("%s: %s", e.Title, strings.TrimSuffix(e.Description, "."))
		if e.Consequence != "" {
			text += ". " + e.Consequence
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// OptionsText renders the concern's design decision impacts.
func (r Request) OptionsText() string {
	if len(r.Concern.Impact) == 0 {
		return "None"
	}
	return r.Concern.Impact.String()
}

// New returns the advisor selected by cfg.Provider.
func New(ctx context.Context, cfg config.Advisor) (Service, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.ModelName(), cfg.AssistantName)
	case config.ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.ModelName(), cfg.AssistantName), nil
	case config.ProviderStatic:
		return Static{}, nil
	}
	return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
}
