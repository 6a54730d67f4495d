package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyAttribute     = errors.New("quality attribute name is empty")
	ErrDuplicateAttribute = errors.New("quality attribute listed more than once")
)

// Attribute is the name of a quality attribute such as "Security" or "Performance".
type Attribute string

// ParseAttribute trims surrounding whitespace and rejects empty names.
func ParseAttribute(s string) (Attribute, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", ErrEmptyAttribute
	}
	return Attribute(name), nil
}

// Impact maps quality attributes to signed integers. Stakeholders use it for
// priorities, concerns for decision deltas and the aggregator for cumulative scores.
type Impact map[Attribute]int

// NewImpact builds an Impact from raw names, normalizing every key.
func NewImpact(raw map[string]int) (Impact, error) {
	out := make(Impact, len(raw))
	for name, v := range raw {
		attr, err := ParseAttribute(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[attr]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAttribute, attr)
		}
		out[attr] = v
	}
	return out, nil
}

// Normalize re-validates keys that arrived without going through NewImpact
// (YAML decoding, struct literals).
func (i Impact) Normalize() (Impact, error) {
	raw := make(map[string]int, len(i))
	for attr, v := range i {
		name := strings.TrimSpace(string(attr))
		if _, dup := raw[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
		}
		raw[name] = v
	}
	return NewImpact(raw)
}

// Clone returns an independent copy.
func (i Impact) Clone() Impact {
	if i == nil {
		return nil
	}
	out := make(Impact, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in lexical order.
func (i Impact) Keys() []Attribute {
	keys := make([]Attribute, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	return keys
}

// String renders "A: 1, B: -2" in key order.
func (i Impact) String() string {
	parts := make([]string, 0, len(i))
	for _, k := range i.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %d", k, i[k]))
	}
	return strings.Join(parts, ", ")
}

// Player is a participant at the table.
type Player struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

func (p Player) String() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Project is the project card the whole game is played against.
type Project struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"purpose"`
}

func (p Project) String() string {
	return fmt.Sprintf("%s - %s", p.Name, p.Purpose)
}

// Stakeholder carries the quality attribute priorities the final score is measured against.
type Stakeholder struct {
	Role       string `yaml:"role"`
	Goal       string `yaml:"goal"`
	Priorities Impact `yaml:"priorities"`
}

// Concern is a concern card. Its Impact is applied to the ledger when resolved.
type Concern struct {
	ID          int    `yaml:"id,omitempty"`
	Description string `yaml:"concern"`
	Impact      Impact `yaml:"impact"`
}

// Event is an advisory-only event card.
type Event struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Consequence string `yaml:"consequence"`
}

// Deck is the fully populated setup for one game.
type Deck struct {
	Players      []Player      `yaml:"players"`
	Project      Project       `yaml:"project"`
	Stakeholders []Stakeholder `yaml:"stakeholders"`
	Concerns     []Concern     `yaml:"concerns"`
	Events       []Event       `yaml:"events"`
}

// Normalize validates every record, normalizes attribute keys and numbers
// concerns sequentially starting at 1.
func (d *Deck) Normalize() error {
	for i, p := range d.Players {
		if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
			return fmt.Errorf("player %d: first and last name are required", i+1)
		}
	}
	for i := range d.Stakeholders {
		s := &d.Stakeholders[i]
		if strings.TrimSpace(s.Role) == "" {
			return fmt.Errorf("stakeholder %d: role is required", i+1)
		}
		prio, err := s.Priorities.Normalize()
		if err != nil {
			return fmt.Errorf("stakeholder %s: %w", s.Role, err)
		}
		s.Priorities = prio
	}
	for i := range d.Concerns {
		c := &d.Concerns[i]
		impact, err := c.Impact.Normalize()
		if err != nil {
			return fmt.Errorf("concern %d: %w", i+1, err)
		}
		c.Impact = impact
		c.ID = i + 1
	}
	return nil
}

// Outcome names how the running phase ended.
type Outcome string

const (
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeExhausted Outcome = "exhausted"
)

// Satisfaction is one stakeholder's contribution to the final score.
type Satisfaction struct {
	Role  string `yaml:"role"`
	Score int    `yaml:"score"`
}

// Turn records a single resolved concern.
type Turn struct {
	Number       int       `yaml:"number"`
	Player       Player    `yaml:"player"`
	ConcernID    int       `yaml:"concern_id"`
	Concern      string    `yaml:"concern"`
	Suggestion   string    `yaml:"suggestion,omitempty"`
	AdvisorError string    `yaml:"advisor_error,omitempty"`
	Applied      Impact    `yaml:"applied"`
	Scores       Impact    `yaml:"scores"` // cumulative QA scores after this turn
	At           time.Time `yaml:"at"`
}

// Result is the scored end of a game.
type Result struct {
	GameID       string         `yaml:"game_id"`
	Outcome      Outcome        `yaml:"outcome"`
	Score        int            `yaml:"score"`
	Lost         bool           `yaml:"lost"`
	QAScores     Impact         `yaml:"qa_scores"`
	Satisfaction []Satisfaction `yaml:"satisfaction,omitempty"`
	Turns        int            `yaml:"turns"`
	StartedAt    time.Time      `yaml:"started_at"`
	FinishedAt   time.Time      `yaml:"finished_at"`
}

// GameRecord aggregates everything persisted for a finished game.
type GameRecord struct {
	Deck    Deck   `yaml:"deck"`
	History []Turn `yaml:"history"`
	Result  Result `yaml:"result"`
}
