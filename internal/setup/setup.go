// Package setup collects a fully populated deck before a game starts, either
// interactively or from a deck file, enforcing the configured limits.
package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/decidarch/assistant/internal/config"
	"github.com/decidarch/assistant/internal/logging"
	"github.com/decidarch/assistant/internal/models"
)

// ErrNoInput is returned when the input ends before setup is complete.
var ErrNoInput = errors.New("setup: input ended before setup was complete")

// Collector prompts for players, project, stakeholders, concerns and events.
// Counts outside the configured bounds are clamped, never rejected.
type Collector struct {
	limits config.Limits
	in     *bufio.Scanner
	out    io.Writer
	log    *zap.Logger
}

func NewCollector(limits config.Limits, in io.Reader, out io.Writer, logger *zap.Logger) *Collector {
	return &Collector{
		limits: limits,
		in:     bufio.NewScanner(in),
		out:    out,
		log:    logging.OrNop(logger),
	}
}

// Collect runs the whole setup dialogue.
func (c *Collector) Collect() (*models.Deck, error) {
	var deck models.Deck

	n, err := c.Count("players", c.limits.Players)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		first, err := c.Text("Enter player's first name: ")
		if err != nil {
			return nil, err
		}
		last, err := c.Text("Enter player's last name: ")
		if err != nil {
			return nil, err
		}
		deck.Players = append(deck.Players, models.Player{FirstName: first, LastName: last})
	}

	if deck.Project.Name, err = c.Text("Enter project name: "); err != nil {
		return nil, err
	}
	if deck.Project.Purpose, err = c.Text("Enter project purpose: "); err != nil {
		return nil, err
	}

	if n, err = c.Count("stakeholders", c.limits.Stakeholders); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		s, err := c.stakeholder()
		if err != nil {
			return nil, err
		}
		deck.Stakeholders = append(deck.Stakeholders, s)
	}

	if n, err = c.Count("concern cards", c.limits.Concerns); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		concern, err := c.Text(fmt.Sprintf("Enter concern for card %d: ", i+1))
		if err != nil {
			return nil, err
		}
		impact, err := c.impact(
			fmt.Sprintf("design decisions for concern %s", concern),
			"Enter design decision attribute: ",
			"Enter impact for %s (+/- value): ",
		)
		if err != nil {
			return nil, err
		}
		deck.Concerns = append(deck.Concerns, models.Concern{ID: i + 1, Description: concern, Impact: impact})
	}

	if n, err = c.Count("event cards", c.limits.Events); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		var e models.Event
		if e.Title, err = c.Text("Enter event title: "); err != nil {
			return nil, err
		}
		if e.Description, err = c.Text("Enter event description: "); err != nil {
			return nil, err
		}
		if e.Consequence, err = c.Text("Enter event consequence: "); err != nil {
			return nil, err
		}
		deck.Events = append(deck.Events, e)
	}

	if err := deck.Normalize(); err != nil {
		return nil, err
	}
	return &deck, nil
}

func (c *Collector) stakeholder() (models.Stakeholder, error) {
	role, err := c.Text("Enter stakeholder role: ")
	if err != nil {
		return models.Stakeholder{}, err
	}
	goal, err := c.Text("Enter stakeholder goal: ")
	if err != nil {
		return models.Stakeholder{}, err
	}
	prio, err := c.impact(
		fmt.Sprintf("quality attributes for %s", role),
		"Enter quality attribute: ",
		"Enter priority for %s (1-5): ",
	)
	if err != nil {
		return models.Stakeholder{}, err
	}
	return models.Stakeholder{Role: role, Goal: goal, Priorities: prio}, nil
}

// impact asks for a bounded number of attribute/value pairs. Attribute names
// are normalized on entry and duplicates are asked again.
func (c *Collector) impact(what, attrPrompt, valuePrompt string) (models.Impact, error) {
	n, err := c.Count(what, c.limits.Attributes)
	if err != nil {
		return nil, err
	}
	out := make(models.Impact, n)
	for len(out) < n {
		raw, err := c.Text(attrPrompt)
		if err != nil {
			return nil, err
		}
		attr, err := models.ParseAttribute(raw)
		if err != nil {
			fmt.Fprintln(c.out, "Attribute name cannot be empty.")
			continue
		}
		if _, dup := out[attr]; dup {
			fmt.Fprintf(c.out, "%s was already entered.\n", attr)
			continue
		}
		v, err := c.Int(fmt.Sprintf(valuePrompt, attr))
		if err != nil {
			return nil, err
		}
		out[attr] = v
	}
	return out, nil
}

// Count asks for how many records of a kind to collect and clamps the answer into b.
func (c *Collector) Count(what string, b config.Bound) (int, error) {
	n, err := c.Int(fmt.Sprintf("Enter number of %s (min %d, max %d): ", what, b.Min, b.Max))
	if err != nil {
		return 0, err
	}
	clamped, changed := b.Clamp(n)
	if changed {
		if n > b.Max {
			fmt.Fprintf(c.out, "Number of %s cannot exceed %d. Setting to %d.\n", what, b.Max, clamped)
		} else {
			fmt.Fprintf(c.out, "Number of %s cannot be less than %d. Setting to %d.\n", what, b.Min, clamped)
		}
		c.log.Warn("setup count clamped",
			zap.String("kind", what),
			zap.Int("requested", n),
			zap.Int("clamped", clamped),
		)
	}
	return clamped, nil
}

// Int prompts until the answer parses as an integer.
func (c *Collector) Int(prompt string) (int, error) {
	for {
		line, err := c.line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimPrefix(line, "+"))
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(c.out, "%q is not a whole number.\n", line)
	}
}

// Text prompts until the answer is non-empty.
func (c *Collector) Text(prompt string) (string, error) {
	for {
		line, err := c.line(prompt)
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

func (c *Collector) line(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// Fit applies the limits to a deck loaded from a file. Lists longer than the
// maximum are truncated with a warning; lists shorter than the minimum are an
// error because missing records cannot be made up.
func Fit(deck *models.Deck, limits config.Limits, out io.Writer, logger *zap.Logger) error {
	log := logging.OrNop(logger)
	check := func(what string, have int, b config.Bound) (int, error) {
		if have < b.Min {
			return 0, fmt.Errorf("deck has %d %s, at least %d required", have, what, b.Min)
		}
		if have > b.Max {
			fmt.Fprintf(out, "Number of %s cannot exceed %d. Using the first %d.\n", what, b.Max, b.Max)
			log.Warn("deck truncated", zap.String("kind", what), zap.Int("have", have), zap.Int("kept", b.Max))
			return b.Max, nil
		}
		return have, nil
	}

	n, err := check("players", len(deck.Players), limits.Players)
	if err != nil {
		return err
	}
	deck.Players = deck.Players[:n]
	if n, err = check("stakeholders", len(deck.Stakeholders), limits.Stakeholders); err != nil {
		return err
	}
	deck.Stakeholders = deck.Stakeholders[:n]
	if n, err = check("concern cards", len(deck.Concerns), limits.Concerns); err != nil {
		return err
	}
	deck.Concerns = deck.Concerns[:n]
	if n, err = check("event cards", len(deck.Events), limits.Events); err != nil {
		return err
	}
	deck.Events = deck.Events[:n]
	return nil
}
