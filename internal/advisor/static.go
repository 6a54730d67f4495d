package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/decidarch/assistant/internal/models"
)

// Static builds a suggestion from the numbers alone, without a language model.
// It lets a table play offline and keeps tests deterministic.
type Static struct{}

func (Static) Suggest(_ context.Context, req Request) (string, error) {
	var gains, costs, risks []string
	for _, attr := range req.Concern.Impact.Keys() {
		delta := req.Concern.Impact[attr]
		switch {
		case delta > 0:
			gains = append(gains, fmt.Sprintf("%s +%d", attr, delta))
		case delta < 0:
			costs = append(costs, fmt.Sprintf("%s %d", attr, delta))
			if req.Scores[attr]+delta < 0 {
				risks = append(risks, string(attr))
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Concern %q.", req.Concern.Description)
	if len(gains) > 0 {
		fmt.Fprintf(&sb, " Improves %s.", strings.Join(gains, ", "))
	}
	if len(costs) > 0 {
		fmt.Fprintf(&sb, " Costs %s.", strings.Join(costs, ", "))
	}
	if len(risks) > 0 {
		fmt.Fprintf(&sb, " Warning: %s would drop below zero and lose the game.", strings.Join(risks, ", "))
	}
	if top := mostWanted(req.Stakeholders); top != "" {
		fmt.Fprintf(&sb, " Stakeholders weigh %s highest.", top)
	}
	return sb.String(), nil
}

func (Static) Close() error { return nil }

// mostWanted returns the attribute with the largest summed priority.
func mostWanted(stakeholders []models.Stakeholder) models.Attribute {
	totals := make(models.Impact)
	for _, s := range stakeholders {
		for attr, p := range s.Priorities {
			totals[attr] += p
		}
	}
	var best models.Attribute
	for _, attr := range totals.Keys() {
		if best == "" || totals[attr] > totals[best] {
			best = attr
		}
	}
	return best
}
