package scoring

import (
	"fmt"

	"github.com/decidarch/assistant/internal/models"
)

// ImmediateLoss is the score reported when any quality attribute ends negative.
const ImmediateLoss = -1

// MissingAttributeError is the panic value raised when a stakeholder priority
// has no aggregated score. Callers prevent it by seeding Aggregate with
// SeedAttributes.
type MissingAttributeError struct {
	Role      string
	Attribute models.Attribute
}

func (e MissingAttributeError) Error() string {
	return fmt.Sprintf("scoring: stakeholder %q priority %q missing from qa scores", e.Role, e.Attribute)
}

// Lost reports whether any attribute in scores is negative.
func Lost(scores models.Impact) bool {
	for _, v := range scores {
		if v < 0 {
			return true
		}
	}
	return false
}

// Satisfaction is the sum over the stakeholder's priorities of
// max(0, score - priority).
func Satisfaction(scores models.Impact, s models.Stakeholder) int {
	total := 0
	for attr, priority := range s.Priorities {
		score, ok := scores[attr]
		if !ok {
			panic(MissingAttributeError{Role: s.Role, Attribute: attr})
		}
		if diff := score - priority; diff > 0 {
			total += diff
		}
	}
	return total
}

// Breakdown returns each stakeholder's satisfaction in input order. It does
// not apply the immediate-loss rule.
func Breakdown(scores models.Impact, stakeholders []models.Stakeholder) []models.Satisfaction {
	out := make([]models.Satisfaction, 0, len(stakeholders))
	for _, s := range stakeholders {
		out = append(out, models.Satisfaction{Role: s.Role, Score: Satisfaction(scores, s)})
	}
	return out
}

// Evaluate returns the final game score: ImmediateLoss if any attribute is
// negative, otherwise the sum of all stakeholder satisfactions.
func Evaluate(scores models.Impact, stakeholders []models.Stakeholder) int {
	if Lost(scores) {
		return ImmediateLoss
	}
	total := 0
	for _, s := range stakeholders {
		total += Satisfaction(scores, s)
	}
	return total
}
