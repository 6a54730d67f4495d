package scoring

import "github.com/decidarch/assistant/internal/models"

// SeedAttributes returns the union of every stakeholder's priority keys.
func SeedAttributes(stakeholders []models.Stakeholder) []models.Attribute {
	seen := make(models.Impact)
	for _, s := range stakeholders {
		for attr := range s.Priorities {
			seen[attr] = 0
		}
	}
	return seen.Keys()
}

// Aggregate sums the ledger into cumulative scores. Every seed attribute is
// present (0 when untouched); attributes that only appear in decisions are
// added as they are met.
func Aggregate(ledger []models.Impact, seed []models.Attribute) models.Impact {
	scores := make(models.Impact, len(seed))
	for _, attr := range seed {
		scores[attr] = 0
	}
	for _, decision := range ledger {
		for attr, delta := range decision {
			scores[attr] += delta
		}
	}
	return scores
}
