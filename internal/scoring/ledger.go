// Package scoring holds the decision ledger and the pure functions that turn
// it into quality attribute scores and a final game score.
package scoring

import "github.com/decidarch/assistant/internal/models"

// Ledger is the append-only record of applied decisions, in resolution order.
// The zero value is ready to use.
type Ledger struct {
	entries []models.Impact
}

// Append records a copy of decision; later changes to the caller's map do not
// reach the ledger.
func (l *Ledger) Append(decision models.Impact) {
	l.entries = append(l.entries, decision.Clone())
}

// Entries returns copies of all decisions in insertion order.
func (l *Ledger) Entries() []models.Impact {
	out := make([]models.Impact, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len reports the number of applied decisions.
func (l *Ledger) Len() int {
	return len(l.entries)
}
