package engine

import (
	"github.com/shelfworks/shelfengine/internal/core/domain"
)

// upsertRule installs or replaces an effective rule, stamping UpdatedAt with
// the cursor. Nothing outside templates.go calls this directly (spec.md
// §4.11: effective rules are always derived from template projection).
func (e *Engine) upsertRule(r domain.EffectiveRule) {
	r.UpdatedAt = e.cursor
	e.rules[r.ID] = &r
}

// deleteRule removes an effective rule and rejects every open task it owns
// (spec.md §3 Lifecycle, §4.5, §4.7).
func (e *Engine) deleteRule(ruleID, closeReason string) {
	delete(e.rules, ruleID)
	for _, t := range e.tasks {
		if t.RuleID == ruleID && t.Status.IsOpen() {
			e.closeTask(t, domain.TaskRejected, closeReason)
		}
	}
}

func (e *Engine) activeRulesForLocation(locationID string) []*domain.EffectiveRule {
	var out []*domain.EffectiveRule
	for _, r := range e.rules {
		if r.Active && r.LocationID == locationID {
			out = append(out, r)
		}
	}
	return out
}
