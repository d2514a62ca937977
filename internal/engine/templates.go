package engine

import (
	"sort"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// ruleKey is the cross-product cell spec.md §4.5 projects templates onto.
type ruleKey struct {
	LocationID string
	SKUID      string
	Source     domain.Source
}

// UpsertRuleTemplate implements spec.md §4.5/§4.11/§6: templates are the
// only thing that ever produces an effective rule; this command creates or
// replaces one and reprojects.
func (e *Engine) UpsertRuleTemplate(cmd types.UpsertRuleTemplateCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	scope := domain.TemplateScope(cmd.Scope)
	if scope == domain.ScopeLocation {
		if cmd.LocationID == "" {
			return e.reject(types.StatusZoneRequired)
		}
		if _, ok := e.locations[cmd.LocationID]; !ok {
			return e.reject(types.StatusZoneNotFound)
		}
	}
	selector := domain.TemplateSelectorKind(cmd.Selector)
	if selector == domain.SelectorSKU {
		if cmd.SKUID == "" {
			return e.reject(types.StatusSKURequired)
		}
		if _, ok := e.skus[cmd.SKUID]; !ok {
			return e.reject(types.StatusSKURequired)
		}
	}
	if cmd.Max < cmd.Min {
		return e.reject(types.StatusInvalidMinMax)
	}

	e.advanceCursor(cmd.Timestamp)

	id := cmd.ID
	if id == "" {
		id = e.ids.NewID()
	}

	attrs, attrsSet := attributesFromCmd(cmd)

	tpl := &domain.RuleTemplate{
		ID:              id,
		Scope:           scope,
		LocationID:      cmd.LocationID,
		Selector:        selector,
		SKUID:           cmd.SKUID,
		Attributes:      attrs,
		AttributesSet:   attrsSet,
		Source:          domain.Source(cmd.SourceType),
		Min:             cmd.Min,
		Max:             cmd.Max,
		Priority:        cmd.Priority,
		InboundSourceID: cmd.InboundSourceID,
		Active:          true,
		UpdatedAt:       e.cursor,
	}
	e.templates[id] = tpl

	e.projectTemplates()
	e.metrics.IncCommandsAccepted()
	return types.Result{Status: types.StatusAccepted, TemplateID: id}
}

// DeleteRuleTemplate soft-deletes a template and reprojects (spec.md §3
// Lifecycle, §4.5).
func (e *Engine) DeleteRuleTemplate(cmd types.DeleteRuleTemplateCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	tpl, ok := e.templates[cmd.TemplateID]
	if !ok || !tpl.Active {
		return e.reject(types.StatusAlreadyInactive)
	}

	e.advanceCursor(cmd.Timestamp)
	tpl.Active = false
	tpl.UpdatedAt = e.cursor

	e.projectTemplates()
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

func attributesFromCmd(cmd types.UpsertRuleTemplateCmd) (domain.CatalogAttributes, map[string]bool) {
	attrs := domain.CatalogAttributes{}
	set := make(map[string]bool)
	if cmd.AttrKit != nil {
		attrs.Kit = *cmd.AttrKit
		set["kit"] = true
	}
	if cmd.AttrAgeGroup != nil {
		attrs.AgeGroup = *cmd.AttrAgeGroup
		set["ageGroup"] = true
	}
	if cmd.AttrGender != nil {
		attrs.Gender = *cmd.AttrGender
		set["gender"] = true
	}
	if cmd.AttrRole != nil {
		attrs.Role = *cmd.AttrRole
		set["role"] = true
	}
	if cmd.AttrQuality != nil {
		attrs.Quality = *cmd.AttrQuality
		set["quality"] = true
	}
	return attrs, set
}

// matchesAttributes reports whether sku satisfies every attribute the
// template actually specified (spec.md §3, §9: a flat filter evaluated in
// one pass).
func matchesAttributes(tpl *domain.RuleTemplate, sku *domain.SKU) bool {
	if tpl.AttributesSet["kit"] && sku.Attributes.Kit != tpl.Attributes.Kit {
		return false
	}
	if tpl.AttributesSet["ageGroup"] && sku.Attributes.AgeGroup != tpl.Attributes.AgeGroup {
		return false
	}
	if tpl.AttributesSet["gender"] && sku.Attributes.Gender != tpl.Attributes.Gender {
		return false
	}
	if tpl.AttributesSet["role"] && sku.Attributes.Role != tpl.Attributes.Role {
		return false
	}
	if tpl.AttributesSet["quality"] && sku.Attributes.Quality != tpl.Attributes.Quality {
		return false
	}
	return true
}

// projectTemplates recomputes the entire effective rule set from the active
// template set, diffs it against what's currently managed, and cascades
// deletions (spec.md §4.5). Deterministic: running it twice in a row with
// no template change produces the same managed id set (spec.md §8 property
// 5).
func (e *Engine) projectTemplates() {
	candidates := make(map[ruleKey][]*domain.RuleTemplate)

	for _, tpl := range e.templates {
		if !tpl.Active {
			continue
		}
		var locIDs []string
		if tpl.Scope == domain.ScopeGeneric {
			for id := range e.locations {
				locIDs = append(locIDs, id)
			}
		} else if _, ok := e.locations[tpl.LocationID]; ok {
			locIDs = []string{tpl.LocationID}
		}

		var skuIDs []string
		if tpl.Selector == domain.SelectorSKU {
			if sku, ok := e.skus[tpl.SKUID]; ok && sku.Source == tpl.Source {
				skuIDs = []string{tpl.SKUID}
			}
		} else {
			for id, sku := range e.skus {
				if sku.Source == tpl.Source && matchesAttributes(tpl, sku) {
					skuIDs = append(skuIDs, id)
				}
			}
		}

		for _, locID := range locIDs {
			for _, skuID := range skuIDs {
				key := ruleKey{LocationID: locID, SKUID: skuID, Source: tpl.Source}
				candidates[key] = append(candidates[key], tpl)
			}
		}
	}

	newManaged := make(map[string]domain.EffectiveRule)
	for key, tpls := range candidates {
		winner := electWinner(tpls)
		id := domain.RuleID(key.LocationID, key.SKUID, key.Source)
		newManaged[id] = domain.EffectiveRule{
			ID:              id,
			LocationID:      key.LocationID,
			SKUID:           key.SKUID,
			Source:          key.Source,
			Min:             winner.Min,
			Max:             winner.Max,
			Priority:        winner.Priority,
			InboundSourceID: winner.InboundSourceID,
			Active:          true,
			TemplateID:      winner.ID,
		}
	}

	touched := make(map[string]bool)
	for id, r := range e.rules {
		if _, ok := newManaged[id]; !ok {
			touched[r.LocationID] = true
			e.deleteRule(id, "rule_deleted")
		}
	}
	for _, r := range newManaged {
		touched[r.LocationID] = true
		e.upsertRule(r)
	}

	// A rule only newly starts or stops governing a location through this
	// projection; 4.6 evaluation must re-run for every location whose rule
	// set just changed (spec.md §4.5's "cascade to 4.6's close-task logic"
	// reaches trigger/over-stock/trim too, not only deletion).
	for locationID := range touched {
		e.recomputeLocation(locationID)
	}
}

// electWinner picks the template whose (scope priority, priority,
// updatedAt) sorts highest, per spec.md §4.5's lexicographic ordering.
func electWinner(tpls []*domain.RuleTemplate) *domain.RuleTemplate {
	sort.Slice(tpls, func(i, j int) bool {
		a, b := tpls[i], tpls[j]
		if a.ScopePriority() != b.ScopePriority() {
			return a.ScopePriority() > b.ScopePriority()
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return tpls[0]
}
