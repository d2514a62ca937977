package domain

import (
	"strings"
	"time"
)

// EffectiveRule is the live min/max record the planner consults. It is
// always derived from the template set via projection (spec.md §4.5);
// nothing in the engine writes one directly.
type EffectiveRule struct {
	ID              string // canonical "rule-<locationId>-<skuId>-<source>", lowercased
	LocationID      string
	SKUID           string
	Source          Source
	Min             int
	Max             int
	Priority        int
	InboundSourceID string // optional
	Active          bool
	UpdatedAt       time.Time

	// TemplateID tracks which template currently wins this rule, so
	// projection can diff the old and new managed sets (spec.md §4.5).
	TemplateID string
}

// RuleID builds the canonical effective-rule id (spec.md §6).
func RuleID(locationID, skuID string, source Source) string {
	return "rule-" + strings.ToLower(locationID) + "-" + strings.ToLower(skuID) + "-" + strings.ToLower(string(source))
}

// TemplateScope is GENERIC (applies to every location) or LOCATION-scoped.
type TemplateScope string

const (
	ScopeGeneric  TemplateScope = "GENERIC"
	ScopeLocation TemplateScope = "LOCATION"
)

// TemplateSelectorKind picks a single SKU or a set matched by attributes.
type TemplateSelectorKind string

const (
	SelectorSKU        TemplateSelectorKind = "SKU"
	SelectorAttributes TemplateSelectorKind = "ATTRIBUTES"
)

// RuleTemplate is the authoring-time record that projects into zero or more
// EffectiveRules (spec.md §3, §4.5).
type RuleTemplate struct {
	ID         string
	Scope      TemplateScope
	LocationID string // required when Scope == ScopeLocation
	Selector   TemplateSelectorKind
	SKUID      string            // used when Selector == SelectorSKU
	Attributes CatalogAttributes // partial match, used when Selector == SelectorAttributes
	AttributesSet map[string]bool // which CatalogAttributes fields were actually specified

	Source          Source
	Min             int
	Max             int
	Priority        int
	InboundSourceID string
	Active          bool
	UpdatedAt       time.Time
}

// ScopePriority orders LOCATION above GENERIC for winner election
// (spec.md §4.5's lexicographic ordering).
func (t RuleTemplate) ScopePriority() int {
	if t.Scope == ScopeLocation {
		return 1
	}
	return 0
}
