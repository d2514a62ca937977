package domain

import (
	"strings"
	"time"
)

// Source distinguishes tag-bearing merchandise from tag-less merchandise.
// It is immutable once a SKU is created.
type Source string

const (
	SourceRFID    Source = "RFID"
	SourceNonRFID Source = "NON_RFID"
)

// CatalogAttributes is the small relational filter rule templates match
// against (spec.md §9): a flat attribute bag evaluated in one pass rather
// than dynamic property access.
type CatalogAttributes struct {
	Kit      string
	AgeGroup string
	Gender   string
	Role     string
	Quality  string
}

// SKU is a stock keeping unit. RFID SKUs are realised as a set of EPCs;
// NON_RFID SKUs are tracked purely through the ledger.
type SKU struct {
	ID         string
	Source     Source
	Title      string
	Attributes CatalogAttributes
}

// IsPersonalisable implements spec.md §4.10's routing predicate: catalog
// role of player/goalkeeper, or a title carrying "JSY" (jersey), sends sold
// units through cashier staging instead of a plain sale/deduction.
func (s SKU) IsPersonalisable() bool {
	if s.Attributes.Role == "player" || s.Attributes.Role == "goalkeeper" {
		return true
	}
	return strings.Contains(s.Title, "JSY")
}

// EPCMapping is the time-windowed association between a physical tag and a
// SKU. At most one mapping is active for a given EPC at any instant.
type EPCMapping struct {
	EPC        string
	SKUID      string
	ActiveFrom time.Time
	ActiveTo   *time.Time
}

// ActiveAt reports whether this mapping was in force at instant t.
func (m EPCMapping) ActiveAt(t time.Time) bool {
	if t.Before(m.ActiveFrom) {
		return false
	}
	if m.ActiveTo != nil && !t.Before(*m.ActiveTo) {
		return false
	}
	return true
}
