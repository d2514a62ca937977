package engine

import (
	"testing"

	"github.com/shelfworks/shelfengine/internal/core/domain"
)

// TestLedgerConservation grounds spec.md §8 property 4: qty(loc, sku) =
// max(0, baseline + sum of signed entries at/after the baseline timestamp).
func TestLedgerConservation(t *testing.T) {
	e := newTestEngine(15, 300)

	e.setBaseline("shelf-a", "SKU-NR-1", 10, ts(0))
	e.appendLedgerEntry("shelf-a", "SKU-NR-1", domain.LedgerSale, -3, ts(10))
	e.appendLedgerEntry("shelf-a", "SKU-NR-1", domain.LedgerReturn, 1, ts(20))

	if got := e.ledgerQty("shelf-a", "SKU-NR-1"); got != 8 {
		t.Fatalf("expected 10-3+1=8, got %d", got)
	}

	// An entry predating the baseline must not count, even though setting
	// a new baseline clears e.ledgerEntries for this key up front — this
	// guards the filter itself, independent of setBaseline's own reset.
	e.ledgerEntries[ledgerKey("shelf-a", "SKU-NR-1")] = append(
		e.ledgerEntries[ledgerKey("shelf-a", "SKU-NR-1")],
		domain.LedgerEntry{LocationID: "shelf-a", SKUID: "SKU-NR-1", Kind: domain.LedgerSale, SignedQty: -100, At: ts(-5)},
	)
	if got := e.ledgerQty("shelf-a", "SKU-NR-1"); got != 8 {
		t.Fatalf("an entry before the baseline timestamp must not count: got %d", got)
	}

	// Never negative.
	e.setBaseline("shelf-b", "SKU-NR-1", 2, ts(0))
	e.appendLedgerEntry("shelf-b", "SKU-NR-1", domain.LedgerSale, -5, ts(10))
	if got := e.ledgerQty("shelf-b", "SKU-NR-1"); got != 0 {
		t.Fatalf("expected floor of 0, got %d", got)
	}
}

// TestSetBaselineResetsEntries confirms a new baseline clears whatever
// entries preceded it, so re-seeding a location mid-run doesn't double
// count old movements.
func TestSetBaselineResetsEntries(t *testing.T) {
	e := newTestEngine(15, 300)
	e.setBaseline("shelf-a", "SKU-NR-1", 10, ts(0))
	e.appendLedgerEntry("shelf-a", "SKU-NR-1", domain.LedgerSale, -4, ts(10))
	if got := e.ledgerQty("shelf-a", "SKU-NR-1"); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}

	e.setBaseline("shelf-a", "SKU-NR-1", 20, ts(20))
	if got := e.ledgerQty("shelf-a", "SKU-NR-1"); got != 20 {
		t.Fatalf("expected the reset baseline of 20 with no carried-over entries, got %d", got)
	}
}
