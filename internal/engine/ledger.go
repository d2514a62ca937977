package engine

import (
	"time"

	"github.com/shelfworks/shelfengine/internal/core/domain"
)

// setBaseline installs or resets a NON_RFID baseline, clearing any entries
// that predate it (spec.md §3: "baseline plus signed movement log").
func (e *Engine) setBaseline(locationID, skuID string, qty int, at time.Time) {
	key := ledgerKey(locationID, skuID)
	e.ledgerBaselines[key] = &domain.LedgerBaseline{LocationID: locationID, SKUID: skuID, Qty: qty, At: at}
	e.ledgerEntries[key] = nil
}

// seedLedgerBaseline is setBaseline's entry point from dataset loading
// (spec.md §3's "initial (locationId, skuId, qty, timestamp)"), taking the
// lock and recomputing itself since, unlike every in-band ledger mutation,
// it isn't reached through an existing command handler.
func (e *Engine) seedLedgerBaseline(locationID, skuID string, qty int, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceCursor(at)
	e.setBaseline(locationID, skuID, qty, at)
	e.recomputeLocation(locationID)
}

// appendLedgerEntry records a signed movement (spec.md §3/§4.10/§4.9).
func (e *Engine) appendLedgerEntry(locationID, skuID string, kind domain.LedgerEntryKind, signedQty int, at time.Time) {
	key := ledgerKey(locationID, skuID)
	e.ledgerEntries[key] = append(e.ledgerEntries[key], domain.LedgerEntry{
		LocationID: locationID,
		SKUID:      skuID,
		Kind:       kind,
		SignedQty:  signedQty,
		At:         at,
	})
}

// ledgerQty implements spec.md §3/§4.4/§8 property 4: max(0, baseline + sum
// of signed entries since the baseline timestamp).
func (e *Engine) ledgerQty(locationID, skuID string) int {
	key := ledgerKey(locationID, skuID)
	baseline, ok := e.ledgerBaselines[key]
	if !ok {
		baseline = &domain.LedgerBaseline{LocationID: locationID, SKUID: skuID, Qty: 0}
	}
	total := baseline.Qty
	for _, entry := range e.ledgerEntries[key] {
		if entry.At.Before(baseline.At) {
			continue
		}
		total += entry.SignedQty
	}
	if total < 0 {
		return 0
	}
	return total
}
