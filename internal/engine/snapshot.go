package engine

import (
	"github.com/shelfworks/shelfengine/internal/core/domain"
)

// rfidFloors holds the confidence-0.55 floor installed by an immediate
// sale deduction (spec.md §4.4/§4.10), keyed by snapshot. A present entry
// means "don't let recompute report more than this until reads confirm a
// lower natural count."
//
// Kept as a field on Engine rather than inline in the domain.Snapshot so
// that a plain snapshot read never has to reason about the floor's
// lifecycle — recompute is the only thing that consults or clears it.

func (e *Engine) snapshotOrZero(key domain.SnapshotKey) int {
	if s, ok := e.snapshots[key]; ok {
		return s.Qty
	}
	return 0
}

// upsertSnapshot writes qty/confidence for key, always incrementing the
// version (spec.md §9), except that a zero quantity at the cashier-storage
// staging location deletes the row entirely (spec.md §3 Lifecycle).
func (e *Engine) upsertSnapshot(key domain.SnapshotKey, qty int, confidence float64) {
	if key.LocationID == domain.LocationCashierStorage && qty == 0 {
		delete(e.snapshots, key)
		return
	}
	s, ok := e.snapshots[key]
	if !ok {
		s = &domain.Snapshot{Key: key}
		e.snapshots[key] = s
	}
	s.Qty = qty
	s.Confidence = confidence
	s.Version++
	s.LastCalculatedAt = e.cursor
}

// recomputeLocation runs the three passes of spec.md §4.4 for one location,
// then triggers min/max evaluation (§4.6).
func (e *Engine) recomputeLocation(locationID string) {
	e.recomputeRFID(locationID)
	e.recomputeNonRFID(locationID)
	e.evaluateLocation(locationID)
}

func (e *Engine) recomputeRFID(locationID string) {
	e.evictExpiredPresence(locationID)
	present := e.presentEPCsBySKU(locationID)

	candidates := make(map[string]bool)
	for skuID := range present {
		candidates[skuID] = true
	}
	for _, rule := range e.rules {
		if rule.Active && rule.LocationID == locationID && rule.Source == domain.SourceRFID {
			candidates[rule.SKUID] = true
		}
	}
	for key := range e.snapshots {
		if key.LocationID == locationID && key.Source == domain.SourceRFID {
			candidates[key.SKUID] = true
		}
	}

	for skuID := range candidates {
		key := domain.SnapshotKey{LocationID: locationID, SKUID: skuID, Source: domain.SourceRFID}
		natural := len(present[skuID])

		if floor, floored := e.rfidFloors[key]; floored {
			if natural > floor {
				e.upsertSnapshot(key, floor, 0.55)
				continue
			}
			// Reads have caught up with (or surpassed) the deduction;
			// the floor is consumed and normal confidence resumes.
			delete(e.rfidFloors, key)
		}

		confidence := 0.7
		if natural > 0 {
			confidence = 0.9
		}
		e.upsertSnapshot(key, natural, confidence)
	}
}

func (e *Engine) recomputeNonRFID(locationID string) {
	for _, rule := range e.rules {
		if !rule.Active || rule.LocationID != locationID || rule.Source != domain.SourceNonRFID {
			continue
		}
		key := domain.SnapshotKey{LocationID: locationID, SKUID: rule.SKUID, Source: domain.SourceNonRFID}
		qty := e.ledgerQty(locationID, rule.SKUID)
		e.upsertSnapshot(key, qty, 0)
	}
}
