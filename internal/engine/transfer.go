package engine

import (
	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

func (e *Engine) primaryAntenna(locationID string) string {
	order := e.antennaOrder[locationID]
	if len(order) == 0 {
		return ""
	}
	return order[0]
}

// executeTransfer applies spec.md §4.8's four source/SKU-source
// combinations and returns the quantity actually moved. It is shared by
// receiving order confirmation and task confirmation (spec.md §4.9), since
// both move stock from a configured source to a destination.
func (e *Engine) executeTransfer(sourceID, destID, skuID string, source domain.Source, requested int) int {
	if requested <= 0 {
		return 0
	}
	if domain.IsExternalSource(sourceID) {
		if source == domain.SourceRFID {
			ant := e.primaryAntenna(destID)
			for i := 0; i < requested; i++ {
				epc := e.ids.NewID()
				e.epcMappings[epc] = append(e.epcMappings[epc], &domain.EPCMapping{EPC: epc, SKUID: skuID, ActiveFrom: e.cursor})
				e.presence[epc] = &domain.Presence{EPC: epc, SKUID: skuID, LocationID: destID, AntennaID: ant, LastSeenAt: e.cursor}
			}
			return requested
		}
		e.appendLedgerEntry(destID, skuID, domain.LedgerConfirmedReplenish, requested, e.cursor)
		return requested
	}

	if source == domain.SourceRFID {
		picks := e.oldestPresentEPCs(sourceID, skuID, requested)
		ant := e.primaryAntenna(destID)
		for _, p := range picks {
			e.presence[p.EPC] = &domain.Presence{EPC: p.EPC, SKUID: skuID, LocationID: destID, AntennaID: ant, LastSeenAt: e.cursor}
			e.pushRecentRead(destID, p.EPC, ant, e.cursor)
		}
		return len(picks)
	}

	avail := e.ledgerQty(sourceID, skuID)
	moved := requested
	if moved > avail {
		moved = avail
	}
	if moved <= 0 {
		return 0
	}
	e.appendLedgerEntry(sourceID, skuID, domain.LedgerTransferOut, -moved, e.cursor)
	e.appendLedgerEntry(destID, skuID, domain.LedgerConfirmedReplenish, moved, e.cursor)
	return moved
}

// ConfirmTask implements spec.md §4.9: the IN_PROGRESS -> CONFIRMED
// transition, with a fallback walk across candidate sources when the first
// choice yields nothing.
func (e *Engine) ConfirmTask(cmd types.ConfirmTaskCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[cmd.TaskID]
	if !ok {
		return e.reject(types.StatusTaskNotFound)
	}
	if t.Status != domain.TaskInProgress {
		return e.reject(types.StatusTaskNotOpen)
	}

	e.advanceCursor(cmd.Timestamp)

	requested := cmd.ConfirmedQty
	if requested > t.DeficitQty {
		requested = t.DeficitQty
	}

	order := []string{}
	if cmd.SourceZoneID != "" {
		order = append(order, cmd.SourceZoneID)
	} else if t.SelectedSourceID != "" {
		order = append(order, t.SelectedSourceID)
	}
	for _, c := range t.SourceCandidates {
		order = append(order, c.ZoneID)
	}
	if loc, ok := e.locations[t.LocationID]; ok {
		order = append(order, loc.ReplenishSources...)
	}

	attempted := make(map[string]bool)
	t.AttemptedSourceIDs = nil

	moved := 0
	usedSource := ""
	for _, srcID := range order {
		if srcID == "" || attempted[srcID] {
			continue
		}
		attempted[srcID] = true
		n := e.executeTransfer(srcID, t.LocationID, t.SKUID, t.Source, requested)
		e.sources.RecordOutcome(srcID, n > 0, e.cursor)
		if n > 0 {
			moved = n
			usedSource = srcID
			break
		}
		t.AttemptedSourceIDs = append(t.AttemptedSourceIDs, srcID)
	}

	if moved == 0 {
		t.UpdatedAt = e.cursor
		e.metrics.IncCommandsAccepted()
		return e.ok(types.StatusNoInventoryMoved)
	}

	qty := moved
	t.ConfirmedQty = &qty
	by := cmd.ConfirmedBy
	t.ConfirmedBy = &by
	at := e.cursor
	t.ConfirmedAt = &at
	t.SelectedSourceID = usedSource

	reason := "confirmed"
	status := types.StatusConfirmed
	if moved < t.DeficitQty {
		reason = "confirmed_partial"
		status = types.StatusConfirmedPartial
	}
	e.closeTask(t, domain.TaskConfirmed, reason)
	e.appendAudit(t.ID, domain.AuditConfirmed, by, reason)

	e.recomputeLocation(t.LocationID)
	if !domain.IsExternalSource(usedSource) {
		e.recomputeLocation(usedSource)
	}

	e.metrics.IncCommandsAccepted()
	result := e.ok(status)
	result.ConfirmedQty = &qty
	return result
}
