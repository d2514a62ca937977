package engine

import (
	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// openReceivingOrder creates an IN_TRANSIT order and assigns staff,
// used both by the non-sales planner (spec.md §4.6) and by the external
// CreateReceivingOrder command.
func (e *Engine) openReceivingOrder(sourceID, destID, skuID string, source domain.Source, qty int) *domain.ReceivingOrder {
	id := e.ids.NewID()
	ro := &domain.ReceivingOrder{
		ID:                    id,
		SourceLocationID:      sourceID,
		DestinationLocationID: destID,
		SKUID:                 skuID,
		Source:                source,
		RequestedQty:          qty,
		Status:                domain.ReceivingInTransit,
		CreatedAt:             e.cursor,
		UpdatedAt:             e.cursor,
	}
	e.receivingOrders[id] = ro
	e.recordFlow("receiving_order_created", "receiving order opened for "+skuID+" at "+destID)
	e.autoAssignPending()
	e.refreshReceivingOrdersOpenMetric()
	return ro
}

func (e *Engine) refreshReceivingOrdersOpenMetric() {
	var n int64
	for _, ro := range e.receivingOrders {
		if ro.Status == domain.ReceivingInTransit {
			n++
		}
	}
	e.metrics.SetReceivingOrdersOpen(n)
}

// CreateReceivingOrder implements spec.md §4.8's create validations.
func (e *Engine) CreateReceivingOrder(cmd types.CreateReceivingOrderCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.locations[cmd.DestinationLocationID]; !ok {
		return e.reject(types.StatusZoneNotFound)
	}
	if !domain.IsExternalSource(cmd.SourceLocationID) {
		if _, ok := e.locations[cmd.SourceLocationID]; !ok {
			return e.reject(types.StatusZoneNotFound)
		}
		if cmd.SourceLocationID == cmd.DestinationLocationID {
			return e.reject(types.StatusSourceEqualsDestination)
		}
	}
	if _, ok := e.skus[cmd.SKUID]; !ok {
		return e.reject(types.StatusSKURequired)
	}
	sku := e.skus[cmd.SKUID]
	if string(sku.Source) != cmd.SourceType {
		return e.reject(types.StatusSourceMismatch)
	}
	if cmd.RequestedQty <= 0 {
		return e.reject(types.StatusInvalidQty)
	}

	e.advanceCursor(cmd.Timestamp)
	ro := e.openReceivingOrder(cmd.SourceLocationID, cmd.DestinationLocationID, cmd.SKUID, domain.Source(cmd.SourceType), cmd.RequestedQty)

	e.metrics.IncCommandsAccepted()
	return types.Result{Status: types.StatusAccepted, ReceivingOrderID: ro.ID}
}

// ConfirmReceivingOrder implements spec.md §4.8's confirm combinations.
func (e *Engine) ConfirmReceivingOrder(cmd types.ConfirmReceivingOrderCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	ro, ok := e.receivingOrders[cmd.OrderID]
	if !ok {
		return e.reject(types.StatusOrderNotFound)
	}
	if ro.Status != domain.ReceivingInTransit {
		return e.reject(types.StatusOrderNotOpen)
	}

	e.advanceCursor(cmd.Timestamp)

	moved := e.executeTransfer(ro.SourceLocationID, ro.DestinationLocationID, ro.SKUID, ro.Source, ro.RequestedQty)
	e.sources.RecordOutcome(ro.SourceLocationID, moved > 0, e.cursor)

	if moved == 0 {
		ro.UpdatedAt = e.cursor
		e.metrics.IncCommandsAccepted()
		return e.ok(types.StatusNoInventoryMoved)
	}

	ro.ConfirmedQty = moved
	ro.Status = domain.ReceivingConfirmed
	ro.UpdatedAt = e.cursor
	at := e.cursor
	ro.ConfirmedAt = &at
	e.recordFlow("receiving_order_confirmed", "receiving order confirmed for "+ro.SKUID+" at "+ro.DestinationLocationID)
	e.refreshReceivingOrdersOpenMetric()

	e.recomputeLocation(ro.DestinationLocationID)
	if !domain.IsExternalSource(ro.SourceLocationID) {
		e.recomputeLocation(ro.SourceLocationID)
	}

	e.metrics.IncCommandsAccepted()
	qty := moved
	result := e.ok(types.StatusConfirmed)
	result.ConfirmedQty = &qty
	return result
}
