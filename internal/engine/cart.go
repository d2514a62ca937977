package engine

import (
	"sort"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// applySaleDeduction implements spec.md §4.10's ingestion rule: a SALE
// against an RFID SKU removes present tags immediately (with a confidence
// floor until reads confirm it); every other movement (NON_RFID sales, and
// any return regardless of source) is a ledger entry.
func (e *Engine) applySaleDeduction(locationID, skuID string, source domain.Source, eventType types.SalesEventType, qty int) types.Status {
	if eventType == types.EventSale && source == domain.SourceRFID {
		key := domain.SnapshotKey{LocationID: locationID, SKUID: skuID, Source: domain.SourceRFID}
		prior := e.snapshotOrZero(key)
		picks := e.oldestPresentEPCs(locationID, skuID, qty)
		for _, p := range picks {
			delete(e.presence, p.EPC)
		}
		deducted := prior - qty
		if deducted < 0 {
			deducted = 0
		}
		e.rfidFloors[key] = deducted
		e.recomputeLocation(locationID)
		return types.StatusAcceptedRFIDImmediate
	}

	kind, signed := domain.LedgerSale, -qty
	if eventType == types.EventReturn {
		kind, signed = domain.LedgerReturn, qty
	}
	e.appendLedgerEntry(locationID, skuID, kind, signed, e.cursor)
	e.recomputeLocation(locationID)
	return types.StatusAccepted
}

// IngestSalesEvent implements spec.md §4.10/§6.
func (e *Engine) IngestSalesEvent(cmd types.IngestSalesEventCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	sku, ok := e.skus[cmd.SKUID]
	if !ok {
		return e.reject(types.StatusSKURequired)
	}
	if _, ok := e.locations[cmd.LocationID]; !ok {
		return e.reject(types.StatusZoneNotFound)
	}

	e.advanceCursor(cmd.Timestamp)
	status := e.applySaleDeduction(cmd.LocationID, sku.ID, sku.Source, cmd.EventType, cmd.Qty)
	e.recordFlow("sales_event", string(cmd.EventType)+" "+sku.ID+" at "+cmd.LocationID)

	e.metrics.IncCommandsAccepted()
	return e.ok(status)
}

func (e *Engine) reservedForSale(locationID, skuID string, source domain.Source) int {
	total := 0
	for _, item := range e.basketItems {
		if item.LocationID != locationID || item.SKUID != skuID || item.Status != domain.BasketInCart {
			continue
		}
		if source == domain.SourceRFID {
			remaining := item.Qty - item.PickedConfirmedQty
			if remaining > 0 {
				total += remaining
			}
		} else {
			total += item.Qty
		}
	}
	return total
}

// AddCustomerItem implements spec.md §4.10's reservation rule.
func (e *Engine) AddCustomerItem(cmd types.AddCustomerItemCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc, ok := e.locations[cmd.LocationID]
	if !ok {
		return e.reject(types.StatusZoneNotFound)
	}
	if !loc.IsSalesLocation {
		return e.reject(types.StatusZoneNotOrderable)
	}

	var source domain.Source = domain.SourceNonRFID
	if sku, ok := e.skus[cmd.SKUID]; ok {
		source = sku.Source
	}
	current := e.snapshotQtyFor(loc.ID, cmd.SKUID, source)
	reserved := e.reservedForSale(loc.ID, cmd.SKUID, source)
	available := current - reserved
	if available < 0 {
		available = 0
	}
	if cmd.Qty > available {
		avail := available
		result := e.reject(types.StatusInsufficientInventory)
		result.AvailableQty = &avail
		return result
	}

	e.advanceCursor(cmd.Timestamp)
	id := e.ids.NewID()
	item := &domain.BasketItem{
		ID:         id,
		CustomerID: cmd.CustomerID,
		LocationID: loc.ID,
		SKUID:      cmd.SKUID,
		Qty:        cmd.Qty,
		Status:     domain.BasketInCart,
		CreatedAt:  e.cursor,
		UpdatedAt:  e.cursor,
	}
	e.basketItems[id] = item

	if source == domain.SourceRFID {
		pick := &domain.PendingPick{BasketItemID: id, LocationID: loc.ID, SKUID: cmd.SKUID, QtyRemaining: cmd.Qty}
		e.pendingPicks[id] = pick
		e.resolvePick(pick)
	}

	e.metrics.IncCommandsAccepted()
	return types.Result{Status: types.StatusAccepted, BasketItemID: id}
}

// RemoveCustomerItem implements spec.md §4.10's cancellation path, including
// the legacy repair for a pick that over-consumed (spec.md §4.10).
func (e *Engine) RemoveCustomerItem(cmd types.RemoveCustomerItemCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.basketItems[cmd.BasketItemID]
	if !ok {
		return e.reject(types.StatusBasketItemNotFound)
	}
	if item.Status != domain.BasketInCart {
		return e.reject(types.StatusAlreadyInactive)
	}

	e.advanceCursor(cmd.Timestamp)
	item.Status = domain.BasketRemoved
	item.UpdatedAt = e.cursor

	if pick, ok := e.pendingPicks[item.ID]; ok {
		ant := e.primaryAntenna(pick.LocationID)
		for _, epc := range pick.ConsumedEPCs {
			e.presence[epc] = &domain.Presence{EPC: epc, SKUID: pick.SKUID, LocationID: pick.LocationID, AntennaID: ant, LastSeenAt: e.cursor}
		}
		shortfall := item.PickedConfirmedQty - len(pick.ConsumedEPCs)
		for i := 0; i < shortfall; i++ {
			epc := e.ids.NewID()
			e.epcMappings[epc] = append(e.epcMappings[epc], &domain.EPCMapping{EPC: epc, SKUID: pick.SKUID, ActiveFrom: e.cursor})
			e.presence[epc] = &domain.Presence{EPC: epc, SKUID: pick.SKUID, LocationID: pick.LocationID, AntennaID: ant, LastSeenAt: e.cursor}
		}
		delete(e.pendingPicks, item.ID)
	}

	e.recomputeLocation(item.LocationID)
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// projectedSupply implements spec.md §4.10's personalisation routing
// formula.
func (e *Engine) projectedSupply(locationID, skuID string, source domain.Source) int {
	onHand := e.snapshotQtyFor(locationID, skuID, source)

	openInboundDeficit := 0
	for _, t := range e.tasks {
		if t.Status.IsOpen() && t.LocationID == locationID && t.SKUID == skuID && t.Source == source {
			openInboundDeficit += t.DeficitQty
		}
	}

	sourcesSum := 0
	if loc, ok := e.locations[locationID]; ok {
		for _, srcID := range loc.ReplenishSources {
			if domain.IsExternalSource(srcID) {
				continue
			}
			avail := e.snapshotQtyFor(srcID, skuID, source) - e.reservedBySource(srcID, skuID, source, "")
			if avail > 0 {
				sourcesSum += avail
			}
		}
	}

	return onHand + openInboundDeficit + sourcesSum
}

// createPersonalisationTask generates the ad hoc replacement task spec.md
// §4.10/§8 scenario S5 describes: a single-unit pull from cashier staging
// to whichever destination the projected supply decides.
func (e *Engine) createPersonalisationTask(destLocationID, skuID, fromSourceID string) {
	ruleID := domain.RuleID(destLocationID, skuID, domain.SourceRFID)
	candidates := []domain.SourceCandidate{{
		ZoneID:       fromSourceID,
		SortOrder:    0,
		AvailableQty: e.snapshotQtyFor(fromSourceID, skuID, domain.SourceRFID),
	}}
	id := e.ids.NewID()
	t := &domain.ReplenishmentTask{
		ID:               id,
		RuleID:           ruleID,
		LocationID:       destLocationID,
		SKUID:            skuID,
		Source:           domain.SourceRFID,
		SourceCandidates: candidates,
		SelectedSourceID: fromSourceID,
		Status:           domain.TaskCreated,
		TriggerQty:       0,
		DeficitQty:       1,
		TargetQty:        1,
		CreatedAt:        e.cursor,
		UpdatedAt:        e.cursor,
	}
	e.tasks[id] = t
	e.taskSeq[id] = e.nextTaskSeq()
	e.metrics.IncTasksCreated()
	e.appendAudit(id, domain.AuditCreated, "system", "personalisation replacement")
	e.recordFlow("task_created", "personalisation replacement task created for "+skuID+" at "+destLocationID)
}

// CheckoutCustomer implements spec.md §4.10's checkout routing.
func (e *Engine) CheckoutCustomer(cmd types.CheckoutCustomerCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advanceCursor(cmd.Timestamp)

	var items []*domain.BasketItem
	for _, item := range e.basketItems {
		if item.CustomerID == cmd.CustomerID && item.Status == domain.BasketInCart {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

	touched := make(map[string]bool)
	for _, item := range items {
		sku, ok := e.skus[item.SKUID]
		if !ok {
			continue
		}
		touched[item.LocationID] = true

		if sku.IsPersonalisable() {
			e.checkoutPersonalisable(item, sku)
		} else {
			e.applySaleDeduction(item.LocationID, sku.ID, sku.Source, types.EventSale, item.Qty)
		}
		item.Status = domain.BasketSold
		item.UpdatedAt = e.cursor
		delete(e.pendingPicks, item.ID)
	}

	for locID := range touched {
		e.recomputeLocation(locID)
	}

	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

func (e *Engine) checkoutPersonalisable(item *domain.BasketItem, sku *domain.SKU) {
	if sku.Source == domain.SourceRFID {
		pick := e.pendingPicks[item.ID]
		ant := e.primaryAntenna(domain.LocationCashierStorage)
		var consumed []string
		if pick != nil {
			consumed = pick.ConsumedEPCs
		}
		for _, epc := range consumed {
			e.presence[epc] = &domain.Presence{EPC: epc, SKUID: sku.ID, LocationID: domain.LocationCashierStorage, AntennaID: ant, LastSeenAt: e.cursor}
		}
	} else {
		e.appendLedgerEntry(item.LocationID, sku.ID, domain.LedgerTransferOut, -item.Qty, e.cursor)
		e.appendLedgerEntry(domain.LocationCashierStorage, sku.ID, domain.LedgerConfirmedReplenish, item.Qty, e.cursor)
	}

	e.recomputeLocation(item.LocationID)
	e.recomputeLocation(domain.LocationCashierStorage)

	supply := e.projectedSupply(item.LocationID, sku.ID, sku.Source)
	dest := item.LocationID
	if supply <= 0 {
		dest = domain.LocationPrintingWall
	}
	e.createPersonalisationTask(dest, sku.ID, domain.LocationCashierStorage)
}

func (e *Engine) resolvePendingPicksForRead(locationID, skuID string) {
	var pending []*domain.PendingPick
	for _, p := range e.pendingPicks {
		if p.LocationID == locationID && p.SKUID == skuID && p.QtyRemaining > 0 {
			pending = append(pending, p)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		a := e.basketItems[pending[i].BasketItemID]
		b := e.basketItems[pending[j].BasketItemID]
		if a == nil || b == nil {
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	for _, p := range pending {
		e.resolvePick(p)
	}
}

func (e *Engine) resolvePick(p *domain.PendingPick) {
	picks := e.oldestPresentEPCs(p.LocationID, p.SKUID, p.QtyRemaining)
	for _, pr := range picks {
		delete(e.presence, pr.EPC)
		p.ConsumedEPCs = append(p.ConsumedEPCs, pr.EPC)
		p.QtyRemaining--
	}
	if item, ok := e.basketItems[p.BasketItemID]; ok {
		item.PickedConfirmedQty = len(p.ConsumedEPCs)
		item.UpdatedAt = e.cursor
	}
}
