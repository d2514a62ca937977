package engine

import (
	"sort"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// SalesLocationIDs returns every location flagged as a sales location, for
// the sweep scheduler (spec.md §4.3).
func (e *Engine) SalesLocationIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for _, loc := range e.locations {
		if loc.IsSalesLocation {
			out = append(out, loc.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Dashboard builds the per-location summary read model (spec.md §6).
func (e *Engine) Dashboard() []types.DashboardLocationSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []types.DashboardLocationSummary
	for _, loc := range e.locations {
		low := 0
		for _, r := range e.activeRulesForLocation(loc.ID) {
			if e.snapshotQtyFor(loc.ID, r.SKUID, r.Source) <= r.Min {
				low++
			}
		}
		open := 0
		for _, t := range e.tasks {
			if t.LocationID == loc.ID && t.Status.IsOpen() {
				open++
			}
		}
		out = append(out, types.DashboardLocationSummary{
			LocationID:    loc.ID,
			LocationName:  loc.Name,
			LowStockCount: low,
			OpenTaskCount: open,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

func (e *Engine) taskView(t *domain.ReplenishmentTask) types.TaskView {
	return types.TaskView{
		ID:               t.ID,
		RuleID:           t.RuleID,
		LocationID:       t.LocationID,
		SKUID:            t.SKUID,
		Source:           string(t.Source),
		Status:           string(t.Status),
		TriggerQty:       t.TriggerQty,
		DeficitQty:       t.DeficitQty,
		TargetQty:        t.TargetQty,
		SelectedSourceID: t.SelectedSourceID,
		AssignedStaffID:  t.AssignedStaffID,
		ConfirmedQty:     t.ConfirmedQty,
		CloseReason:      t.CloseReason,
	}
}

// ZoneDetail builds the inventory/recent-reads/open-tasks view for one
// location (spec.md §6).
func (e *Engine) ZoneDetail(locationID string) (types.ZoneDetail, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.locations[locationID]; !ok {
		return types.ZoneDetail{}, false
	}

	var inventory []types.InventoryRow
	for key, s := range e.snapshots {
		if key.LocationID != locationID {
			continue
		}
		inventory = append(inventory, types.InventoryRow{
			SKUID:      key.SKUID,
			Source:     string(key.Source),
			Qty:        s.Qty,
			Confidence: s.Confidence,
			Version:    s.Version,
		})
	}
	sort.Slice(inventory, func(i, j int) bool { return inventory[i].SKUID < inventory[j].SKUID })

	var reads []types.RecentRead
	for _, r := range e.recentReads[locationID] {
		reads = append(reads, types.RecentRead{EPC: r.EPC, AntennaID: r.AntennaID, At: r.At})
	}

	var tasks []types.TaskView
	for _, t := range e.tasks {
		if t.LocationID == locationID && t.Status.IsOpen() {
			tasks = append(tasks, e.taskView(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return e.taskSeq[tasks[i].ID] < e.taskSeq[tasks[j].ID] })

	return types.ZoneDetail{
		LocationID:  locationID,
		Inventory:   inventory,
		RecentReads: reads,
		OpenTasks:   tasks,
	}, true
}

// TaskList applies an optional location/status filter (spec.md §6).
func (e *Engine) TaskList(filter types.TaskListFilter) []types.TaskView {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []types.TaskView
	for _, t := range e.tasks {
		if filter.LocationID != nil && t.LocationID != *filter.LocationID {
			continue
		}
		if filter.Status != nil && string(t.Status) != *filter.Status {
			continue
		}
		out = append(out, e.taskView(t))
	}
	sort.Slice(out, func(i, j int) bool { return e.taskSeq[out[i].ID] < e.taskSeq[out[j].ID] })
	return out
}

// ReceivingList returns every receiving order, newest first.
func (e *Engine) ReceivingList() []types.ReceivingOrderView {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders := make([]*domain.ReceivingOrder, 0, len(e.receivingOrders))
	for _, ro := range e.receivingOrders {
		orders = append(orders, ro)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	var out []types.ReceivingOrderView
	for _, ro := range orders {
		out = append(out, types.ReceivingOrderView{
			ID:                    ro.ID,
			SourceLocationID:      ro.SourceLocationID,
			DestinationLocationID: ro.DestinationLocationID,
			SKUID:                 ro.SKUID,
			Source:                string(ro.Source),
			RequestedQty:          ro.RequestedQty,
			ConfirmedQty:          ro.ConfirmedQty,
			Status:                string(ro.Status),
		})
	}
	return out
}

// AuditLog returns every audit entry for one task, in emission order.
func (e *Engine) AuditLog(taskID string) []types.AuditLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []types.AuditLogEntry
	for _, a := range e.audit {
		if a.TaskID != taskID {
			continue
		}
		out = append(out, types.AuditLogEntry{
			ID:      a.ID,
			TaskID:  a.TaskID,
			Action:  string(a.Action),
			Actor:   a.Actor,
			Details: a.Details,
			At:      a.At,
		})
	}
	return out
}

// FlowTimeline returns the cross-cutting event log (spec.md §6, §7).
func (e *Engine) FlowTimeline() []types.FlowEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.FlowEvent, len(e.flow))
	for i, f := range e.flow {
		out[i] = types.FlowEvent{At: f.At, Kind: f.Kind, Summary: f.Summary}
	}
	return out
}

// MetricsSnapshot exposes the engine's activity counters (spec.md §6).
func (e *Engine) MetricsSnapshot() types.EngineMetricsView {
	s := e.metrics.Snapshot()
	return types.EngineMetricsView{
		CommandsAccepted:    s.CommandsAccepted,
		CommandsRejected:    s.CommandsRejected,
		DedupRejections:     s.DedupRejections,
		PresenceTTLEvicted:  s.PresenceTTLEvicted,
		TasksCreated:        s.TasksCreated,
		TasksConfirmed:      s.TasksConfirmed,
		TasksRejected:       s.TasksRejected,
		ReceivingOrdersOpen: s.ReceivingOrdersOpen,
		StaffFallbackCount:  s.StaffFallbackCount,
	}
}
