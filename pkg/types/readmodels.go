package types

import "time"

// These are defensive copies returned to collaborators (spec.md §5); the
// engine never hands out its internal structures.

// DashboardLocationSummary is one row of the per-location dashboard
// (spec.md §6).
type DashboardLocationSummary struct {
	LocationID    string `json:"locationId"`
	LocationName  string `json:"locationName"`
	LowStockCount int    `json:"lowStockCount"`
	OpenTaskCount int    `json:"openTaskCount"`
}

// InventoryRow is one (SKU, source) quantity line in a zone detail view.
type InventoryRow struct {
	SKUID      string  `json:"skuId"`
	Source     string  `json:"source"`
	Qty        int     `json:"qty"`
	Confidence float64 `json:"confidence"`
	Version    int64   `json:"version"`
}

// RecentRead is one accepted RFID read, for the zone detail view.
type RecentRead struct {
	EPC       string    `json:"epc"`
	AntennaID string    `json:"antennaId"`
	At        time.Time `json:"at"`
}

// ZoneDetail aggregates a location's inventory rows, recent RFID reads, and
// open tasks (spec.md §6).
type ZoneDetail struct {
	LocationID  string          `json:"locationId"`
	Inventory   []InventoryRow  `json:"inventory"`
	RecentReads []RecentRead    `json:"recentReads"`
	OpenTasks   []TaskView      `json:"openTasks"`
}

// TaskView is the read-model projection of a ReplenishmentTask.
type TaskView struct {
	ID               string  `json:"id"`
	RuleID           string  `json:"ruleId"`
	LocationID       string  `json:"locationId"`
	SKUID            string  `json:"skuId"`
	Source           string  `json:"source"`
	Status           string  `json:"status"`
	TriggerQty       int     `json:"triggerQty"`
	DeficitQty       int     `json:"deficitQty"`
	TargetQty        int     `json:"targetQty"`
	SelectedSourceID string  `json:"selectedSourceId,omitempty"`
	AssignedStaffID  *string `json:"assignedStaffId,omitempty"`
	ConfirmedQty     *int    `json:"confirmedQty,omitempty"`
	CloseReason      string  `json:"closeReason,omitempty"`
}

// TaskListFilter narrows TaskList results.
type TaskListFilter struct {
	LocationID *string
	Status     *string
}

// ReceivingOrderView is the read-model projection of a ReceivingOrder.
type ReceivingOrderView struct {
	ID                    string `json:"id"`
	SourceLocationID      string `json:"sourceLocationId"`
	DestinationLocationID string `json:"destinationLocationId"`
	SKUID                 string `json:"skuId"`
	Source                string `json:"source"`
	RequestedQty          int    `json:"requestedQty"`
	ConfirmedQty          int    `json:"confirmedQty"`
	Status                string `json:"status"`
}

// AuditLogEntry is the read-model projection of a domain.AuditEntry.
type AuditLogEntry struct {
	ID      string    `json:"id"`
	TaskID  string    `json:"taskId"`
	Action  string    `json:"action"`
	Actor   string    `json:"actor"`
	Details string    `json:"details"`
	At      time.Time `json:"at"`
}

// FlowEvent is one line of the cross-cutting flow timeline: every accepted
// command and every state transition (spec.md §7).
type FlowEvent struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Summary string    `json:"summary"`
}

// EngineMetricsView is the read-model projection of metrics.Snapshot.
type EngineMetricsView struct {
	CommandsAccepted    int64 `json:"commandsAccepted"`
	CommandsRejected    int64 `json:"commandsRejected"`
	DedupRejections     int64 `json:"dedupRejections"`
	PresenceTTLEvicted  int64 `json:"presenceTtlEvicted"`
	TasksCreated        int64 `json:"tasksCreated"`
	TasksConfirmed      int64 `json:"tasksConfirmed"`
	TasksRejected       int64 `json:"tasksRejected"`
	ReceivingOrdersOpen int64 `json:"receivingOrdersOpen"`
	StaffFallbackCount  int64 `json:"staffFallbackCount"`
}
