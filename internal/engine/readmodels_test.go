package engine

import (
	"testing"
	"time"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// TestDashboardLowStockAndOpenTaskCounts grounds spec.md §6: the dashboard
// reports one low-stock rule and one open task once a sale drives a location
// to its min.
func TestDashboardLowStockAndOpenTaskCounts(t *testing.T) {
	e := seedShelfWarehouse(t, 7, 180, 2, 8)

	before := e.Dashboard()
	var shelfBefore types.DashboardLocationSummary
	for _, s := range before {
		if s.LocationID == "shelf-a" {
			shelfBefore = s
		}
	}
	if shelfBefore.LowStockCount != 0 || shelfBefore.OpenTaskCount != 0 {
		t.Fatalf("expected a fresh shelf with headroom to report zero low-stock/open tasks, got %+v", shelfBefore)
	}

	mustAccept(t, "sale 5", sale(e, "shelf-a", "SKU-NR-1", 5, ts(10)))

	after := e.Dashboard()
	var shelfAfter types.DashboardLocationSummary
	for _, s := range after {
		if s.LocationID == "shelf-a" {
			shelfAfter = s
		}
	}
	if shelfAfter.LowStockCount != 1 {
		t.Errorf("expected one low-stock rule at min, got %d", shelfAfter.LowStockCount)
	}
	if shelfAfter.OpenTaskCount != 1 {
		t.Errorf("expected one open task, got %d", shelfAfter.OpenTaskCount)
	}
}

// TestZoneDetailUnknownLocation confirms the read model reports a missing
// location explicitly rather than returning an empty-but-valid view.
func TestZoneDetailUnknownLocation(t *testing.T) {
	e := seedShelfWarehouse(t, 7, 180, 2, 8)

	if _, ok := e.ZoneDetail("does-not-exist"); ok {
		t.Fatalf("expected ZoneDetail to report an unknown location")
	}

	view, ok := e.ZoneDetail("shelf-a")
	if !ok {
		t.Fatalf("expected shelf-a to be found")
	}
	if view.LocationID != "shelf-a" {
		t.Errorf("expected LocationID shelf-a, got %q", view.LocationID)
	}
	if len(view.Inventory) == 0 {
		t.Errorf("expected at least one inventory row from the seeded ledger baseline")
	}
}

// TestTaskListFiltersByLocationAndStatus grounds spec.md §6's task list
// filter surface.
func TestTaskListFiltersByLocationAndStatus(t *testing.T) {
	e := seedShelfWarehouse(t, 7, 180, 2, 8)
	mustAccept(t, "sale 5", sale(e, "shelf-a", "SKU-NR-1", 5, ts(10)))

	all := e.TaskList(types.TaskListFilter{})
	if len(all) != 1 {
		t.Fatalf("expected one task overall, got %d", len(all))
	}

	loc := "warehouse"
	byLoc := e.TaskList(types.TaskListFilter{LocationID: &loc})
	if len(byLoc) != 0 {
		t.Fatalf("expected zero tasks filtered to warehouse (task lives at shelf-a), got %d", len(byLoc))
	}

	shelf := "shelf-a"
	byShelf := e.TaskList(types.TaskListFilter{LocationID: &shelf})
	if len(byShelf) != 1 {
		t.Fatalf("expected one task filtered to shelf-a, got %d", len(byShelf))
	}

	status := string(domain.TaskAssigned)
	byStatus := e.TaskList(types.TaskListFilter{Status: &status})
	if len(byStatus) != 1 {
		t.Fatalf("expected one ASSIGNED task (auto-assigned at creation), got %d", len(byStatus))
	}

	wrongStatus := string(domain.TaskConfirmed)
	byWrongStatus := e.TaskList(types.TaskListFilter{Status: &wrongStatus})
	if len(byWrongStatus) != 0 {
		t.Fatalf("expected zero CONFIRMED tasks, got %d", len(byWrongStatus))
	}
}

// TestReceivingListOrdersNewestFirst grounds spec.md §6: receiving orders
// surface most-recent-first.
func TestReceivingListOrdersNewestFirst(t *testing.T) {
	e := newTestEngine(15*time.Second, 300*time.Second)
	d := Dataset{
		Locations: []DatasetLocation{
			{ID: "shelf-e", Name: "Shelf E", IsSalesLocation: true},
			{ID: "external-vendor", Name: "Vendor", IsSalesLocation: false},
		},
		SKUs: []DatasetSKU{
			{ID: "SKU-NR-3", Source: "NON_RFID", Title: "Plain Beanie"},
		},
		Baselines: []DatasetLedgerBaseline{
			{LocationID: "shelf-e", SKUID: "SKU-NR-3", Qty: 5, At: ts(0)},
		},
	}
	if err := e.Seed(d, ts(0)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first := e.CreateReceivingOrder(types.CreateReceivingOrderCmd{
		SourceLocationID: "external-vendor", DestinationLocationID: "shelf-e",
		SKUID: "SKU-NR-3", SourceType: "NON_RFID", RequestedQty: 3, Timestamp: ts(10),
	})
	if first.Status != types.StatusAccepted {
		t.Fatalf("expected first receiving order accepted, got %s", first.Status)
	}
	second := e.CreateReceivingOrder(types.CreateReceivingOrderCmd{
		SourceLocationID: "external-vendor", DestinationLocationID: "shelf-e",
		SKUID: "SKU-NR-3", SourceType: "NON_RFID", RequestedQty: 4, Timestamp: ts(20),
	})
	if second.Status != types.StatusAccepted {
		t.Fatalf("expected second receiving order accepted, got %s", second.Status)
	}

	list := e.ReceivingList()
	if len(list) != 2 {
		t.Fatalf("expected two receiving orders, got %d", len(list))
	}
	if list[0].ID != second.ReceivingOrderID {
		t.Fatalf("expected the most recently created order first, got %q", list[0].ID)
	}
}

// TestMetricsSnapshotTracksAcceptedCommands grounds spec.md §6/§7: the
// metrics view's accepted-command counter rises after an accepted command.
func TestMetricsSnapshotTracksAcceptedCommands(t *testing.T) {
	e := seedShelfWarehouse(t, 7, 180, 2, 8)

	before := e.MetricsSnapshot()
	mustAccept(t, "sale 1", sale(e, "shelf-a", "SKU-NR-1", 1, ts(10)))
	after := e.MetricsSnapshot()

	if after.CommandsAccepted <= before.CommandsAccepted {
		t.Fatalf("expected CommandsAccepted to increase, before=%d after=%d", before.CommandsAccepted, after.CommandsAccepted)
	}
}
