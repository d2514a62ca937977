package engine

import (
	"testing"
	"time"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

func seedPersonalisationScenario(t *testing.T) *Engine {
	e := newTestEngine(15*time.Second, 300*time.Second)
	d := Dataset{
		Locations: []DatasetLocation{
			{ID: "shelf-c", Name: "Shelf C", IsSalesLocation: true},
			{ID: domain.LocationCashierStorage, Name: "Cashier Storage", IsSalesLocation: false},
			{ID: domain.LocationPrintingWall, Name: "Printing Wall", IsSalesLocation: false},
		},
		SKUs: []DatasetSKU{
			{ID: "SKU-JERSEY-1", Source: "RFID", Title: "Home Jersey", Role: "player"},
		},
		Antennas: []DatasetAntenna{
			{ID: "ant-shelf-c", LocationID: "shelf-c"},
			{ID: "ant-cashier", LocationID: domain.LocationCashierStorage},
		},
		EPCs: []DatasetEPC{
			{EPC: "EPC-J1", SKUID: "SKU-JERSEY-1", ActiveFrom: ts(0)},
		},
	}
	if err := e.Seed(d, ts(0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mustAccept(t, "read the single jersey onto the shelf", e.IngestRFIDRead(types.IngestRFIDReadCmd{
		EPC: "EPC-J1", AntennaID: "ant-shelf-c", LocationID: "shelf-c", Timestamp: ts(10),
	}))
	return e
}

// TestPersonalisationLastUnit grounds spec.md §8 scenario S5: a single
// "player" jersey on a shelf with no inbound, once sold, moves to
// cashier-storage and generates a replacement task routed to printing-wall
// because its projected supply is zero.
func TestPersonalisationLastUnit(t *testing.T) {
	e := seedPersonalisationScenario(t)

	add := e.AddCustomerItem(types.AddCustomerItemCmd{CustomerID: "cust-1", LocationID: "shelf-c", SKUID: "SKU-JERSEY-1", Qty: 1, Timestamp: ts(20)})
	if add.Status != types.StatusAccepted {
		t.Fatalf("expected cart add to succeed, got %s", add.Status)
	}
	basketItemID := add.BasketItemID

	mustAccept(t, "checkout", e.CheckoutCustomer(types.CheckoutCustomerCmd{CustomerID: "cust-1", Timestamp: ts(30)}))

	e.mu.Lock()
	item := e.basketItems[basketItemID]
	e.mu.Unlock()
	if item.Status != domain.BasketSold {
		t.Fatalf("expected basket item SOLD, got %s", item.Status)
	}

	cashierQty := rfidQty(e, domain.LocationCashierStorage, "SKU-JERSEY-1")
	shelfQty := rfidQty(e, "shelf-c", "SKU-JERSEY-1")
	if shelfQty != 0 {
		t.Errorf("expected shelf-c to be at 0 after the sale, got %d", shelfQty)
	}
	if cashierQty != 1 {
		// The unit physically sits in cashier-storage until the
		// replacement task's transfer is confirmed; checkout only moves
		// presence and opens the task, it doesn't execute the transfer.
		t.Errorf("expected the unit to be sitting in cashier-storage, got qty %d", cashierQty)
	}

	open := openTasksAt(e, domain.LocationPrintingWall)
	if len(open) != 1 {
		t.Fatalf("expected one replacement task at printing-wall, got %d", len(open))
	}
	task := open[0]
	if task.DeficitQty != 1 || task.TargetQty != 1 {
		t.Errorf("expected a single-unit replacement task, got deficit=%d target=%d", task.DeficitQty, task.TargetQty)
	}
	if task.SelectedSourceID != domain.LocationCashierStorage {
		t.Errorf("expected source cashier-storage, got %q", task.SelectedSourceID)
	}
}

// TestReservationSafety grounds spec.md §8 property 9: addCustomerItem only
// succeeds while qty <= current-reserved, and a successful add reduces
// current-reserved by exactly qty.
func TestReservationSafety(t *testing.T) {
	e := newTestEngine(15*time.Second, 300*time.Second)
	d := Dataset{
		Locations: []DatasetLocation{
			{ID: "shelf-d", Name: "Shelf D", IsSalesLocation: true, ReplenishSources: []string{"warehouse"}},
			{ID: "warehouse", Name: "Warehouse", IsSalesLocation: false},
		},
		SKUs: []DatasetSKU{
			{ID: "SKU-NR-2", Source: "NON_RFID", Title: "Plain Scarf"},
		},
		Baselines: []DatasetLedgerBaseline{
			{LocationID: "shelf-d", SKUID: "SKU-NR-2", Qty: 5, At: ts(0)},
		},
		Templates: []DatasetTemplate{
			{ID: "tpl-shelf-d", Scope: "LOCATION", LocationID: "shelf-d", Selector: "SKU", SKUID: "SKU-NR-2", SourceType: "NON_RFID", Min: 0, Max: 5, Priority: 10},
		},
	}
	if err := e.Seed(d, ts(0)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	availableBefore := func() int {
		e.mu.Lock()
		defer e.mu.Unlock()
		current := e.snapshotQtyFor("shelf-d", "SKU-NR-2", domain.SourceNonRFID)
		reserved := e.reservedForSale("shelf-d", "SKU-NR-2", domain.SourceNonRFID)
		return current - reserved
	}

	start := availableBefore()
	if start != 5 {
		t.Fatalf("expected 5 available before any reservation, got %d", start)
	}

	ok := e.AddCustomerItem(types.AddCustomerItemCmd{CustomerID: "cust-2", LocationID: "shelf-d", SKUID: "SKU-NR-2", Qty: 3, Timestamp: ts(10)})
	if ok.Status != types.StatusAccepted {
		t.Fatalf("expected qty 3 <= available 5 to succeed, got %s", ok.Status)
	}
	if after := availableBefore(); after != start-3 {
		t.Fatalf("expected available to drop by exactly 3 (to %d), got %d", start-3, after)
	}

	tooMany := e.AddCustomerItem(types.AddCustomerItemCmd{CustomerID: "cust-3", LocationID: "shelf-d", SKUID: "SKU-NR-2", Qty: 3, Timestamp: ts(20)})
	if tooMany.Status != types.StatusInsufficientInventory {
		t.Fatalf("expected qty 3 > available 2 to be rejected, got %s", tooMany.Status)
	}
	if tooMany.AvailableQty == nil || *tooMany.AvailableQty != 2 {
		t.Fatalf("expected reported availableQty 2, got %v", tooMany.AvailableQty)
	}
}
