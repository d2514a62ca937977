// Package types is the public contract between the engine and its
// collaborators (CLI, tests, any future UI): command inputs, typed command
// statuses, and read models. Nothing in this package mutates engine state;
// it is pure data, mirroring the teacher's pkg/types split from its
// internal engine packages.
package types

// Status is the discriminated result every engine command returns
// (spec.md §6, §7). Errors are values, never exceptions.
type Status string

const (
	StatusAccepted             Status = "accepted"
	StatusAcceptedRFIDImmediate Status = "accepted_rfid_immediate"
	StatusDuplicateIgnored     Status = "duplicate_ignored"
	StatusUnknownEPC           Status = "unknown_epc"
	StatusInvalidAntennaOrZone Status = "invalid_antenna_or_zone"
	StatusZoneNotFound         Status = "zone_not_found"
	StatusZoneExists           Status = "zone_exists"
	StatusZoneNotOrderable     Status = "zone_not_orderable"
	StatusInsufficientInventory Status = "insufficient_inventory"
	StatusInvalidMinMax        Status = "invalid_min_max"
	StatusZoneRequired         Status = "zone_required"
	StatusSKURequired          Status = "sku_required"
	StatusAlreadyInactive      Status = "already_inactive"
	StatusTaskNotOpen          Status = "task_not_open"
	StatusTaskNotFound         Status = "task_not_found"
	StatusStaffNotEligible     Status = "staff_not_eligible_for_zone"
	StatusStaffNotFound        Status = "staff_not_found"
	StatusNoInventoryMoved     Status = "no_inventory_moved"
	StatusConfirmedPartial     Status = "confirmed_partial"
	StatusConfirmed            Status = "confirmed"
	StatusOrderNotOpen         Status = "order_not_open"
	StatusOrderNotFound        Status = "order_not_found"
	StatusSourceMismatch       Status = "source_mismatch"
	StatusSourceEqualsDestination Status = "source_equals_destination"
	StatusInvalidQty           Status = "invalid_qty"
	StatusBasketItemNotFound   Status = "basket_item_not_found"
	StatusCustomerNotFound     Status = "customer_not_found"
)

// Result is the envelope every command returns: a status plus whatever
// optional payload that status carries (spec.md §7's "partial success is
// distinct from outright failure" point).
type Result struct {
	Status Status `json:"status"`

	// Populated for StatusInsufficientInventory.
	AvailableQty *int `json:"availableQty,omitempty"`

	// Populated on success for commands that create or mutate an entity.
	TaskID           string `json:"taskId,omitempty"`
	ReceivingOrderID string `json:"receivingOrderId,omitempty"`
	BasketItemID     string `json:"basketItemId,omitempty"`
	RuleID           string `json:"ruleId,omitempty"`
	TemplateID       string `json:"templateId,omitempty"`

	// Populated on StatusConfirmed / StatusConfirmedPartial.
	ConfirmedQty *int `json:"confirmedQty,omitempty"`
}

// Ok builds a bare accepted-style result.
func Ok(status Status) Result { return Result{Status: status} }
