package domain

import "time"

// ReceivingOrderStatus is the inbound order's state machine (spec.md §4.8).
type ReceivingOrderStatus string

const (
	ReceivingInTransit ReceivingOrderStatus = "IN_TRANSIT"
	ReceivingConfirmed ReceivingOrderStatus = "CONFIRMED"
	ReceivingCancelled ReceivingOrderStatus = "CANCELLED"
)

// ReceivingOrder moves stock into a non-sales location (or any location,
// for an external origin) outside the task/staff pick flow.
type ReceivingOrder struct {
	ID                   string
	SourceLocationID     string // internal Location id or external-* id
	DestinationLocationID string
	SKUID                string
	Source               Source
	RequestedQty         int
	ConfirmedQty         int
	Status               ReceivingOrderStatus

	AssignedStaffID *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
}
