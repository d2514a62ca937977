package domain

import "time"

// BasketItemStatus tracks a customer's cart line through checkout.
type BasketItemStatus string

const (
	BasketInCart  BasketItemStatus = "IN_CART"
	BasketSold    BasketItemStatus = "SOLD"
	BasketRemoved BasketItemStatus = "REMOVED"
)

// BasketItem is one reserved (and, for RFID, possibly partially picked)
// line in a customer's in-flight cart (spec.md §3, §4.10).
type BasketItem struct {
	ID                 string
	CustomerID         string
	LocationID         string
	SKUID              string
	Qty                int
	PickedConfirmedQty int
	Status             BasketItemStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PendingPick is a coroutine-style "resume on next read" record (spec.md
// §9): a plain struct reconciled on every RFID read and on checkout,
// rather than a suspended goroutine.
type PendingPick struct {
	BasketItemID string
	LocationID   string
	SKUID        string
	QtyRemaining int
	ConsumedEPCs []string
}
