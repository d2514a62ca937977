package types

import "time"

// IngestRFIDReadCmd carries one antenna read (spec.md §6).
type IngestRFIDReadCmd struct {
	EPC        string    `json:"epc" validate:"required"`
	AntennaID  string    `json:"antennaId" validate:"required"`
	LocationID string    `json:"locationId" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
	RSSI       *float64  `json:"rssi,omitempty"`
}

// ForceZoneSweepCmd refreshes presence for every EPC currently present at a
// location (within the presence TTL) without changing their binding
// (spec.md §4.3).
type ForceZoneSweepCmd struct {
	LocationID string    `json:"locationId" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// SalesEventType distinguishes a sale from a return.
type SalesEventType string

const (
	EventSale   SalesEventType = "SALE"
	EventReturn SalesEventType = "RETURN"
)

// IngestSalesEventCmd carries a POS sale or return (spec.md §4.10).
type IngestSalesEventCmd struct {
	SKUID      string         `json:"skuId" validate:"required"`
	LocationID string         `json:"locationId" validate:"required"`
	EventType  SalesEventType `json:"eventType" validate:"required,oneof=SALE RETURN"`
	Qty        int            `json:"qty" validate:"required,gt=0"`
	Timestamp  time.Time      `json:"timestamp" validate:"required"`
}

// AddCustomerItemCmd reserves stock into a customer's in-flight cart
// (spec.md §4.10).
type AddCustomerItemCmd struct {
	CustomerID string    `json:"customerId" validate:"required"`
	LocationID string    `json:"locationId" validate:"required"`
	SKUID      string    `json:"skuId" validate:"required"`
	Qty        int       `json:"qty" validate:"required,gt=0"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// RemoveCustomerItemCmd cancels (or partially unwinds) a cart line.
type RemoveCustomerItemCmd struct {
	BasketItemID string    `json:"basketItemId" validate:"required"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
}

// CheckoutCustomerCmd finalizes every IN_CART item for a customer.
type CheckoutCustomerCmd struct {
	CustomerID string    `json:"customerId" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// UpsertRuleTemplateCmd creates or updates a rule template (spec.md §3,
// §4.5, §6). Selector/scope-specific fields are validated by the engine
// (not purely by struct tags) because their requiredness is conditional.
type UpsertRuleTemplateCmd struct {
	ID         string `json:"id"`
	Scope      string `json:"scope" validate:"required,oneof=GENERIC LOCATION"`
	LocationID string `json:"locationId"`
	Selector   string `json:"selector" validate:"required,oneof=SKU ATTRIBUTES"`
	SKUID      string `json:"skuId"`

	AttrKit      *string `json:"attrKit,omitempty"`
	AttrAgeGroup *string `json:"attrAgeGroup,omitempty"`
	AttrGender   *string `json:"attrGender,omitempty"`
	AttrRole     *string `json:"attrRole,omitempty"`
	AttrQuality  *string `json:"attrQuality,omitempty"`

	SourceType      string `json:"source" validate:"required,oneof=RFID NON_RFID"`
	Min             int    `json:"min" validate:"gte=0"`
	Max             int    `json:"max" validate:"gte=0"`
	Priority        int    `json:"priority"`
	InboundSourceID string `json:"inboundSourceId,omitempty"`

	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// DeleteRuleTemplateCmd soft-deletes a template and triggers reprojection.
type DeleteRuleTemplateCmd struct {
	TemplateID string    `json:"templateId" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// AssignTaskCmd explicitly assigns a staff member to a task.
type AssignTaskCmd struct {
	TaskID    string    `json:"taskId" validate:"required"`
	StaffID   string    `json:"staffId" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// StartTaskCmd begins work on a task.
type StartTaskCmd struct {
	TaskID    string    `json:"taskId" validate:"required"`
	StaffID   string    `json:"staffId" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// ConfirmTaskCmd closes out a task's transfer (spec.md §4.9).
type ConfirmTaskCmd struct {
	TaskID         string    `json:"taskId" validate:"required"`
	ConfirmedQty   int       `json:"confirmedQty" validate:"required,gt=0"`
	ConfirmedBy    string    `json:"confirmedBy" validate:"required"`
	SourceZoneID   string    `json:"sourceZoneId,omitempty"`
	Timestamp      time.Time `json:"timestamp" validate:"required"`
}

// CreateReceivingOrderCmd opens an inbound order (spec.md §4.8).
type CreateReceivingOrderCmd struct {
	SourceLocationID      string    `json:"sourceLocationId" validate:"required"`
	DestinationLocationID string    `json:"destinationLocationId" validate:"required"`
	SKUID                 string    `json:"skuId" validate:"required"`
	SourceType            string    `json:"source" validate:"required,oneof=RFID NON_RFID"`
	RequestedQty          int       `json:"requestedQty" validate:"required,gt=0"`
	Timestamp             time.Time `json:"timestamp" validate:"required"`
}

// ConfirmReceivingOrderCmd closes out a receiving order's transfer.
type ConfirmReceivingOrderCmd struct {
	OrderID   string    `json:"orderId" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// UpsertLocationCmd creates or updates a Location (CRUD surface, spec.md §6).
type UpsertLocationCmd struct {
	ID               string     `json:"id" validate:"required"`
	Name             string     `json:"name"`
	Polygon          [][2]float64 `json:"polygon,omitempty"`
	Color            string     `json:"color,omitempty"`
	IsSalesLocation  bool       `json:"isSalesLocation"`
	ReplenishSources []string   `json:"replenishSources,omitempty"`
	Timestamp        time.Time  `json:"timestamp" validate:"required"`
}

// DeleteLocationSourceCmd removes one replenishment source from a location,
// cancelling open tasks that pointed at it (spec.md §3).
type DeleteLocationSourceCmd struct {
	LocationID string    `json:"locationId" validate:"required"`
	SourceID   string    `json:"sourceId" validate:"required"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
}

// UpsertStaffCmd creates, updates shift state, or zone scope for a staff
// member.
type UpsertStaffCmd struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name"`
	Role      string   `json:"role" validate:"required,oneof=ASSOCIATE SUPERVISOR"`
	OnShift   bool     `json:"onShift"`
	ZoneScope []string `json:"zoneScope,omitempty"` // empty => all
}

// RegisterEPCMappingCmd binds an EPC to a SKU for a time window, used by
// seed loading and by the replayed registerEPCMapping command.
type RegisterEPCMappingCmd struct {
	EPC        string    `json:"epc" validate:"required"`
	SKUID      string    `json:"skuId" validate:"required"`
	ActiveFrom time.Time `json:"activeFrom" validate:"required"`
}
