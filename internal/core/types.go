package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field is a canonical order field that source headers resolve to.
type Field string

const (
	FieldExternalID       Field = "external_id"
	FieldOrderDate        Field = "order_date"
	FieldTrackingNumber   Field = "tracking_number"
	FieldStatus           Field = "status"
	FieldShippingType     Field = "shipping_type"
	FieldDestinationCity  Field = "destination_city"
	FieldDestinationState Field = "destination_state"
	FieldCarrierName      Field = "carrier_name"
	FieldLastMovement     Field = "last_movement"
	FieldLastMovementDate Field = "last_movement_date"
	FieldOrderValue       Field = "order_value"
	FieldShippingCost     Field = "shipping_cost"
	FieldProviderCost     Field = "provider_cost"
	FieldReturnCost       Field = "return_cost"
	FieldProfit           Field = "profit"
	FieldCustomerName     Field = "customer_name"
	FieldCustomerPhone    Field = "customer_phone"
	FieldCustomerAddress  Field = "customer_address"
	FieldCustomerCity     Field = "customer_city"
	FieldCustomerState    Field = "customer_state"
)

// RawRecord is one untyped row from an import. Keys are the column headers as
// they appear in the file, values are text, numbers, times or date serials.
type RawRecord map[string]any

// HeaderMap maps a source column header to the canonical field it carries.
type HeaderMap map[string]Field

// Customer holds the recipient data attached to an order.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// OrderRecord is the canonical shape of an imported row.
// Amounts are never NaN: missing or unparseable values are zero.
type OrderRecord struct {
	ExternalID       string              `json:"externalId"`
	OrderDate        string              `json:"orderDate"`
	TrackingNumber   string              `json:"trackingNumber"`
	Status           string              `json:"status"`
	ShippingType     string              `json:"shippingType"`
	DestinationCity  string              `json:"destinationCity"`
	DestinationState string              `json:"destinationState"`
	CarrierName      string              `json:"carrierName"`
	LastMovement     string              `json:"lastMovement"`
	LastMovementDate string              `json:"lastMovementDate"`
	OrderValue       decimal.Decimal     `json:"orderValue"`
	ShippingCost     decimal.Decimal     `json:"shippingCost"`
	ProviderCost     decimal.NullDecimal `json:"providerCost"`
	ReturnCost       decimal.Decimal     `json:"returnCost"`
	Profit           decimal.NullDecimal `json:"profit"`
	Customer         Customer            `json:"customer"`
	Extra            map[string]string   `json:"extra,omitempty"`
}

// Order is a record with its lifecycle state resolved.
type Order struct {
	OrderRecord
	Canonical CanonicalStatus `json:"canonicalStatus"`
}

// PersistedOrder is an order owned by a tenant.
type PersistedOrder struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`
	Order
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SyncAction is the outcome of reconciling one row.
type SyncAction string

const (
	ActionCreated   SyncAction = "created"
	ActionUpdated   SyncAction = "updated"
	ActionUnchanged SyncAction = "unchanged"
	ActionFailed    SyncAction = "failed"
)

// SyncDetail describes what happened to one row.
type SyncDetail struct {
	ExternalID string     `json:"externalId"`
	ID         string     `json:"id,omitempty"`
	Action     SyncAction `json:"action"`
	Error      string     `json:"error,omitempty"`
}

// SyncResult summarizes one reconciliation batch.
// Rows without an external id appear in no counter.
type SyncResult struct {
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Unchanged int          `json:"unchanged"`
	Failed    int          `json:"failed"`
	Details   []SyncDetail `json:"details"`
}

// Processed returns the number of rows that reached the gateway.
func (r SyncResult) Processed() int {
	return r.Created + r.Updated + r.Unchanged + r.Failed
}

// ImportRun records one import invocation for history listings.
type ImportRun struct {
	ID        uuid.UUID     `json:"id"`
	TenantID  uuid.UUID     `json:"tenantId"`
	Source    string        `json:"source"`
	FileName  string        `json:"fileName,omitempty"`
	TotalRows int           `json:"totalRows"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}
