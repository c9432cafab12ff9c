package model

// Alert is a backend alert record returned by the alert query endpoint.
type Alert struct {
	AlertID   string    `json:"alert_id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
	Status    string    `json:"status"`
	Severity  string    `json:"severity"`
}

// Supply statuses reported by the backend.
const (
	SupplyStatusLowStock = "low_stock"
	SupplyStatusNormal   = "normal"
)

// Supply is a tracked medical supply line.
type Supply struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	CurrentStock      int        `json:"current_stock"`
	ThresholdQuantity int        `json:"threshold_quantity"`
	ExpiryDate        *Timestamp `json:"expiry_date"`
	SupplierID        string     `json:"supplier_id"`
	SupplierName      string     `json:"supplier_name"`
	Unit              string     `json:"unit"`
	Status            string     `json:"status"`
}

// Purchase order lifecycle states. Transitions are owned by the backend.
const (
	OrderPending   = "pending"
	OrderSent      = "sent"
	OrderConfirmed = "confirmed"
	OrderReceived  = "received"
	OrderCancelled = "cancelled"
)

// PurchaseOrder is a replenishment order raised against a supplier.
type PurchaseOrder struct {
	OrderID       string     `json:"order_id"`
	ItemID        string     `json:"item_id"`
	ItemName      string     `json:"item_name"`
	Quantity      int        `json:"quantity"`
	SupplierID    string     `json:"supplier_id"`
	SupplierName  string     `json:"supplier_name"`
	SupplierEmail *string    `json:"supplier_email"`
	Status        string     `json:"status"`
	CreatedAt     Timestamp  `json:"created_at"`
	SentAt        *Timestamp `json:"sent_at"`
	ConfirmedAt   *Timestamp `json:"confirmed_at"`
	ReceivedAt    *Timestamp `json:"received_at"`
	Notes         *string    `json:"notes"`
	UnitPrice     *float64   `json:"unit_price"`
	TotalAmount   *float64   `json:"total_amount"`
}

// Supplier is a vendor that fulfils purchase orders.
type Supplier struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	Address              *string `json:"address"`
	DefaultOrderQuantity int     `json:"default_order_quantity"`
	MinimumOrderQuantity int     `json:"minimum_order_quantity"`
	LeadTimeDays         int     `json:"lead_time_days"`
}
