package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	// A checkout attempt that reached the gateway but has no confirmation yet.
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"

	// Terminal statuses. Once an order reaches one of these it never leaves it.
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether s has no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled || s == OrderStatusFailed
}

type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
)

// ShippingAddress is embedded in Order; the fields are snapshotted from the
// checkout form, not referenced back to the user profile.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderRef       string          `gorm:"uniqueIndex;not null" json:"order_ref"`
	UserID         string          `gorm:"index;not null" json:"user_id"`
	User           User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status         OrderStatus     `gorm:"type:VARCHAR(20);default:'awaiting_payment'" json:"status"`
	PaymentStatus  PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	Subtotal       float64         `json:"subtotal"`
	Discount       float64         `json:"discount"`
	ShippingFee    float64         `json:"shipping_fee"`
	TotalAmount    float64         `json:"total_amount"`
	DeliveryMethod DeliveryMethod  `gorm:"type:VARCHAR(20)" json:"delivery_method"`
	Shipping       ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping"`
	PaymentReceipt string          `json:"payment_receipt"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line at finalization time. UnitPrice is
// the discounted price copied from the product, so later catalog edits do
// not change historical orders.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderID     uint    `gorm:"index" json:"order_id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}
