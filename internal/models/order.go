package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order and its line items. Unit prices are captured from the product at
// order time; totals are recomputed from items by the lifecycle engine and
// never derived from live product rows.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type Order struct {
	ID                   uint            `gorm:"primaryKey"`
	OrderNumber          string          `gorm:"size:50;not null;uniqueIndex"`
	CustomerID           uint            `gorm:"not null;index"`
	OrderDate            time.Time       `gorm:"not null;index"`
	Status               OrderStatus     `gorm:"size:20;not null;default:'pending';index"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingCost         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingAddress      string          `gorm:"size:500"`
	BillingAddress       string          `gorm:"size:500"`
	PaymentMethod        string          `gorm:"size:100"`
	Notes                string          `gorm:"size:1000"`
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Items                []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Notes     string          `gorm:"size:500"`
}
