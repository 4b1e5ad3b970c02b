package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoicing models. An invoice either stands alone or snapshots an order:
// item descriptions and prices are frozen at creation time, not live-joined.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID                 uint            `gorm:"primaryKey"`
	InvoiceNumber      string          `gorm:"size:50;not null;uniqueIndex"`
	CustomerID         uint            `gorm:"not null;index"`
	OrderID            *uint           `gorm:"index"`
	InvoiceDate        time.Time       `gorm:"not null;index"`
	DueDate            time.Time       `gorm:"not null"`
	Status             InvoiceStatus   `gorm:"size:20;not null;default:'draft';index"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AmountPaid         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidDate           *time.Time
	PaymentMethod      string `gorm:"size:100"`
	PaymentReference   string `gorm:"size:200"`
	TermsAndConditions string `gorm:"size:1000"`
	Notes              string `gorm:"size:1000"`
	Items              []InvoiceItem `gorm:"foreignKey:InvoiceID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey"`
	InvoiceID   uint            `gorm:"not null;index"`
	ProductID   uint            `gorm:"not null;index"`
	Description string          `gorm:"size:200;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}
