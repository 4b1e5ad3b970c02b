package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment tied to invoices. Inserting a payment and updating its parent
// invoice's amount/status is one atomic unit (see services.InvoiceService).
type Payment struct {
	ID              uint            `gorm:"primaryKey"`
	InvoiceID       uint            `gorm:"not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentDate     time.Time       `gorm:"not null"`
	Method          string          `gorm:"size:100;not null"`
	ReferenceNumber string          `gorm:"size:200"`
	Notes           string          `gorm:"size:500"`
	CreatedAt       time.Time
}
