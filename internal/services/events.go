package services

import (
	"github.com/diewo77/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// Events lets a presentation collaborator observe lifecycle transitions
// without the engines depending on any dispatch mechanism. Hooks run after
// the transaction commits; the zero value is a no-op.
type Events struct {
	OrderStatusChanged func(orderID uint, from, to models.OrderStatus)
	PaymentRecorded    func(invoiceID uint, amount decimal.Decimal, status models.InvoiceStatus)
}

func (e Events) orderStatusChanged(orderID uint, from, to models.OrderStatus) {
	if e.OrderStatusChanged != nil {
		e.OrderStatusChanged(orderID, from, to)
	}
}

func (e Events) paymentRecorded(invoiceID uint, amount decimal.Decimal, status models.InvoiceStatus) {
	if e.PaymentRecorded != nil {
		e.PaymentRecorded(invoiceID, amount, status)
	}
}
