package services

import (
	"time"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// Pure money arithmetic for the order/invoice lifecycle. Everything here is
// a function of explicit inputs so the rules stay testable without a store.

var oneHundred = decimal.NewFromInt(100)

// LineTotal is quantity × unit price for one order/invoice item.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

type OrderTotals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeOrderTotals recomputes every money field of an order from its items.
// Tax is a flat policy rate on the subtotal, shipping is waived above the
// free-shipping threshold, and the discount is capped at the subtotal.
func ComputeOrderTotals(items []models.OrderItem, discount decimal.Decimal, cfg config.Config) OrderTotals {
	t := OrderTotals{
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		ShippingCost:   decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(LineTotal(it.Quantity, it.UnitPrice))
	}
	t.TaxAmount = t.Subtotal.Mul(cfg.TaxRate).Round(2)
	if t.Subtotal.GreaterThan(cfg.FreeShippingThreshold) {
		t.ShippingCost = decimal.Zero
	} else {
		t.ShippingCost = cfg.ShippingFee
	}
	if discount.IsPositive() {
		if discount.GreaterThan(t.Subtotal) {
			discount = t.Subtotal
		}
		t.DiscountAmount = discount
	}
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount).Add(t.ShippingCost).Sub(t.DiscountAmount)
	return t
}

type InvoiceTotals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeInvoiceTotals mirrors ComputeOrderTotals without shipping.
func ComputeInvoiceTotals(items []models.InvoiceItem, discount decimal.Decimal, cfg config.Config) InvoiceTotals {
	t := InvoiceTotals{
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(LineTotal(it.Quantity, it.UnitPrice))
	}
	t.TaxAmount = t.Subtotal.Mul(cfg.TaxRate).Round(2)
	if discount.IsPositive() {
		if discount.GreaterThan(t.Subtotal) {
			discount = t.Subtotal
		}
		t.DiscountAmount = discount
	}
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount).Sub(t.DiscountAmount)
	return t
}

// AmountDue is total minus amount paid. Negative when overpaid; payment
// application does not clamp (see InvoiceService.AddPayment).
func AmountDue(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

// PaymentProgress returns paid/total as a percentage, 0 for a zero total.
func PaymentProgress(total, paid decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return paid.Div(total).Mul(oneHundred).Round(2)
}

// InvoiceOverdue is a derived state: a sent invoice past its due date.
// Stored status is never flipped to overdue.
func InvoiceOverdue(status models.InvoiceStatus, dueDate, now time.Time) bool {
	return status == models.InvoiceStatusSent && dueDate.Before(now)
}

// OrderOverdue reports a processing order past its expected delivery date.
func OrderOverdue(status models.OrderStatus, expectedDelivery *time.Time, now time.Time) bool {
	return status == models.OrderStatusProcessing &&
		expectedDelivery != nil && expectedDelivery.Before(now)
}

// ProfitMargin is (price − cost) / price as a percentage, 0 when price is 0.
func ProfitMargin(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(oneHundred).Round(2)
}

// LowStock reports whether quantity has fallen to the minimum stock level.
func LowStock(quantity, minimum int) bool { return quantity <= minimum }

// StockStatus labels the stock level for display.
func StockStatus(quantity, minimum int) string {
	switch {
	case quantity <= 0:
		return "out_of_stock"
	case LowStock(quantity, minimum):
		return "low_stock"
	default:
		return "in_stock"
	}
}
