package services

import (
	"testing"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeOrderTotalsBelowFreeShipping(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, UnitPrice: d("25.00")},
		{Quantity: 1, UnitPrice: d("20.00")},
	}
	totals := ComputeOrderTotals(items, decimal.Zero, testConfig())

	require.True(t, totals.Subtotal.Equal(d("70.00")), "subtotal %s", totals.Subtotal)
	require.True(t, totals.TaxAmount.Equal(d("5.60")), "tax %s", totals.TaxAmount)
	require.True(t, totals.ShippingCost.Equal(d("15.99")), "shipping %s", totals.ShippingCost)
	require.True(t, totals.TotalAmount.Equal(d("91.59")), "total %s", totals.TotalAmount)
}

func TestComputeOrderTotalsFreeShippingAboveThreshold(t *testing.T) {
	items := []models.OrderItem{{Quantity: 3, UnitPrice: d("50.00")}}
	totals := ComputeOrderTotals(items, decimal.Zero, testConfig())

	require.True(t, totals.Subtotal.Equal(d("150.00")))
	require.True(t, totals.ShippingCost.IsZero(), "shipping %s", totals.ShippingCost)
	require.True(t, totals.TotalAmount.Equal(d("162.00")), "total %s", totals.TotalAmount)
}

func TestComputeOrderTotalsExactThresholdStillShips(t *testing.T) {
	// waiver requires strictly greater than the threshold
	items := []models.OrderItem{{Quantity: 1, UnitPrice: d("100.00")}}
	totals := ComputeOrderTotals(items, decimal.Zero, testConfig())
	require.True(t, totals.ShippingCost.Equal(d("15.99")))
}

func TestComputeOrderTotalsDiscountCappedAtSubtotal(t *testing.T) {
	items := []models.OrderItem{{Quantity: 1, UnitPrice: d("30.00")}}
	totals := ComputeOrderTotals(items, d("500.00"), testConfig())

	require.True(t, totals.DiscountAmount.Equal(d("30.00")), "discount %s", totals.DiscountAmount)
	// 30 + 2.40 tax + 15.99 shipping - 30 discount
	require.True(t, totals.TotalAmount.Equal(d("18.39")), "total %s", totals.TotalAmount)
}

func TestComputeOrderTotalsEmptyItems(t *testing.T) {
	totals := ComputeOrderTotals(nil, decimal.Zero, testConfig())
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.TotalAmount.Equal(d("15.99")), "total is just shipping, got %s", totals.TotalAmount)
}

func TestComputeInvoiceTotalsHasNoShipping(t *testing.T) {
	items := []models.InvoiceItem{{Quantity: 2, UnitPrice: d("25.00")}}
	totals := ComputeInvoiceTotals(items, decimal.Zero, testConfig())
	require.True(t, totals.TotalAmount.Equal(d("54.00")), "total %s", totals.TotalAmount)
}

func TestTaxRounding(t *testing.T) {
	// 33.33 * 0.08 = 2.6664, rounds to 2.67
	items := []models.OrderItem{{Quantity: 1, UnitPrice: d("33.33")}}
	totals := ComputeOrderTotals(items, decimal.Zero, testConfig())
	require.True(t, totals.TaxAmount.Equal(d("2.67")), "tax %s", totals.TaxAmount)
}

func TestAmountDueAllowsNegative(t *testing.T) {
	due := AmountDue(d("100.00"), d("120.00"))
	require.True(t, due.Equal(d("-20.00")))
}

func TestPaymentProgress(t *testing.T) {
	require.True(t, PaymentProgress(d("200.00"), d("50.00")).Equal(d("25")))
	require.True(t, PaymentProgress(decimal.Zero, d("50.00")).IsZero())
}

func TestInvoiceOverdueDerivation(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	require.True(t, InvoiceOverdue(models.InvoiceStatusSent, past, now))
	require.False(t, InvoiceOverdue(models.InvoiceStatusSent, future, now))
	require.False(t, InvoiceOverdue(models.InvoiceStatusPaid, past, now))
	require.False(t, InvoiceOverdue(models.InvoiceStatusDraft, past, now))
}

func TestOrderOverdueDerivation(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	require.True(t, OrderOverdue(models.OrderStatusProcessing, &past, now))
	require.False(t, OrderOverdue(models.OrderStatusShipped, &past, now))
	require.False(t, OrderOverdue(models.OrderStatusProcessing, nil, now))
}

func TestProfitMargin(t *testing.T) {
	require.True(t, ProfitMargin(d("100.00"), d("60.00")).Equal(d("40")))
	require.True(t, ProfitMargin(decimal.Zero, d("60.00")).IsZero())
}

func TestStockStatus(t *testing.T) {
	require.Equal(t, "out_of_stock", StockStatus(0, 5))
	require.Equal(t, "low_stock", StockStatus(5, 5))
	require.Equal(t, "in_stock", StockStatus(6, 5))
}
