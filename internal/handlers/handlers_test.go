package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Customer{}, &models.Product{},
		&models.Order{}, &models.OrderItem{},
		&models.Invoice{}, &models.InvoiceItem{},
		&models.Payment{}, &models.NumberSequence{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func handlerTestConfig() config.Config {
	return config.Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.RequireFromString("100.00"),
		ShippingFee:           decimal.RequireFromString("15.99"),
		InvoiceDueDays:        30,
		DeliveryLeadDays:      3,
	}
}

// newTestRouter registers every handler the way the HTTP server does.
func newTestRouter(db *gorm.DB) chi.Router {
	cfg := handlerTestConfig()
	log := zerolog.Nop()
	r := chi.NewRouter()
	customers := services.NewCustomerService(db, log)
	products := services.NewProductService(db, log)
	orders := services.NewOrderService(db, cfg, log)
	invoices := services.NewInvoiceService(db, cfg, log)
	dashboard := services.NewDashboardService(db, log)
	r.Route("/api/v1", func(r chi.Router) {
		NewCustomerHandler(customers).Register(r)
		NewProductHandler(products).Register(r)
		NewOrderHandler(orders, invoices).Register(r)
		NewInvoiceHandler(invoices).Register(r)
		NewDashboardHandler(dashboard).Register(r)
	})
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedViaAPI(t *testing.T, r chi.Router) (customerID, productID uint) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/customers",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var c models.Customer
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode customer: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","sku":"WD-001","price":"25.00","cost_price":"10.00","stock_quantity":50,"minimum_stock":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var p models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return c.ID, p.ID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)
	customerID, productID := seedViaAPI(t, r)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":2}]}`, customerID, productID)
	w := doJSON(t, r, http.MethodPost, "/api/v1/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	// 50 + 4 tax + 15.99 shipping
	if !order.TotalAmount.Equal(decimal.RequireFromString("69.99")) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get order: expected 200 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/status", order.ID), `{"status":"processing"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var updated models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated order: %v", err)
	}
	if updated.Status != models.OrderStatusProcessing {
		t.Fatalf("expected processing got %s", updated.Status)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/orders/?status=processing", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list orders: expected 200 got %d", w.Code)
	}
	var page struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 order got %d", page.Total)
	}
}

func TestOrderValidationErrorsOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)
	customerID, _ := seedViaAPI(t, r)

	// missing items
	w := doJSON(t, r, http.MethodPost, "/api/v1/orders", fmt.Sprintf(`{"customer_id":%d}`, customerID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Fatalf("expected validation_failed got %q", resp.Error)
	}
	if _, ok := resp.Fields["items"]; !ok {
		t.Fatalf("expected items field in %v", resp.Fields)
	}

	// malformed body
	w = doJSON(t, r, http.MethodPost, "/api/v1/orders", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}

	// unknown order
	w = doJSON(t, r, http.MethodGet, "/api/v1/orders/424242", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}

	// bad id
	w = doJSON(t, r, http.MethodGet, "/api/v1/orders/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestInvoicePaymentFlowOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)
	customerID, productID := seedViaAPI(t, r)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":2}]}`, customerID, productID)
	w := doJSON(t, r, http.MethodPost, "/api/v1/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d body=%s", w.Code, w.Body.String())
	}
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/invoice", order.ID), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d body=%s", w.Code, w.Body.String())
	}
	var inv models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode invoice: %v", err)
	}
	if !strings.HasPrefix(inv.InvoiceNumber, "INV-") {
		t.Fatalf("unexpected invoice number %q", inv.InvoiceNumber)
	}
	if !inv.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("invoice total %s != order total %s", inv.TotalAmount, order.TotalAmount)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/payments", inv.ID),
		`{"amount":"30.00","method":"credit_card"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add payment: %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d", inv.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get invoice: %d", w.Code)
	}
	var after models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode invoice: %v", err)
	}
	if after.Status != models.InvoiceStatusPartiallyPaid {
		t.Fatalf("expected partially_paid got %s", after.Status)
	}
	var derived struct {
		AmountDue       string `json:"amount_due"`
		PaymentProgress string `json:"payment_progress"`
		IsOverdue       bool   `json:"is_overdue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &derived); err != nil {
		t.Fatalf("decode derived fields: %v", err)
	}
	if derived.AmountDue != "39.99" {
		t.Fatalf("expected amount_due 39.99 got %q", derived.AmountDue)
	}
	if derived.PaymentProgress != "42.86" {
		t.Fatalf("expected payment_progress 42.86 got %q", derived.PaymentProgress)
	}
	if derived.IsOverdue {
		t.Fatalf("draft invoice must not read as overdue")
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d/payments", inv.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("list payments: %d", w.Code)
	}
	var payments []models.Payment
	if err := json.Unmarshal(w.Body.Bytes(), &payments); err != nil {
		t.Fatalf("decode payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment got %d", len(payments))
	}

	// derived statuses rejected over the wire too
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/invoices/%d/status", inv.ID), `{"status":"paid"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCustomerCRUDOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)

	w := doJSON(t, r, http.MethodPost, "/api/v1/customers",
		`{"first_name":"Grace","last_name":"Hopper","email":"grace@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", w.Code, w.Body.String())
	}
	var c models.Customer
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// duplicate email
	w = doJSON(t, r, http.MethodPost, "/api/v1/customers",
		`{"first_name":"Grace","last_name":"Again","email":"grace@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/customers/%d", c.ID),
		`{"first_name":"Grace","last_name":"Hopper","email":"grace@navy.example"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/customers/%d/stats", c.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/customers/%d", c.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	var del map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &del); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if !del["deleted"] {
		t.Fatalf("expected hard delete, got %v", del)
	}
}

func TestProductStockAndLowStockOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)
	_, productID := seedViaAPI(t, r)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/products/%d/stock", productID), `{"quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("stock: %d body=%s", w.Code, w.Body.String())
	}
	var p models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.StockQuantity != 2 {
		t.Fatalf("expected stock 2 got %d", p.StockQuantity)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/products/low-stock", "")
	if w.Code != http.StatusOK {
		t.Fatalf("low-stock: %d", w.Code)
	}
	var low []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &low); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(low) != 1 {
		t.Fatalf("expected 1 low stock product got %d", len(low))
	}

	// single-product view carries the derived margin and stock label
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get product: %d", w.Code)
	}
	var view struct {
		ProfitMargin string `json:"profit_margin"`
		StockStatus  string `json:"stock_status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode derived fields: %v", err)
	}
	if view.ProfitMargin != "60" {
		t.Fatalf("expected profit_margin 60 got %q", view.ProfitMargin)
	}
	if view.StockStatus != "low_stock" {
		t.Fatalf("expected low_stock got %q", view.StockStatus)
	}
}

func TestDashboardEndpointsOverHTTP(t *testing.T) {
	db := setupHandlerTestDB(t)
	r := newTestRouter(db)
	customerID, productID := seedViaAPI(t, r)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":1}]}`, customerID, productID)
	w := doJSON(t, r, http.MethodPost, "/api/v1/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	var stats struct {
		TotalOrders    int64  `json:"total_orders"`
		TotalCustomers int64  `json:"total_customers"`
		TotalRevenue   string `json:"total_revenue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalOrders != 1 || stats.TotalCustomers != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/revenue-series?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("revenue-series: %d", w.Code)
	}
	var points []struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if len(points) != 8 {
		t.Fatalf("expected 8 points got %d", len(points))
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/status-distribution", "")
	if w.Code != http.StatusOK {
		t.Fatalf("distribution: %d", w.Code)
	}
	var dist map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &dist); err != nil {
		t.Fatalf("decode distribution: %v", err)
	}
	if dist["pending"] != 1 {
		t.Fatalf("expected 1 pending got %v", dist)
	}
}
