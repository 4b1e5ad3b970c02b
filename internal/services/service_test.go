package services

import (
	"fmt"
	"testing"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB gives each test its own in-memory database so state never
// leaks across tests sharing the cache.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func testConfig() config.Config {
	return config.Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.RequireFromString("100.00"),
		ShippingFee:           decimal.RequireFromString("15.99"),
		InvoiceDueDays:        30,
		DeliveryLeadDays:      3,
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	t.Helper()
	svc := NewCustomerService(db, testLogger())
	c, err := svc.Create(CustomerInput{FirstName: "Test", LastName: "Customer", Email: email})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return *c
}

func seedProduct(t *testing.T, db *gorm.DB, sku, price string, stock int) models.Product {
	t.Helper()
	svc := NewProductService(db, testLogger())
	p, err := svc.Create(ProductInput{
		Name:          "Product " + sku,
		SKU:           sku,
		Price:         decimal.RequireFromString(price),
		CostPrice:     decimal.RequireFromString(price).Div(decimal.NewFromInt(2)).Round(2),
		StockQuantity: stock,
		MinimumStock:  5,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return *p
}
