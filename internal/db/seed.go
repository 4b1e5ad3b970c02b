package db

import (
	"fmt"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed loads a small demo dataset. Orders and invoices go through the
// services so number allocation and total computation run the real paths.
// It is a no-op when customers already exist.
func Seed(gdb *gorm.DB, cfg config.Config, log zerolog.Logger) error {
	var existing int64
	if err := gdb.Model(&models.Customer{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if existing > 0 {
		log.Info().Msg("seed skipped, customers already present")
		return nil
	}

	customerSvc := services.NewCustomerService(gdb, log)
	productSvc := services.NewProductService(gdb, log)
	orderSvc := services.NewOrderService(gdb, cfg, log)
	invoiceSvc := services.NewInvoiceService(gdb, cfg, log)

	customers := []services.CustomerInput{
		{FirstName: "Alice", LastName: "Martin", Email: "alice.martin@example.com", Phone: "+33612345601", City: "Lyon", Country: "France"},
		{FirstName: "Bruno", LastName: "Keita", Email: "bruno.keita@example.com", Phone: "+33612345602", City: "Paris", Country: "France"},
		{FirstName: "Chloe", LastName: "Dubois", Email: "chloe.dubois@example.com", Phone: "+33612345603", City: "Nantes", Country: "France"},
	}
	var customerIDs []uint
	for _, in := range customers {
		c, err := customerSvc.Create(in)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", in.Email, err)
		}
		customerIDs = append(customerIDs, c.ID)
	}

	products := []services.ProductInput{
		{Name: "Wireless Headphones", SKU: "WH-001", Price: decimal.RequireFromString("89.99"), CostPrice: decimal.RequireFromString("45.00"), StockQuantity: 40, MinimumStock: 5, Category: models.CategoryElectronics, IsFeatured: true},
		{Name: "Mechanical Keyboard", SKU: "MK-001", Price: decimal.RequireFromString("129.00"), CostPrice: decimal.RequireFromString("70.00"), StockQuantity: 25, MinimumStock: 5, Category: models.CategoryElectronics},
		{Name: "Running Shoes", SKU: "RS-001", Price: decimal.RequireFromString("75.50"), CostPrice: decimal.RequireFromString("38.00"), StockQuantity: 60, MinimumStock: 10, Category: models.CategorySports},
		{Name: "Coffee Sampler", SKU: "CS-001", Price: decimal.RequireFromString("24.90"), CostPrice: decimal.RequireFromString("12.00"), StockQuantity: 3, MinimumStock: 10, Category: models.CategoryFoodBeverages},
	}
	var productIDs []uint
	for _, in := range products {
		p, err := productSvc.Create(in)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", in.SKU, err)
		}
		productIDs = append(productIDs, p.ID)
	}

	orders := []services.CreateOrderInput{
		{
			CustomerID:    customerIDs[0],
			PaymentMethod: "credit_card",
			Items: []services.OrderItemInput{
				{ProductID: productIDs[0], Quantity: 1},
				{ProductID: productIDs[3], Quantity: 2},
			},
		},
		{
			CustomerID:    customerIDs[1],
			PaymentMethod: "bank_transfer",
			Items: []services.OrderItemInput{
				{ProductID: productIDs[1], Quantity: 1},
			},
		},
		{
			CustomerID:    customerIDs[2],
			PaymentMethod: "credit_card",
			Items: []services.OrderItemInput{
				{ProductID: productIDs[2], Quantity: 1},
			},
		},
	}
	var orderIDs []uint
	for i, in := range orders {
		o, err := orderSvc.Create(in)
		if err != nil {
			return fmt.Errorf("seed order %d: %w", i, err)
		}
		orderIDs = append(orderIDs, o.ID)
	}

	inv, err := invoiceSvc.CreateFromOrder(orderIDs[0])
	if err != nil {
		return fmt.Errorf("seed invoice: %w", err)
	}
	if _, err := invoiceSvc.UpdateStatus(inv.ID, models.InvoiceStatusSent); err != nil {
		return fmt.Errorf("seed invoice status: %w", err)
	}
	if _, err := invoiceSvc.AddPayment(services.AddPaymentInput{
		InvoiceID: inv.ID,
		Amount:    decimal.RequireFromString("50.00"),
		Method:    "credit_card",
	}); err != nil {
		return fmt.Errorf("seed payment: %w", err)
	}

	log.Info().
		Int("customers", len(customerIDs)).
		Int("products", len(productIDs)).
		Int("orders", len(orderIDs)).
		Msg("seeded demo data")
	return nil
}
