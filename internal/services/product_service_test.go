package services

import (
	"testing"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProductCreateGeneratesSKU(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	p, err := svc.Create(ProductInput{
		Name:      "Wireless Headphones",
		Price:     d("89.99"),
		CostPrice: d("45.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "WH-001", p.SKU)
	require.Equal(t, models.CategoryGeneral, p.Category)
	require.True(t, p.IsActive)

	// same initials bump the counter
	p2, err := svc.Create(ProductInput{
		Name:      "Wooden Hanger",
		Price:     d("5.00"),
		CostPrice: d("1.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "WH-002", p2.SKU)
}

func TestProductCreateShortNameSKU(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	p, err := svc.Create(ProductInput{Name: "Mug", Price: d("4.00"), CostPrice: d("1.00")})
	require.NoError(t, err)
	require.Equal(t, "MUG-001", p.SKU)
}

func TestProductCreateRejectsDuplicateSKU(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	_, err := svc.Create(ProductInput{Name: "A", SKU: "DUP-001", Price: d("1.00")})
	require.NoError(t, err)
	_, err = svc.Create(ProductInput{Name: "B", SKU: "DUP-001", Price: d("1.00")})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "already_exists", ve.Fields["sku"])
}

func TestProductCreateRejectsNonPositivePrice(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	_, err := svc.Create(ProductInput{Name: "Free", Price: decimal.Zero})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, "must_be_positive", ve.Fields["price"])
}

func TestProductDeleteFallsBackToDeactivateWhenReferenced(t *testing.T) {
	db := openTestDB(t)
	customer := seedCustomer(t, db, "prodref@test.example")
	p := seedProduct(t, db, "AA-001", "10.00", 5)
	prodSvc := NewProductService(db, testLogger())
	orderSvc := NewOrderService(db, testConfig(), testLogger())

	_, err := orderSvc.Create(CreateOrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	hard, err := prodSvc.Delete(p.ID)
	require.NoError(t, err)
	require.False(t, hard)

	kept, err := prodSvc.Get(p.ID)
	require.NoError(t, err)
	require.False(t, kept.IsActive)

	loose := seedProduct(t, db, "BB-001", "10.00", 5)
	hard, err = prodSvc.Delete(loose.ID)
	require.NoError(t, err)
	require.True(t, hard)
}

func TestProductUpdateStockClampsAtZero(t *testing.T) {
	db := openTestDB(t)
	p := seedProduct(t, db, "AA-001", "10.00", 5)
	svc := NewProductService(db, testLogger())

	updated, err := svc.UpdateStock(p.ID, -10)
	require.NoError(t, err)
	require.Zero(t, updated.StockQuantity)

	updated, err = svc.UpdateStock(p.ID, 42)
	require.NoError(t, err)
	require.Equal(t, 42, updated.StockQuantity)
}

func TestProductLowStockListing(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	low := seedProduct(t, db, "AA-001", "10.00", 2)  // minimum is 5
	_ = seedProduct(t, db, "BB-001", "10.00", 50)

	list, err := svc.LowStock()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, low.ID, list[0].ID)
}

func TestProductListFiltersByCategory(t *testing.T) {
	db := openTestDB(t)
	svc := NewProductService(db, testLogger())

	_, err := svc.Create(ProductInput{Name: "Phone", SKU: "EL-001", Price: d("100.00"), Category: models.CategoryElectronics})
	require.NoError(t, err)
	_, err = svc.Create(ProductInput{Name: "Shirt", SKU: "CL-001", Price: d("20.00"), Category: models.CategoryClothing})
	require.NoError(t, err)

	cat := models.CategoryElectronics
	list, total, err := svc.List(ProductListParams{Category: &cat})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Phone", list[0].Name)
}

func TestProductStats(t *testing.T) {
	db := openTestDB(t)
	customer := seedCustomer(t, db, "pstats@test.example")
	svc := NewProductService(db, testLogger())

	p1, err := svc.Create(ProductInput{Name: "Phone", SKU: "EL-001", Price: d("100.00"), StockQuantity: 2, MinimumStock: 5, Category: models.CategoryElectronics})
	require.NoError(t, err)
	_, err = svc.Create(ProductInput{Name: "Shirt", SKU: "CL-001", Price: d("20.00"), StockQuantity: 10, Category: models.CategoryClothing})
	require.NoError(t, err)

	orderSvc := NewOrderService(db, testConfig(), testLogger())
	_, err = orderSvc.Create(CreateOrderInput{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: p1.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalProducts)
	// 100*2 + 20*10
	require.True(t, stats.TotalInventoryValue.Equal(d("400.00")), "inventory %s", stats.TotalInventoryValue)
	require.EqualValues(t, 1, stats.LowStockCount)
	require.Zero(t, stats.OutOfStockCount)
	require.EqualValues(t, 1, stats.CategoryDistribution[models.CategoryElectronics])
	require.EqualValues(t, 1, stats.CategoryDistribution[models.CategoryClothing])
	require.Len(t, stats.TopSellers, 1)
	require.Equal(t, p1.ID, stats.TopSellers[0].ProductID)
	require.EqualValues(t, 3, stats.TopSellers[0].TotalSold)
}
