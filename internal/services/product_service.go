package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewProductService(db *gorm.DB, log zerolog.Logger) *ProductService {
	return &ProductService{DB: db, Log: log}
}

type ProductInput struct {
	Name          string                 `json:"name" validate:"required,max=200"`
	Description   string                 `json:"description" validate:"max=1000"`
	SKU           string                 `json:"sku" validate:"max=50"`
	Price         decimal.Decimal        `json:"price"`
	CostPrice     decimal.Decimal        `json:"cost_price"`
	StockQuantity int                    `json:"stock_quantity" validate:"min=0"`
	MinimumStock  int                    `json:"minimum_stock" validate:"min=0"`
	Category      models.ProductCategory `json:"category"`
	ImageURL      string                 `json:"image_url" validate:"max=500"`
	IsFeatured    bool                   `json:"is_featured"`
}

func (s *ProductService) Create(in ProductInput) (*models.Product, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, newValidationError("price", "must_be_positive")
	}
	if in.CostPrice.IsNegative() {
		return nil, newValidationError("cost_price", "must_not_be_negative")
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		var err error
		sku, err = s.generateSKU(in.Name)
		if err != nil {
			return nil, err
		}
	} else {
		var clash int64
		if err := s.DB.Model(&models.Product{}).Where("sku = ?", sku).Count(&clash).Error; err != nil {
			return nil, fmt.Errorf("check sku: %w", err)
		}
		if clash > 0 {
			return nil, newValidationError("sku", "already_exists")
		}
	}
	category := in.Category
	if category == "" {
		category = models.CategoryGeneral
	}
	p := models.Product{
		Name:          in.Name,
		Description:   in.Description,
		SKU:           sku,
		Price:         in.Price,
		CostPrice:     in.CostPrice,
		StockQuantity: in.StockQuantity,
		MinimumStock:  in.MinimumStock,
		Category:      category,
		ImageURL:      in.ImageURL,
		IsActive:      true,
		IsFeatured:    in.IsFeatured,
	}
	if err := s.DB.Create(&p).Error; err != nil {
		s.Log.Error().Err(err).Str("sku", sku).Msg("create product")
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.Log.Info().Uint("product_id", p.ID).Str("sku", p.SKU).Msg("created product")
	return &p, nil
}

// generateSKU derives a prefix from the initials of the first two words of
// the name and appends the first free 3-digit counter.
func (s *ProductService) generateSKU(name string) (string, error) {
	words := strings.Fields(name)
	var prefix string
	for i, w := range words {
		if i == 2 {
			break
		}
		prefix += strings.ToUpper(w[:1])
	}
	if len(prefix) < 2 {
		n := len(name)
		if n > 3 {
			n = 3
		}
		prefix = strings.ToUpper(name[:n])
	}
	for counter := 1; ; counter++ {
		sku := fmt.Sprintf("%s-%03d", prefix, counter)
		var clash int64
		if err := s.DB.Model(&models.Product{}).Where("sku = ?", sku).Count(&clash).Error; err != nil {
			return "", fmt.Errorf("generate sku: %w", err)
		}
		if clash == 0 {
			return sku, nil
		}
	}
}

func (s *ProductService) Get(id uint) (*models.Product, error) {
	var p models.Product
	if err := s.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return &p, nil
}

func (s *ProductService) Update(id uint, in ProductInput) (*models.Product, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, newValidationError("price", "must_be_positive")
	}
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" && sku != p.SKU {
		var clash int64
		if err := s.DB.Model(&models.Product{}).Where("sku = ? AND id <> ?", sku, id).Count(&clash).Error; err != nil {
			return nil, fmt.Errorf("check sku: %w", err)
		}
		if clash > 0 {
			return nil, newValidationError("sku", "already_exists")
		}
		p.SKU = sku
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.CostPrice = in.CostPrice
	p.StockQuantity = in.StockQuantity
	p.MinimumStock = in.MinimumStock
	if in.Category != "" {
		p.Category = in.Category
	}
	p.ImageURL = in.ImageURL
	p.IsFeatured = in.IsFeatured
	if err := s.DB.Save(p).Error; err != nil {
		s.Log.Error().Err(err).Uint("product_id", id).Msg("update product")
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

// Delete hard-deletes a product unless order or invoice items reference it,
// in which case it is deactivated instead. Returns true when the row was
// physically removed.
func (s *ProductService) Delete(id uint) (bool, error) {
	p, err := s.Get(id)
	if err != nil {
		return false, err
	}
	var orderRefs, invoiceRefs int64
	if err := s.DB.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&orderRefs).Error; err != nil {
		return false, fmt.Errorf("count order items for product %d: %w", id, err)
	}
	if err := s.DB.Model(&models.InvoiceItem{}).Where("product_id = ?", id).Count(&invoiceRefs).Error; err != nil {
		return false, fmt.Errorf("count invoice items for product %d: %w", id, err)
	}
	if orderRefs > 0 || invoiceRefs > 0 {
		p.IsActive = false
		if err := s.DB.Save(p).Error; err != nil {
			s.Log.Error().Err(err).Uint("product_id", id).Msg("deactivate product")
			return false, fmt.Errorf("deactivate product %d: %w", id, err)
		}
		s.Log.Info().Uint("product_id", id).Msg("deactivated product with existing data")
		return false, nil
	}
	if err := s.DB.Delete(&models.Product{}, id).Error; err != nil {
		s.Log.Error().Err(err).Uint("product_id", id).Msg("delete product")
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}
	s.Log.Info().Uint("product_id", id).Msg("deleted product")
	return true, nil
}

type ProductListParams struct {
	Search   string
	Category *models.ProductCategory
	Page     int
	PageSize int
}

// List returns one page of active products, newest first.
func (s *ProductService) List(p ProductListParams) ([]models.Product, int64, error) {
	page, size := normalizePage(p.Page, p.PageSize)
	q := s.DB.Model(&models.Product{}).Where("is_active = ?", true)
	if p.Search != "" {
		like := "%" + p.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ? OR sku LIKE ?", like, like, like)
	}
	if p.Category != nil {
		q = q.Where("category = ?", *p.Category)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	var products []models.Product
	err := q.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) Featured(count int) ([]models.Product, error) {
	var products []models.Product
	err := s.DB.Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").Limit(count).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	return products, nil
}

// LowStock lists active products at or below their minimum stock, emptiest
// first.
func (s *ProductService) LowStock() ([]models.Product, error) {
	var products []models.Product
	err := s.DB.Where("is_active = ? AND stock_quantity <= minimum_stock", true).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	return products, nil
}

// UpdateStock sets the absolute stock level, clamped at zero.
func (s *ProductService) UpdateStock(productID uint, quantity int) (*models.Product, error) {
	p, err := s.Get(productID)
	if err != nil {
		return nil, err
	}
	if quantity < 0 {
		quantity = 0
	}
	p.StockQuantity = quantity
	if err := s.DB.Save(p).Error; err != nil {
		s.Log.Error().Err(err).Uint("product_id", productID).Msg("update stock")
		return nil, fmt.Errorf("update stock for product %d: %w", productID, err)
	}
	s.Log.Info().Uint("product_id", productID).Int("quantity", quantity).Msg("updated stock")
	return p, nil
}

type TopSeller struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type ProductStats struct {
	TotalProducts        int64                            `json:"total_products"`
	TotalInventoryValue  decimal.Decimal                  `json:"total_inventory_value"`
	LowStockCount        int64                            `json:"low_stock_count"`
	OutOfStockCount      int64                            `json:"out_of_stock_count"`
	FeaturedCount        int64                            `json:"featured_count"`
	CategoryDistribution map[models.ProductCategory]int64 `json:"category_distribution"`
	TopSellers           []TopSeller                      `json:"top_sellers"`
	LastUpdated          time.Time                        `json:"last_updated"`
}

// Stats aggregates the active catalog: inventory value is Σ price × stock.
func (s *ProductService) Stats() (*ProductStats, error) {
	st := ProductStats{
		TotalInventoryValue:  decimal.Zero,
		CategoryDistribution: map[models.ProductCategory]int64{},
		LastUpdated:          time.Now().UTC(),
	}
	active := func() *gorm.DB { return s.DB.Model(&models.Product{}).Where("is_active = ?", true) }
	if err := active().Count(&st.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	var err error
	st.TotalInventoryValue, err = sumDecimal(active(), "price * stock_quantity")
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	if err := active().Where("stock_quantity <= minimum_stock").Count(&st.LowStockCount).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	if err := active().Where("stock_quantity = 0").Count(&st.OutOfStockCount).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	if err := active().Where("is_featured = ?", true).Count(&st.FeaturedCount).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	var catRows []struct {
		Category models.ProductCategory
		Count    int64
	}
	if err := active().Select("category, COUNT(*) AS count").Group("category").Scan(&catRows).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	for _, r := range catRows {
		st.CategoryDistribution[r.Category] = r.Count
	}

	err = s.DB.Model(&models.OrderItem{}).
		Select("order_items.product_id, products.name, SUM(order_items.quantity) AS total_sold").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.is_active = ?", true).
		Group("order_items.product_id, products.name").
		Order("total_sold DESC").
		Limit(5).
		Scan(&st.TopSellers).Error
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	return &st, nil
}
