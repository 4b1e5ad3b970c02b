package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product catalog entry
type ProductCategory string

const (
	CategoryGeneral       ProductCategory = "general"
	CategoryElectronics   ProductCategory = "electronics"
	CategoryClothing      ProductCategory = "clothing"
	CategoryHomeGarden    ProductCategory = "home_garden"
	CategoryBooks         ProductCategory = "books"
	CategorySports        ProductCategory = "sports"
	CategoryHealthBeauty  ProductCategory = "health_beauty"
	CategoryFoodBeverages ProductCategory = "food_beverages"
)

type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:200;not null"`
	Description   string          `gorm:"size:1000"`
	SKU           string          `gorm:"size:50;not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StockQuantity int             `gorm:"not null"`
	MinimumStock  int             `gorm:"not null;default:0"`
	Category      ProductCategory `gorm:"size:30;not null;default:'general';index"`
	ImageURL      string          `gorm:"size:500"`
	IsActive      bool            `gorm:"not null;default:true"`
	IsFeatured    bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
