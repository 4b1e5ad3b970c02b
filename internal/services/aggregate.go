package services

import (
	"github.com/diewo77/backoffice/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shared aggregation plumbing for the stats queries. SUM is coalesced to 0
// so empty tables aggregate cleanly instead of erroring or returning NULL.

func sumDecimal(q *gorm.DB, column string) (decimal.Decimal, error) {
	var d decimal.Decimal
	row := q.Select("COALESCE(SUM(" + column + "), 0)").Row()
	if err := row.Scan(&d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

type orderStatusCount struct {
	Status models.OrderStatus
	Count  int64
}

func groupOrderStatuses(db *gorm.DB) ([]orderStatusCount, error) {
	var rows []orderStatusCount
	err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

type invoiceStatusCount struct {
	Status models.InvoiceStatus
	Count  int64
}

func groupInvoiceStatuses(db *gorm.DB) ([]invoiceStatusCount, error) {
	var rows []invoiceStatusCount
	err := db.Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
