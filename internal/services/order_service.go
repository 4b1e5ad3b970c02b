package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns order money fields and status transitions.
type OrderService struct {
	DB     *gorm.DB
	Cfg    config.Config
	Log    zerolog.Logger
	Events Events
}

func NewOrderService(db *gorm.DB, cfg config.Config, log zerolog.Logger) *OrderService {
	return &OrderService{DB: db, Cfg: cfg, Log: log}
}

type OrderItemInput struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Notes     string `json:"notes" validate:"max=500"`
}

type CreateOrderInput struct {
	CustomerID      uint             `json:"customer_id" validate:"required"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	ShippingAddress string           `json:"shipping_address" validate:"max=500"`
	BillingAddress  string           `json:"billing_address" validate:"max=500"`
	PaymentMethod   string           `json:"payment_method" validate:"max=100"`
	Notes           string           `json:"notes" validate:"max=1000"`
}

// Create validates the input, captures unit prices from the referenced
// products, computes totals, allocates the order number, and persists order
// plus items in one transaction.
func (s *OrderService) Create(in CreateOrderInput) (*models.Order, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if in.DiscountAmount.IsNegative() {
		return nil, newValidationError("discount_amount", "must_not_be_negative")
	}

	var customer models.Customer
	if err := s.DB.First(&customer, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", in.CustomerID, ErrNotFound)
		}
		return nil, fmt.Errorf("load customer %d: %w", in.CustomerID, err)
	}

	productIDs := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	var products []models.Product
	if err := s.DB.Where("id IN ? AND is_active = ?", productIDs, true).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	prodByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		prodByID[p.ID] = p
	}

	now := time.Now().UTC()
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := prodByID[it.ProductID]
		if !ok {
			return nil, newValidationError("items", "unknown_or_inactive_product")
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: LineTotal(it.Quantity, p.Price),
			Notes:     it.Notes,
		})
	}
	totals := ComputeOrderTotals(items, in.DiscountAmount, s.Cfg)

	order := models.Order{
		CustomerID:      in.CustomerID,
		OrderDate:       now,
		Status:          models.OrderStatusPending,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		ShippingCost:    totals.ShippingCost,
		DiscountAmount:  totals.DiscountAmount,
		TotalAmount:     totals.TotalAmount,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, orderNumberPrefix, now)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("customer_id", in.CustomerID).Msg("create order")
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Items = items
	s.Log.Info().Str("order_number", order.OrderNumber).Uint("customer_id", order.CustomerID).Msg("created order")
	return &order, nil
}

func (s *OrderService) Get(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	return &order, nil
}

type OrderListParams struct {
	Search   string
	Status   *models.OrderStatus
	Page     int
	PageSize int
}

// List returns one page of orders, newest first, with the unpaginated total.
func (s *OrderService) List(p OrderListParams) ([]models.Order, int64, error) {
	page, size := normalizePage(p.Page, p.PageSize)
	q := s.DB.Model(&models.Order{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		q = q.Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("orders.order_number LIKE ? OR customers.first_name LIKE ? OR customers.last_name LIKE ? OR customers.email LIKE ?",
				like, like, like, like)
	}
	if p.Status != nil {
		q = q.Where("orders.status = ?", *p.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	var orders []models.Order
	err := q.Preload("Items").
		Order("orders.order_date DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) Recent(count int) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.Order("order_date DESC").Limit(count).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return orders, nil
}

var validOrderStatuses = map[models.OrderStatus]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusCompleted:  true,
	models.OrderStatusCancelled:  true,
	models.OrderStatusRefunded:   true,
}

var terminalOrderStatuses = map[models.OrderStatus]bool{
	models.OrderStatusCompleted: true,
	models.OrderStatusCancelled: true,
	models.OrderStatusRefunded:  true,
}

// UpdateStatus applies a status transition. Terminal states accept no
// further transitions. Entering shipped stamps the expected delivery date,
// entering delivered stamps the actual one; both only if unset.
func (s *OrderService) UpdateStatus(orderID uint, newStatus models.OrderStatus) (*models.Order, error) {
	if !validOrderStatuses[newStatus] {
		return nil, newValidationError("status", "unknown_status")
	}
	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if terminalOrderStatuses[order.Status] {
		return nil, newValidationError("status", "order_in_terminal_state")
	}

	from := order.Status
	now := time.Now().UTC()
	order.Status = newStatus
	if newStatus == models.OrderStatusShipped && order.ExpectedDeliveryDate == nil {
		d := now.AddDate(0, 0, s.Cfg.DeliveryLeadDays)
		order.ExpectedDeliveryDate = &d
	} else if newStatus == models.OrderStatusDelivered && order.ActualDeliveryDate == nil {
		order.ActualDeliveryDate = &now
	}
	if err := s.DB.Save(&order).Error; err != nil {
		s.Log.Error().Err(err).Uint("order_id", orderID).Msg("update order status")
		return nil, fmt.Errorf("update order %d status: %w", orderID, err)
	}
	s.Log.Info().Uint("order_id", orderID).Str("from", string(from)).Str("to", string(newStatus)).Msg("order status changed")
	s.Events.orderStatusChanged(orderID, from, newStatus)
	return &order, nil
}

type UpdateOrderInput struct {
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,max=500"`
	BillingAddress  *string `json:"billing_address" validate:"omitempty,max=500"`
	PaymentMethod   *string `json:"payment_method" validate:"omitempty,max=100"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

// Update changes order details only. Money fields and status have their own
// operations and are never touched here.
func (s *OrderService) Update(id uint, in UpdateOrderInput) (*models.Order, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	if in.ShippingAddress != nil {
		order.ShippingAddress = *in.ShippingAddress
	}
	if in.BillingAddress != nil {
		order.BillingAddress = *in.BillingAddress
	}
	if in.PaymentMethod != nil {
		order.PaymentMethod = *in.PaymentMethod
	}
	if in.Notes != nil {
		order.Notes = *in.Notes
	}
	if err := s.DB.Save(&order).Error; err != nil {
		s.Log.Error().Err(err).Uint("order_id", id).Msg("update order")
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}
	return &order, nil
}

// ReplaceItems swaps the order's line items and recomputes every total from
// the new set, atomically. Totals are never patched in place.
func (s *OrderService) ReplaceItems(orderID uint, itemsIn []OrderItemInput, discount decimal.Decimal) (*models.Order, error) {
	if len(itemsIn) == 0 {
		return nil, newValidationError("items", "required")
	}
	for _, it := range itemsIn {
		if it.ProductID == 0 || it.Quantity < 1 {
			return nil, newValidationError("items", "invalid_product_or_quantity")
		}
	}
	if discount.IsNegative() {
		return nil, newValidationError("discount_amount", "must_not_be_negative")
	}

	var order models.Order
	if err := s.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if terminalOrderStatuses[order.Status] {
		return nil, newValidationError("status", "order_in_terminal_state")
	}

	productIDs := make([]uint, 0, len(itemsIn))
	for _, it := range itemsIn {
		productIDs = append(productIDs, it.ProductID)
	}
	var products []models.Product
	if err := s.DB.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	prodByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		prodByID[p.ID] = p
	}
	items := make([]models.OrderItem, 0, len(itemsIn))
	for _, it := range itemsIn {
		p, ok := prodByID[it.ProductID]
		if !ok {
			return nil, newValidationError("items", "unknown_product")
		}
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: LineTotal(it.Quantity, p.Price),
			Notes:     it.Notes,
		})
	}
	totals := ComputeOrderTotals(items, discount, s.Cfg)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Subtotal = totals.Subtotal
		order.TaxAmount = totals.TaxAmount
		order.ShippingCost = totals.ShippingCost
		order.DiscountAmount = totals.DiscountAmount
		order.TotalAmount = totals.TotalAmount
		return tx.Save(&order).Error
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("order_id", orderID).Msg("replace order items")
		return nil, fmt.Errorf("replace items on order %d: %w", orderID, err)
	}
	order.Items = items
	return &order, nil
}

// Delete hard-deletes an order and its items unless invoices reference it,
// in which case the order is cancelled instead. Returns true when rows were
// physically removed.
func (s *OrderService) Delete(id uint) (bool, error) {
	var order models.Order
	if err := s.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return false, fmt.Errorf("load order %d: %w", id, err)
	}

	var invoiceCount int64
	if err := s.DB.Model(&models.Invoice{}).Where("order_id = ?", id).Count(&invoiceCount).Error; err != nil {
		return false, fmt.Errorf("count invoices for order %d: %w", id, err)
	}
	if invoiceCount > 0 {
		from := order.Status
		order.Status = models.OrderStatusCancelled
		if err := s.DB.Save(&order).Error; err != nil {
			s.Log.Error().Err(err).Uint("order_id", id).Msg("cancel order")
			return false, fmt.Errorf("cancel order %d: %w", id, err)
		}
		s.Log.Info().Uint("order_id", id).Msg("cancelled order with invoices")
		s.Events.orderStatusChanged(id, from, models.OrderStatusCancelled)
		return false, nil
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("order_id", id).Msg("delete order")
		return false, fmt.Errorf("delete order %d: %w", id, err)
	}
	s.Log.Info().Uint("order_id", id).Msg("deleted order")
	return true, nil
}

type OrderStats struct {
	TotalOrders        int64                        `json:"total_orders"`
	TotalRevenue       decimal.Decimal              `json:"total_revenue"`
	AverageOrderValue  decimal.Decimal              `json:"average_order_value"`
	MonthlyOrders      int64                        `json:"monthly_orders"`
	MonthlyRevenue     decimal.Decimal              `json:"monthly_revenue"`
	StatusDistribution map[models.OrderStatus]int64 `json:"status_distribution"`
	LastUpdated        time.Time                    `json:"last_updated"`
}

// Stats aggregates order counts and completed-order revenue. Empty data
// yields zeros, never an error.
func (s *OrderService) Stats() (*OrderStats, error) {
	st := OrderStats{
		TotalRevenue:       decimal.Zero,
		AverageOrderValue:  decimal.Zero,
		MonthlyRevenue:     decimal.Zero,
		StatusDistribution: map[models.OrderStatus]int64{},
		LastUpdated:        time.Now().UTC(),
	}
	if err := s.DB.Model(&models.Order{}).Count(&st.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	monthAgo := time.Now().UTC().AddDate(0, 0, -30)
	if err := s.DB.Model(&models.Order{}).Where("order_date >= ?", monthAgo).Count(&st.MonthlyOrders).Error; err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	var err error
	st.TotalRevenue, err = sumDecimal(s.DB.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	st.MonthlyRevenue, err = sumDecimal(
		s.DB.Model(&models.Order{}).Where("status = ? AND order_date >= ?", models.OrderStatusCompleted, monthAgo),
		"total_amount")
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	var completed int64
	if err := s.DB.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted).Count(&completed).Error; err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	if completed > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(completed)).Round(2)
	}

	rows, err := groupOrderStatuses(s.DB)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	for _, r := range rows {
		st.StatusDistribution[r.Status] = r.Count
	}
	return &st, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
