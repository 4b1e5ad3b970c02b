package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultInvoiceTerms = "Payment due within 30 days. Late fees may apply after due date."

// InvoiceService owns invoice money fields, payment application, and the
// order→invoice snapshot.
type InvoiceService struct {
	DB     *gorm.DB
	Cfg    config.Config
	Log    zerolog.Logger
	Events Events
}

func NewInvoiceService(db *gorm.DB, cfg config.Config, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{DB: db, Cfg: cfg, Log: log}
}

type InvoiceItemInput struct {
	ProductID   uint   `json:"product_id" validate:"required"`
	Description string `json:"description" validate:"max=200"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Notes       string `json:"notes" validate:"max=500"`
}

type CreateInvoiceInput struct {
	CustomerID     uint               `json:"customer_id" validate:"required"`
	Items          []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	DueDate        *time.Time         `json:"due_date"`
	PaymentMethod  string             `json:"payment_method" validate:"max=100"`
	Notes          string             `json:"notes" validate:"max=1000"`
}

// Create builds a standalone invoice. Item prices come from the referenced
// products and descriptions default to the product name, frozen at creation.
func (s *InvoiceService) Create(in CreateInvoiceInput) (*models.Invoice, error) {
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
	if err := s.DB.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	prodByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		prodByID[p.ID] = p
	}

	items := make([]models.InvoiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := prodByID[it.ProductID]
		if !ok {
			return nil, newValidationError("items", "unknown_product")
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = p.Name
		}
		items = append(items, models.InvoiceItem{
			ProductID:   p.ID,
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			LineTotal:   LineTotal(it.Quantity, p.Price),
		})
	}
	totals := ComputeInvoiceTotals(items, in.DiscountAmount, s.Cfg)

	now := time.Now().UTC()
	due := now.AddDate(0, 0, s.Cfg.InvoiceDueDays)
	if in.DueDate != nil {
		due = in.DueDate.UTC()
	}
	inv := models.Invoice{
		CustomerID:         in.CustomerID,
		InvoiceDate:        now,
		DueDate:            due,
		Status:             models.InvoiceStatusDraft,
		Subtotal:           totals.Subtotal,
		TaxAmount:          totals.TaxAmount,
		DiscountAmount:     totals.DiscountAmount,
		TotalAmount:        totals.TotalAmount,
		AmountPaid:         decimal.Zero,
		PaymentMethod:      in.PaymentMethod,
		TermsAndConditions: defaultInvoiceTerms,
		Notes:              in.Notes,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, invoiceNumberPrefix, now)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("customer_id", in.CustomerID).Msg("create invoice")
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	inv.Items = items
	s.Log.Info().Str("invoice_number", inv.InvoiceNumber).Uint("customer_id", inv.CustomerID).Msg("created invoice")
	return &inv, nil
}

// CreateFromOrder snapshots an order into a draft invoice: amounts are
// copied verbatim and each order item is frozen into an invoice item with
// the product name as its description.
func (s *InvoiceService) CreateFromOrder(orderID uint) (*models.Invoice, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}

	productIDs := make([]uint, 0, len(order.Items))
	for _, it := range order.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	nameByID := map[uint]string{}
	if len(productIDs) > 0 {
		var products []models.Product
		if err := s.DB.Select("id, name").Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("load products for order %d: %w", orderID, err)
		}
		for _, p := range products {
			nameByID[p.ID] = p.Name
		}
	}

	now := time.Now().UTC()
	inv := models.Invoice{
		CustomerID:         order.CustomerID,
		OrderID:            &order.ID,
		InvoiceDate:        now,
		DueDate:            now.AddDate(0, 0, s.Cfg.InvoiceDueDays),
		Status:             models.InvoiceStatusDraft,
		Subtotal:           order.Subtotal,
		TaxAmount:          order.TaxAmount,
		DiscountAmount:     order.DiscountAmount,
		TotalAmount:        order.TotalAmount,
		AmountPaid:         decimal.Zero,
		PaymentMethod:      order.PaymentMethod,
		TermsAndConditions: defaultInvoiceTerms,
	}
	items := make([]models.InvoiceItem, 0, len(order.Items))
	for _, oi := range order.Items {
		items = append(items, models.InvoiceItem{
			ProductID:   oi.ProductID,
			Description: nameByID[oi.ProductID],
			Quantity:    oi.Quantity,
			UnitPrice:   oi.UnitPrice,
			LineTotal:   oi.LineTotal,
		})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, invoiceNumberPrefix, now)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("order_id", orderID).Msg("create invoice from order")
		return nil, fmt.Errorf("create invoice from order %d: %w", orderID, err)
	}
	inv.Items = items
	s.Log.Info().Str("invoice_number", inv.InvoiceNumber).Str("order_number", order.OrderNumber).Msg("created invoice from order")
	return &inv, nil
}

func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.Preload("Items").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}

type InvoiceListParams struct {
	Search   string
	Status   *models.InvoiceStatus
	Page     int
	PageSize int
}

func (s *InvoiceService) List(p InvoiceListParams) ([]models.Invoice, int64, error) {
	page, size := normalizePage(p.Page, p.PageSize)
	q := s.DB.Model(&models.Invoice{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		q = q.Joins("JOIN customers ON customers.id = invoices.customer_id").
			Where("invoices.invoice_number LIKE ? OR customers.first_name LIKE ? OR customers.last_name LIKE ? OR customers.email LIKE ?",
				like, like, like, like)
	}
	if p.Status != nil {
		q = q.Where("invoices.status = ?", *p.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	var invs []models.Invoice
	err := q.Preload("Items").
		Order("invoices.invoice_date DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&invs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invs, total, nil
}

type UpdateInvoiceInput struct {
	DueDate            *time.Time `json:"due_date"`
	PaymentMethod      *string    `json:"payment_method" validate:"omitempty,max=100"`
	TermsAndConditions *string    `json:"terms_and_conditions" validate:"omitempty,max=2000"`
	Notes              *string    `json:"notes" validate:"omitempty,max=1000"`
}

// Update changes invoice details only. Amounts come from items and payment
// application; status has its own operations.
func (s *InvoiceService) Update(id uint, in UpdateInvoiceInput) (*models.Invoice, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	var inv models.Invoice
	if err := s.DB.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	if in.DueDate != nil {
		inv.DueDate = in.DueDate.UTC()
	}
	if in.PaymentMethod != nil {
		inv.PaymentMethod = *in.PaymentMethod
	}
	if in.TermsAndConditions != nil {
		inv.TermsAndConditions = *in.TermsAndConditions
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if err := s.DB.Save(&inv).Error; err != nil {
		s.Log.Error().Err(err).Uint("invoice_id", id).Msg("update invoice")
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}
	return &inv, nil
}

// UpdateStatus handles the manual transitions (draft→sent, cancellation).
// Paid and partially_paid are derived from payment application and cannot be
// set by hand; stored overdue is never set at all.
func (s *InvoiceService) UpdateStatus(id uint, newStatus models.InvoiceStatus) (*models.Invoice, error) {
	switch newStatus {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusCancelled:
	case models.InvoiceStatusPaid, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue:
		return nil, newValidationError("status", "derived_status_not_settable")
	default:
		return nil, newValidationError("status", "unknown_status")
	}
	var inv models.Invoice
	if err := s.DB.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	inv.Status = newStatus
	if err := s.DB.Save(&inv).Error; err != nil {
		s.Log.Error().Err(err).Uint("invoice_id", id).Msg("update invoice status")
		return nil, fmt.Errorf("update invoice %d status: %w", id, err)
	}
	return &inv, nil
}

type AddPaymentInput struct {
	InvoiceID       uint            `json:"invoice_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method" validate:"required,max=100"`
	PaymentDate     *time.Time      `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number" validate:"max=200"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// AddPayment records a payment and folds it into the parent invoice's
// amount paid and status in one transaction. Reaching the total flips the
// invoice to paid and stamps the paid date; any positive partial amount
// flips it to partially_paid. Overpayment is not rejected: amount due may
// go negative.
func (s *InvoiceService) AddPayment(in AddPaymentInput) (*models.Payment, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, newValidationError("amount", "must_be_positive")
	}

	when := time.Now().UTC()
	if in.PaymentDate != nil {
		when = in.PaymentDate.UTC()
	}
	ref := strings.TrimSpace(in.ReferenceNumber)
	if ref == "" {
		ref = "PAY-" + uuid.NewString()[:8]
	}
	payment := models.Payment{
		InvoiceID:       in.InvoiceID,
		Amount:          in.Amount,
		PaymentDate:     when,
		Method:          in.Method,
		ReferenceNumber: ref,
		Notes:           in.Notes,
	}

	var status models.InvoiceStatus
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, in.InvoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %d: %w", in.InvoiceID, ErrNotFound)
			}
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		// increment in SQL so concurrent payments serialize on the row
		// instead of racing a read-modify-write
		if err := tx.Model(&models.Invoice{}).Where("id = ?", in.InvoiceID).
			UpdateColumn("amount_paid", gorm.Expr("amount_paid + ?", in.Amount)).Error; err != nil {
			return err
		}
		if err := tx.First(&inv, in.InvoiceID).Error; err != nil {
			return err
		}
		updates := map[string]any{}
		if inv.AmountPaid.GreaterThanOrEqual(inv.TotalAmount) {
			inv.Status = models.InvoiceStatusPaid
			inv.PaidDate = &payment.PaymentDate
			updates["status"] = inv.Status
			updates["paid_date"] = inv.PaidDate
		} else if inv.AmountPaid.IsPositive() {
			inv.Status = models.InvoiceStatusPartiallyPaid
			updates["status"] = inv.Status
		}
		status = inv.Status
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Invoice{}).Where("id = ?", in.InvoiceID).Updates(updates).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Log.Error().Err(err).Uint("invoice_id", in.InvoiceID).Msg("add payment")
		}
		return nil, fmt.Errorf("add payment: %w", err)
	}
	s.Log.Info().Uint("invoice_id", in.InvoiceID).Str("amount", in.Amount.String()).Str("reference", ref).Msg("recorded payment")
	s.Events.paymentRecorded(in.InvoiceID, in.Amount, status)
	return &payment, nil
}

func (s *InvoiceService) Payments(invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.DB.Where("invoice_id = ?", invoiceID).Order("payment_date ASC").Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments for invoice %d: %w", invoiceID, err)
	}
	return payments, nil
}

// Delete hard-deletes an invoice and its items unless payments reference
// it, in which case the invoice is cancelled instead. Returns true when
// rows were physically removed.
func (s *InvoiceService) Delete(id uint) (bool, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return false, fmt.Errorf("load invoice %d: %w", id, err)
	}

	var paymentCount int64
	if err := s.DB.Model(&models.Payment{}).Where("invoice_id = ?", id).Count(&paymentCount).Error; err != nil {
		return false, fmt.Errorf("count payments for invoice %d: %w", id, err)
	}
	if paymentCount > 0 {
		inv.Status = models.InvoiceStatusCancelled
		if err := s.DB.Save(&inv).Error; err != nil {
			s.Log.Error().Err(err).Uint("invoice_id", id).Msg("cancel invoice")
			return false, fmt.Errorf("cancel invoice %d: %w", id, err)
		}
		s.Log.Info().Uint("invoice_id", id).Msg("cancelled invoice with payments")
		return false, nil
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, id).Error
	})
	if err != nil {
		s.Log.Error().Err(err).Uint("invoice_id", id).Msg("delete invoice")
		return false, fmt.Errorf("delete invoice %d: %w", id, err)
	}
	s.Log.Info().Uint("invoice_id", id).Msg("deleted invoice")
	return true, nil
}

// Overdue lists sent invoices past their due date, oldest first. Stored
// status stays sent; overdue is derived at read time.
func (s *InvoiceService) Overdue() ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.DB.Where("status = ? AND due_date < ?", models.InvoiceStatusSent, time.Now().UTC()).
		Order("due_date ASC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	return invs, nil
}

type InvoiceStats struct {
	TotalInvoices       int64                          `json:"total_invoices"`
	TotalAmount         decimal.Decimal                `json:"total_amount"`
	TotalPaid           decimal.Decimal                `json:"total_paid"`
	TotalOutstanding    decimal.Decimal                `json:"total_outstanding"`
	OverdueCount        int64                          `json:"overdue_count"`
	OverdueAmount       decimal.Decimal                `json:"overdue_amount"`
	MonthlyInvoiced     decimal.Decimal                `json:"monthly_invoiced"`
	AverageInvoiceValue decimal.Decimal                `json:"average_invoice_value"`
	StatusDistribution  map[models.InvoiceStatus]int64 `json:"status_distribution"`
	LastUpdated         time.Time                      `json:"last_updated"`
}

func (s *InvoiceService) Stats() (*InvoiceStats, error) {
	st := InvoiceStats{
		TotalAmount:         decimal.Zero,
		TotalPaid:           decimal.Zero,
		TotalOutstanding:    decimal.Zero,
		OverdueAmount:       decimal.Zero,
		MonthlyInvoiced:     decimal.Zero,
		AverageInvoiceValue: decimal.Zero,
		StatusDistribution:  map[models.InvoiceStatus]int64{},
		LastUpdated:         time.Now().UTC(),
	}
	if err := s.DB.Model(&models.Invoice{}).Count(&st.TotalInvoices).Error; err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}

	var err error
	st.TotalAmount, err = sumDecimal(s.DB.Model(&models.Invoice{}), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	st.TotalPaid, err = sumDecimal(s.DB.Model(&models.Invoice{}), "amount_paid")
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	st.TotalOutstanding = st.TotalAmount.Sub(st.TotalPaid)

	now := time.Now().UTC()
	overdueQ := s.DB.Model(&models.Invoice{}).Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now)
	if err := overdueQ.Count(&st.OverdueCount).Error; err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	st.OverdueAmount, err = sumDecimal(
		s.DB.Model(&models.Invoice{}).Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now),
		"total_amount - amount_paid")
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}

	st.MonthlyInvoiced, err = sumDecimal(
		s.DB.Model(&models.Invoice{}).Where("invoice_date >= ?", now.AddDate(0, 0, -30)),
		"total_amount")
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	if st.TotalInvoices > 0 {
		st.AverageInvoiceValue = st.TotalAmount.Div(decimal.NewFromInt(st.TotalInvoices)).Round(2)
	}

	rows, err := groupInvoiceStatuses(s.DB)
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}
	for _, r := range rows {
		st.StatusDistribution[r.Status] = r.Count
	}
	return &st, nil
}
