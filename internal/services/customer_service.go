package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerService struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewCustomerService(db *gorm.DB, log zerolog.Logger) *CustomerService {
	return &CustomerService{DB: db, Log: log}
}

type CustomerInput struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=200"`
	Phone      string `json:"phone" validate:"max=20"`
	Address    string `json:"address" validate:"max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
	Notes      string `json:"notes" validate:"max=1000"`
}

func (s *CustomerService) Create(in CustomerInput) (*models.Customer, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	// Email is unique across active and inactive customers.
	var existing int64
	if err := s.DB.Model(&models.Customer{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check customer email: %w", err)
	}
	if existing > 0 {
		return nil, newValidationError("email", "already_exists")
	}
	c := models.Customer{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		DateJoined: time.Now().UTC(),
		IsActive:   true,
		Notes:      in.Notes,
	}
	if err := s.DB.Create(&c).Error; err != nil {
		s.Log.Error().Err(err).Str("email", in.Email).Msg("create customer")
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.Log.Info().Uint("customer_id", c.ID).Str("email", c.Email).Msg("created customer")
	return &c, nil
}

func (s *CustomerService) Get(id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *CustomerService) Update(id uint, in CustomerInput) (*models.Customer, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var clash int64
	if err := s.DB.Model(&models.Customer{}).Where("email = ? AND id <> ?", in.Email, id).Count(&clash).Error; err != nil {
		return nil, fmt.Errorf("check customer email: %w", err)
	}
	if clash > 0 {
		return nil, newValidationError("email", "already_exists")
	}
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	c.Notes = in.Notes
	if err := s.DB.Save(c).Error; err != nil {
		s.Log.Error().Err(err).Uint("customer_id", id).Msg("update customer")
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	return c, nil
}

// Delete hard-deletes a customer with no orders or invoices; otherwise the
// customer is deactivated so historical rows keep a valid reference.
// Returns true when the row was physically removed.
func (s *CustomerService) Delete(id uint) (bool, error) {
	c, err := s.Get(id)
	if err != nil {
		return false, err
	}
	var orderCount, invoiceCount int64
	if err := s.DB.Model(&models.Order{}).Where("customer_id = ?", id).Count(&orderCount).Error; err != nil {
		return false, fmt.Errorf("count orders for customer %d: %w", id, err)
	}
	if err := s.DB.Model(&models.Invoice{}).Where("customer_id = ?", id).Count(&invoiceCount).Error; err != nil {
		return false, fmt.Errorf("count invoices for customer %d: %w", id, err)
	}
	if orderCount > 0 || invoiceCount > 0 {
		c.IsActive = false
		if err := s.DB.Save(c).Error; err != nil {
			s.Log.Error().Err(err).Uint("customer_id", id).Msg("deactivate customer")
			return false, fmt.Errorf("deactivate customer %d: %w", id, err)
		}
		s.Log.Info().Uint("customer_id", id).Msg("deactivated customer with existing data")
		return false, nil
	}
	if err := s.DB.Delete(&models.Customer{}, id).Error; err != nil {
		s.Log.Error().Err(err).Uint("customer_id", id).Msg("delete customer")
		return false, fmt.Errorf("delete customer %d: %w", id, err)
	}
	s.Log.Info().Uint("customer_id", id).Msg("deleted customer")
	return true, nil
}

type CustomerListParams struct {
	Search   string
	Page     int
	PageSize int
}

func (s *CustomerService) List(p CustomerListParams) ([]models.Customer, int64, error) {
	page, size := normalizePage(p.Page, p.PageSize)
	q := s.DB.Model(&models.Customer{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	var customers []models.Customer
	err := q.Order("date_joined DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&customers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return customers, total, nil
}

func (s *CustomerService) Recent(count int) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.DB.Where("is_active = ?", true).
		Order("date_joined DESC").Limit(count).
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("recent customers: %w", err)
	}
	return customers, nil
}

type CustomerStats struct {
	CustomerID        uint            `json:"customer_id"`
	TotalOrders       int64           `json:"total_orders"`
	CompletedOrders   int64           `json:"completed_orders"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	LastOrderDate     *time.Time      `json:"last_order_date"`
	PendingInvoices   int64           `json:"pending_invoices"`
	OverdueInvoices   int64           `json:"overdue_invoices"`
	CustomerSince     time.Time       `json:"customer_since"`
	IsActive          bool            `json:"is_active"`
}

// Stats aggregates one customer's order and invoice history. A missing
// customer is a not-found condition, unlike the global rollups.
func (s *CustomerService) Stats(customerID uint) (*CustomerStats, error) {
	c, err := s.Get(customerID)
	if err != nil {
		return nil, err
	}
	st := CustomerStats{
		CustomerID:        customerID,
		TotalSpent:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		CustomerSince:     c.DateJoined,
		IsActive:          c.IsActive,
	}
	if err := s.DB.Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&st.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}
	completedQ := s.DB.Model(&models.Order{}).Where("customer_id = ? AND status = ?", customerID, models.OrderStatusCompleted)
	if err := completedQ.Count(&st.CompletedOrders).Error; err != nil {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}
	st.TotalSpent, err = sumDecimal(
		s.DB.Model(&models.Order{}).Where("customer_id = ? AND status = ?", customerID, models.OrderStatusCompleted),
		"total_amount")
	if err != nil {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}
	if st.CompletedOrders > 0 {
		st.AverageOrderValue = st.TotalSpent.Div(decimal.NewFromInt(st.CompletedOrders)).Round(2)
	}

	var last models.Order
	err = s.DB.Where("customer_id = ?", customerID).Order("order_date DESC").First(&last).Error
	if err == nil {
		st.LastOrderDate = &last.OrderDate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}

	now := time.Now().UTC()
	if err := s.DB.Model(&models.Invoice{}).
		Where("customer_id = ? AND status IN ?", customerID,
			[]models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPartiallyPaid}).
		Count(&st.PendingInvoices).Error; err != nil {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}
	if err := s.DB.Model(&models.Invoice{}).
		Where("customer_id = ? AND status = ? AND due_date < ?", customerID, models.InvoiceStatusSent, now).
		Count(&st.OverdueInvoices).Error; err != nil {
		return nil, fmt.Errorf("customer %d stats: %w", customerID, err)
	}
	return &st, nil
}

// FullName joins the name parts for display; the record itself stays
// behavior-free.
func FullName(c models.Customer) string { return c.FirstName + " " + c.LastName }
