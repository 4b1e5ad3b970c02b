package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService computes the read-only aggregates behind the back-office
// landing page. It owns no state of its own; everything is derived from the
// order, invoice, customer and product tables at call time.
type DashboardService struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewDashboardService(db *gorm.DB, log zerolog.Logger) *DashboardService {
	return &DashboardService{DB: db, Log: log}
}

type DashboardStats struct {
	TotalCustomers   int64           `json:"total_customers"`
	ActiveCustomers  int64           `json:"active_customers"`
	NewCustomers     int64           `json:"new_customers"`
	TotalProducts    int64           `json:"total_products"`
	LowStockCount    int64           `json:"low_stock_count"`
	TotalOrders      int64           `json:"total_orders"`
	PendingOrders    int64           `json:"pending_orders"`
	ProcessingOrders int64           `json:"processing_orders"`
	ShippedOrders    int64           `json:"shipped_orders"`
	MonthlyOrders    int64           `json:"monthly_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue   decimal.Decimal `json:"monthly_revenue"`
	WeeklyRevenue    decimal.Decimal `json:"weekly_revenue"`
	TodayRevenue     decimal.Decimal `json:"today_revenue"`
	TotalInvoices    int64           `json:"total_invoices"`
	UnpaidInvoices   int64           `json:"unpaid_invoices"`
	PaidInvoices     int64           `json:"paid_invoices"`
	OverdueInvoices  int64           `json:"overdue_invoices"`
	OutstandingDue   decimal.Decimal `json:"outstanding_due"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// Stats builds the headline counters. Revenue counts completed orders only,
// and the monthly window is the trailing 30 days, not the calendar month.
func (s *DashboardService) Stats() (*DashboardStats, error) {
	now := time.Now().UTC()
	monthAgo := now.AddDate(0, 0, -30)
	weekAgo := now.AddDate(0, 0, -7)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	st := DashboardStats{
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		WeeklyRevenue:  decimal.Zero,
		TodayRevenue:   decimal.Zero,
		OutstandingDue: decimal.Zero,
		LastUpdated:    now,
	}

	if err := s.DB.Model(&models.Customer{}).Count(&st.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Customer{}).Where("is_active = ?", true).Count(&st.ActiveCustomers).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Customer{}).Where("date_joined >= ?", monthAgo).Count(&st.NewCustomers).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Product{}).Where("is_active = ?", true).Count(&st.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= minimum_stock", true).
		Count(&st.LowStockCount).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	if err := s.DB.Model(&models.Order{}).Count(&st.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	orderStatusCounts := []struct {
		status models.OrderStatus
		dst    *int64
	}{
		{models.OrderStatusPending, &st.PendingOrders},
		{models.OrderStatusProcessing, &st.ProcessingOrders},
		{models.OrderStatusShipped, &st.ShippedOrders},
	}
	for _, sc := range orderStatusCounts {
		if err := s.DB.Model(&models.Order{}).Where("status = ?", sc.status).Count(sc.dst).Error; err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}
	if err := s.DB.Model(&models.Order{}).Where("order_date >= ?", monthAgo).Count(&st.MonthlyOrders).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	completed := func() *gorm.DB {
		return s.DB.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted)
	}
	var err error
	st.TotalRevenue, err = sumDecimal(completed(), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	st.MonthlyRevenue, err = sumDecimal(completed().Where("order_date >= ?", monthAgo), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	st.WeeklyRevenue, err = sumDecimal(completed().Where("order_date >= ?", weekAgo), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	st.TodayRevenue, err = sumDecimal(completed().Where("order_date >= ?", todayStart), "total_amount")
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	if err := s.DB.Model(&models.Invoice{}).Count(&st.TotalInvoices).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	unpaid := []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPartiallyPaid}
	if err := s.DB.Model(&models.Invoice{}).Where("status IN ?", unpaid).Count(&st.UnpaidInvoices).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Invoice{}).Where("status = ?", models.InvoiceStatusPaid).Count(&st.PaidInvoices).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if err := s.DB.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now).
		Count(&st.OverdueInvoices).Error; err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	st.OutstandingDue, err = sumDecimal(
		s.DB.Model(&models.Invoice{}).Where("status IN ?", unpaid),
		"total_amount - amount_paid",
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}

type RevenuePoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// RevenueSeries returns one point per calendar day for the last `days` days
// plus today, oldest first, counting completed orders only. Days without
// orders appear with zero revenue. Bucketing happens in Go so the decimal
// sums stay exact across drivers.
func (s *DashboardService) RevenueSeries(days int) ([]RevenuePoint, error) {
	if days <= 0 {
		days = 30
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -days)

	var orders []models.Order
	err := s.DB.
		Where("order_date >= ? AND status = ?", start, models.OrderStatusCompleted).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("revenue series: %w", err)
	}

	type bucket struct {
		revenue decimal.Decimal
		orders  int
	}
	buckets := map[string]*bucket{}
	for _, o := range orders {
		key := o.OrderDate.UTC().Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[key] = b
		}
		b.revenue = b.revenue.Add(o.TotalAmount)
		b.orders++
	}

	points := make([]RevenuePoint, 0, days+1)
	for d := 0; d <= days; d++ {
		day := start.AddDate(0, 0, d)
		key := day.Format("2006-01-02")
		p := RevenuePoint{Date: key, Revenue: decimal.Zero}
		if b, ok := buckets[key]; ok {
			p.Revenue = b.revenue
			p.Orders = b.orders
		}
		points = append(points, p)
	}
	return points, nil
}

// StatusDistribution reports order counts per status. Statuses with no
// orders are omitted.
func (s *DashboardService) StatusDistribution() (map[models.OrderStatus]int64, error) {
	rows, err := groupOrderStatuses(s.DB)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	dist := make(map[models.OrderStatus]int64, len(rows))
	for _, r := range rows {
		dist[r.Status] = r.Count
	}
	return dist, nil
}

type TopCustomer struct {
	CustomerID    uint            `json:"customer_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	OrderCount    int64           `json:"order_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	LastOrderDate time.Time       `json:"last_order_date"`
}

// TopCustomers ranks customers by completed-order spend, highest first.
func (s *DashboardService) TopCustomers(count int) ([]TopCustomer, error) {
	if count <= 0 {
		count = 5
	}
	var orders []models.Order
	err := s.DB.
		Where("status = ?", models.OrderStatusCompleted).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}

	spend := map[uint]*TopCustomer{}
	for _, o := range orders {
		tc, ok := spend[o.CustomerID]
		if !ok {
			tc = &TopCustomer{CustomerID: o.CustomerID, TotalSpent: decimal.Zero}
			spend[o.CustomerID] = tc
		}
		tc.OrderCount++
		tc.TotalSpent = tc.TotalSpent.Add(o.TotalAmount)
		if o.OrderDate.After(tc.LastOrderDate) {
			tc.LastOrderDate = o.OrderDate
		}
	}
	if len(spend) == 0 {
		return []TopCustomer{}, nil
	}

	ids := make([]uint, 0, len(spend))
	for id := range spend {
		ids = append(ids, id)
	}
	var customers []models.Customer
	if err := s.DB.Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	for _, c := range customers {
		if tc, ok := spend[c.ID]; ok {
			tc.Name = FullName(c)
			tc.Email = c.Email
		}
	}

	top := make([]TopCustomer, 0, len(spend))
	for _, tc := range spend {
		top = append(top, *tc)
	}
	sort.Slice(top, func(i, j int) bool {
		if !top[i].TotalSpent.Equal(top[j].TotalSpent) {
			return top[i].TotalSpent.GreaterThan(top[j].TotalSpent)
		}
		return top[i].CustomerID < top[j].CustomerID
	})
	if len(top) > count {
		top = top[:count]
	}
	return top, nil
}

type ActivityEntry struct {
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RecentActivity merges the latest orders and customer signups into one
// newest-first feed.
func (s *DashboardService) RecentActivity(count int) ([]ActivityEntry, error) {
	if count <= 0 {
		count = 10
	}
	var orders []models.Order
	err := s.DB.Order("order_date DESC").Limit(count).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	var customers []models.Customer
	err = s.DB.Order("date_joined DESC").Limit(count).Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	entries := make([]ActivityEntry, 0, len(orders)+len(customers))
	for _, o := range orders {
		entries = append(entries, ActivityEntry{
			Kind:        "order",
			Description: fmt.Sprintf("Order %s placed for %s", o.OrderNumber, o.TotalAmount.StringFixed(2)),
			OccurredAt:  o.OrderDate,
		})
	}
	for _, c := range customers {
		entries = append(entries, ActivityEntry{
			Kind:        "customer",
			Description: fmt.Sprintf("Customer %s joined", FullName(c)),
			OccurredAt:  c.DateJoined,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	if len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}
