package server

import (
	"net/http"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/handlers"
	"github.com/diewo77/backoffice/internal/httpx"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	Customers *services.CustomerService
	Products  *services.ProductService
	Orders    *services.OrderService
	Invoices  *services.InvoiceService
	Dashboard *services.DashboardService
}

// New wires the services on one gorm handle. Order status changes and
// recorded payments are logged through the event hooks.
func New(db *gorm.DB, cfg config.Config, log zerolog.Logger) *Server {
	s := &Server{
		Customers: services.NewCustomerService(db, log),
		Products:  services.NewProductService(db, log),
		Orders:    services.NewOrderService(db, cfg, log),
		Invoices:  services.NewInvoiceService(db, cfg, log),
		Dashboard: services.NewDashboardService(db, log),
	}
	s.Orders.Events = services.Events{
		OrderStatusChanged: func(orderID uint, from, to models.OrderStatus) {
			log.Info().Uint("order_id", orderID).Str("from", string(from)).Str("to", string(to)).Msg("order status changed")
		},
	}
	s.Invoices.Events = services.Events{
		PaymentRecorded: func(invoiceID uint, amount decimal.Decimal, status models.InvoiceStatus) {
			log.Info().Uint("invoice_id", invoiceID).Str("amount", amount.StringFixed(2)).Str("status", string(status)).Msg("payment recorded")
		},
	}
	return s
}

// Router builds the chi mux with the shared middleware stack and the
// /api/v1 routes.
func Router(s *Server, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(recoverer(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		handlers.NewCustomerHandler(s.Customers).Register(r)
		handlers.NewProductHandler(s.Products).Register(r)
		handlers.NewOrderHandler(s.Orders, s.Invoices).Register(r)
		handlers.NewInvoiceHandler(s.Invoices).Register(r)
		handlers.NewDashboardHandler(s.Dashboard).Register(r)
	})

	return r
}
