package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/backoffice/internal/httpx"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	Orders   *services.OrderService
	Invoices *services.InvoiceService
}

func NewOrderHandler(orders *services.OrderService, invoices *services.InvoiceService) *OrderHandler {
	return &OrderHandler{Orders: orders, Invoices: invoices}
}

func (h *OrderHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/recent", h.recent)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/status", h.updateStatus)
		r.Put("/{id}/items", h.replaceItems)
		r.Post("/{id}/invoice", h.createInvoice)
	})
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.OrderListParams{
		Search:   q.Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	if s := q.Get("status"); s != "" {
		st := models.OrderStatus(s)
		params.Status = &st
	}
	orders, total, err := h.Orders.List(params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: orders, Total: total, Page: params.Page, PageSize: params.PageSize})
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateOrderInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	o, err := h.Orders.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) recent(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.Recent(queryInt(r, "count", 5))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Orders.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

// orderView adds the derived delivery-overdue flag to the stored order for
// display.
type orderView struct {
	*models.Order
	IsOverdue bool `json:"is_overdue"`
}

func newOrderView(o *models.Order) orderView {
	return orderView{
		Order:     o,
		IsOverdue: services.OrderOverdue(o.Status, o.ExpectedDeliveryDate, time.Now().UTC()),
	}
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	o, err := h.Orders.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newOrderView(o))
}

func (h *OrderHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.UpdateOrderInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	o, err := h.Orders.Update(id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	hard, err := h.Orders.Delete(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": hard, "cancelled": !hard})
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	o, err := h.Orders.UpdateStatus(id, in.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) replaceItems(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Items          []services.OrderItemInput `json:"items"`
		DiscountAmount decimal.Decimal           `json:"discount_amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	o, err := h.Orders.ReplaceItems(id, in.Items, in.DiscountAmount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// createInvoice turns an order into an invoice snapshot.
func (h *OrderHandler) createInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Invoices.CreateFromOrder(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
