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

type InvoiceHandler struct {
	Invoices *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Invoices: svc}
}

func (h *InvoiceHandler) Register(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/overdue", h.overdue)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/status", h.updateStatus)
		r.Get("/{id}/payments", h.payments)
		r.Post("/{id}/payments", h.addPayment)
	})
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.InvoiceListParams{
		Search:   q.Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	if s := q.Get("status"); s != "" {
		st := models.InvoiceStatus(s)
		params.Status = &st
	}
	invoices, total, err := h.Invoices.List(params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: invoices, Total: total, Page: params.Page, PageSize: params.PageSize})
}

func (h *InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Invoices.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) overdue(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Invoices.Overdue()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Invoices.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

// invoiceView adds the derived payment fields to the stored invoice for
// display.
type invoiceView struct {
	*models.Invoice
	AmountDue       decimal.Decimal `json:"amount_due"`
	PaymentProgress decimal.Decimal `json:"payment_progress"`
	IsOverdue       bool            `json:"is_overdue"`
}

func newInvoiceView(inv *models.Invoice) invoiceView {
	return invoiceView{
		Invoice:         inv,
		AmountDue:       services.AmountDue(inv.TotalAmount, inv.AmountPaid),
		PaymentProgress: services.PaymentProgress(inv.TotalAmount, inv.AmountPaid),
		IsOverdue:       services.InvoiceOverdue(inv.Status, inv.DueDate, time.Now().UTC()),
	}
}

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Invoices.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceView(inv))
}

func (h *InvoiceHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.UpdateInvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Invoices.Update(id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	hard, err := h.Invoices.Delete(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": hard, "cancelled": !hard})
}

func (h *InvoiceHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Invoices.UpdateStatus(id, in.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) payments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	list, err := h.Invoices.Payments(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *InvoiceHandler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.AddPaymentInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in.InvoiceID = id
	p, err := h.Invoices.AddPayment(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}
