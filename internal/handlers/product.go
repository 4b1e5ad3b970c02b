package handlers

import (
	"net/http"

	"github.com/diewo77/backoffice/internal/httpx"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	Products *services.ProductService
}

func NewProductHandler(svc *services.ProductService) *ProductHandler {
	return &ProductHandler{Products: svc}
}

func (h *ProductHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/featured", h.featured)
		r.Get("/low-stock", h.lowStock)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/stock", h.updateStock)
	})
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.ProductListParams{
		Search:   q.Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	if c := q.Get("category"); c != "" {
		cat := models.ProductCategory(c)
		params.Category = &cat
	}
	products, total, err := h.Products.List(params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listEnvelope{Items: products, Total: total, Page: params.Page, PageSize: params.PageSize})
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	p, err := h.Products.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.Featured(queryInt(r, "count", 8))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.LowStock()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Products.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

// productView adds the derived margin and stock label to the stored product
// for display.
type productView struct {
	*models.Product
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	StockStatus  string          `json:"stock_status"`
}

func newProductView(p *models.Product) productView {
	return productView{
		Product:      p,
		ProfitMargin: services.ProfitMargin(p.Price, p.CostPrice),
		StockStatus:  services.StockStatus(p.StockQuantity, p.MinimumStock),
	}
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	p, err := h.Products.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newProductView(p))
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	p, err := h.Products.Update(id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	hard, err := h.Products.Delete(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": hard, "deactivated": !hard})
}

func (h *ProductHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	p, err := h.Products.UpdateStock(id, in.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
