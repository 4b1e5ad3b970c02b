package handlers

import (
	"net/http"

	"github.com/diewo77/backoffice/internal/httpx"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Dashboard: svc}
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/revenue-series", h.revenueSeries)
		r.Get("/status-distribution", h.statusDistribution)
		r.Get("/top-customers", h.topCustomers)
		r.Get("/recent-activity", h.recentActivity)
	})
}

func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Dashboard.Stats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *DashboardHandler) revenueSeries(w http.ResponseWriter, r *http.Request) {
	points, err := h.Dashboard.RevenueSeries(queryInt(r, "days", 30))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *DashboardHandler) statusDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := h.Dashboard.StatusDistribution()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dist)
}

func (h *DashboardHandler) topCustomers(w http.ResponseWriter, r *http.Request) {
	top, err := h.Dashboard.TopCustomers(queryInt(r, "count", 5))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, top)
}

func (h *DashboardHandler) recentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Dashboard.RecentActivity(queryInt(r, "count", 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, feed)
}
