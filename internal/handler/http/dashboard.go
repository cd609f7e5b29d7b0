package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/httputil"

	"github.com/kidhood/bird-trading-platform/internal/service"
)

// DashboardHandler handles the shop-owner revenue chart endpoints.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// RevenueLineChart handles GET /api/v1/shopowner/dashboard/line?days=7
func (h *DashboardHandler) RevenueLineChart(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("days must be an integer"), h.logger)
			return
		}
		days = n
	}

	stats, err := h.service.RevenueLineChart(r.Context(), identity, days)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// RevenuePie handles GET /api/v1/shopowner/dashboard/pie?from=...&to=...
//
// from/to are optional RFC 3339 timestamps; both absent means all time.
func (h *DashboardHandler) RevenuePie(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("from must be an RFC 3339 timestamp"), h.logger)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("to must be an RFC 3339 timestamp"), h.logger)
			return
		}
		to = t
	}

	revenue, err := h.service.RevenuePie(r.Context(), identity, from, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: revenue})
}

// WeeklyRevenue handles GET /api/v1/shopowner/dashboard/weekly
func (h *DashboardHandler) WeeklyRevenue(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	comparison, err := h.service.WeeklyRevenue(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comparison})
}
