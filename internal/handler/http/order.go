package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/pagination"
	"github.com/kidhood/bird-trading-platform/pkg/validator"

	"github.com/kidhood/bird-trading-platform/internal/service"
)

// OrderHandler handles checkout and order management endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// OrderLineRequest is one basket line in a checkout request.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderRequest is the JSON request body for a checkout.
type PlaceOrderRequest struct {
	AddressID string             `json:"address_id" validate:"required,uuid"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest is the JSON request body for an order status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=paid shipping delivered canceled"`
}

// --- Handlers ---

// PlaceOrder handles POST /api/v1/users/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req PlaceOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	lines := make([]service.OrderLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.OrderLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	pkg, err := h.service.PlaceOrder(r.Context(), identity, service.PlaceOrderInput{
		AddressID: req.AddressID,
		Lines:     lines,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: pkg})
}

// GetPackage handles GET /api/v1/users/orders/{id}
func (h *OrderHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	pkg, err := h.service.GetPackage(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pkg})
}

// ListMyPackages handles GET /api/v1/users/orders
func (h *OrderHandler) ListMyPackages(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	params := pagination.FromRequest(r)
	packages, total, err := h.service.ListMyPackages(r.Context(), identity, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(packages, total, params),
	})
}

// ListShopOrders handles GET /api/v1/shopowner/orders and /api/v1/shopstaff/orders
func (h *OrderHandler) ListShopOrders(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	params := pagination.FromRequest(r)
	orders, total, err := h.service.ListShopOrders(r.Context(), identity, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(orders, total, params),
	})
}

// UpdateOrderStatus handles PUT /api/v1/shopowner/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateOrderStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), identity, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
