package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/validator"

	"github.com/kidhood/bird-trading-platform/internal/service"
)

// ShopHandler handles storefront and staff management endpoints.
type ShopHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(svc *service.ShopService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateShopRequest is the JSON request body for opening a shop.
type CreateShopRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// UpdateShopRequest is the JSON request body for updating a shop.
type UpdateShopRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// AddStaffRequest is the JSON request body for attaching a staff member.
type AddStaffRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Handlers ---

// CreateShop handles POST /api/v1/users/shops
func (h *ShopHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req CreateShopRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	shop, err := h.service.CreateShop(r.Context(), identity.AccountID, service.CreateShopInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: shop})
}

// GetShop handles GET /api/v1/shops/{id}
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.service.GetShop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shop})
}

// GetShopBySlug handles GET /api/v1/shops/slug/{slug}
func (h *ShopHandler) GetShopBySlug(w http.ResponseWriter, r *http.Request) {
	shop, err := h.service.GetShopBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shop})
}

// UpdateShop handles PUT /api/v1/shopowner/shops/{id}
func (h *ShopHandler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateShopRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	shop, err := h.service.UpdateShop(r.Context(), identity, chi.URLParam(r, "id"), service.UpdateShopInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: shop})
}

// AddStaff handles POST /api/v1/shopowner/staff
func (h *ShopHandler) AddStaff(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req AddStaffRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	staff, err := h.service.AddStaff(r.Context(), identity, req.Email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: staff})
}

// ListStaff handles GET /api/v1/shopowner/staff
func (h *ShopHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	staff, err := h.service.ListStaff(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: staff})
}

// RevokeStaff handles DELETE /api/v1/shopowner/staff/{id}
func (h *ShopHandler) RevokeStaff(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	if err := h.service.RevokeStaff(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
