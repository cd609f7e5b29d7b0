package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/validator"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/service"
)

// AccountHandler handles profile and address endpoints.
type AccountHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// identityOrUnauthorized returns the caller identity, or writes a 401 and
// returns nil. The authz middleware normally guarantees an identity on these
// routes; this is the backstop for misconfigured route tables.
func identityOrUnauthorized(w http.ResponseWriter, r *http.Request, l *slog.Logger) *authz.Identity {
	identity := authz.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), l)
		return nil
	}
	return identity
}

// --- Request DTOs ---

// UpdateProfileRequest is the JSON request body for updating the profile.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// CreateAddressRequest is the JSON request body for creating an address.
type CreateAddressRequest struct {
	FullName  string `json:"full_name" validate:"required,min=1,max=200"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Street    string `json:"street" validate:"required,min=1,max=500"`
	Ward      string `json:"ward" validate:"omitempty,max=100"`
	District  string `json:"district" validate:"required,min=1,max=100"`
	City      string `json:"city" validate:"required,min=1,max=100"`
	IsDefault bool   `json:"is_default"`
}

// UpdateAddressRequest is the JSON request body for updating an address.
type UpdateAddressRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Street   *string `json:"street" validate:"omitempty,min=1,max=500"`
	Ward     *string `json:"ward" validate:"omitempty,max=100"`
	District *string `json:"district" validate:"omitempty,min=1,max=100"`
	City     *string `json:"city" validate:"omitempty,min=1,max=100"`
}

// --- Handlers ---

// GetProfile handles GET /api/v1/users/me
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	account, err := h.service.GetProfile(r.Context(), identity.AccountID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// UpdateProfile handles PUT /api/v1/users/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), identity.AccountID, service.UpdateProfileInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// ListAddresses handles GET /api/v1/users/me/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), identity.AccountID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addresses})
}

// CreateAddress handles POST /api/v1/users/me/addresses
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req CreateAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	address, err := h.service.CreateAddress(r.Context(), identity.AccountID, &service.CreateAddressInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Street:    req.Street,
		Ward:      req.Ward,
		District:  req.District,
		City:      req.City,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: address})
}

// UpdateAddress handles PUT /api/v1/users/me/addresses/{id}
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}
	addressID := chi.URLParam(r, "id")

	var req UpdateAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	address, err := h.service.UpdateAddress(r.Context(), identity.AccountID, addressID, &service.UpdateAddressInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Street:   req.Street,
		Ward:     req.Ward,
		District: req.District,
		City:     req.City,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// DeleteAddress handles DELETE /api/v1/users/me/addresses/{id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	if err := h.service.DeleteAddress(r.Context(), identity.AccountID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAddress handles PUT /api/v1/users/me/addresses/{id}/default
func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	if err := h.service.SetDefaultAddress(r.Context(), identity.AccountID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "default address set"},
	})
}
