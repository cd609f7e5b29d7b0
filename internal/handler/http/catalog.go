package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/pagination"
	"github.com/kidhood/bird-trading-platform/pkg/validator"

	"github.com/kidhood/bird-trading-platform/internal/service"
)

// CatalogHandler handles the public catalog and the shop-owner listing CRUD.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ProductRequest carries the base fields shared by all listing kinds.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	ImageURLs   []string `json:"image_urls" validate:"omitempty,max=10,dive,url"`
}

// CreateBirdRequest is the JSON request body for a bird listing.
type CreateBirdRequest struct {
	ProductRequest
	Species   string `json:"species" validate:"required,min=1,max=200"`
	AgeMonths int    `json:"age_months" validate:"gte=0"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female unknown"`
	Color     string `json:"color" validate:"omitempty,max=100"`
}

// CreateAccessoryRequest is the JSON request body for an accessory listing.
type CreateAccessoryRequest struct {
	ProductRequest
	Material string `json:"material" validate:"omitempty,max=200"`
	Origin   string `json:"origin" validate:"omitempty,max=200"`
}

// CreateFoodRequest is the JSON request body for a food listing.
type CreateFoodRequest struct {
	ProductRequest
	WeightGrams int        `json:"weight_grams" validate:"required,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UpdateProductRequest carries the patchable base fields.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *int64   `json:"price" validate:"omitempty,gt=0"`
	Quantity    *int     `json:"quantity" validate:"omitempty,gte=0"`
	ImageURLs   []string `json:"image_urls" validate:"omitempty,max=10,dive,url"`
}

// UpdateBirdRequest is the JSON request body for patching a bird listing.
type UpdateBirdRequest struct {
	UpdateProductRequest
	Species   *string `json:"species" validate:"omitempty,min=1,max=200"`
	AgeMonths *int    `json:"age_months" validate:"omitempty,gte=0"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female unknown"`
	Color     *string `json:"color" validate:"omitempty,max=100"`
}

// UpdateAccessoryRequest is the JSON request body for patching an accessory.
type UpdateAccessoryRequest struct {
	UpdateProductRequest
	Material *string `json:"material" validate:"omitempty,max=200"`
	Origin   *string `json:"origin" validate:"omitempty,max=200"`
}

// UpdateFoodRequest is the JSON request body for patching a food listing.
type UpdateFoodRequest struct {
	UpdateProductRequest
	WeightGrams *int       `json:"weight_grams" validate:"omitempty,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UpdateStatusRequest is the JSON request body for flipping a listing status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active hidden archived"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Quantity:    r.Quantity,
		ImageURLs:   r.ImageURLs,
	}
}

func (r UpdateProductRequest) toInput() service.UpdateProductInput {
	return service.UpdateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		ImageURLs:   r.ImageURLs,
	}
}

// --- Public catalog ---

// Search handles GET /api/v1/products
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := pagination.FromRequest(r)

	input := service.SearchInput{
		Kind:        q.Get("kind"),
		ShopID:      q.Get("shop_id"),
		Search:      q.Get("q"),
		InStockOnly: q.Get("in_stock") == "true",
		Page:        params.Page,
		PerPage:     params.PerPage,
	}
	if v := q.Get("min_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.MinPrice = &n
		}
	}
	if v := q.Get("max_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			input.MaxPrice = &n
		}
	}
	if v := q.Get("min_star"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			input.MinStar = &f
		}
	}

	products, total, err := h.service.Search(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(products, total, params),
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// GetProductBySlug handles GET /api/v1/products/slug/{slug}
func (h *CatalogHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// GetBird handles GET /api/v1/birds/{id}
func (h *CatalogHandler) GetBird(w http.ResponseWriter, r *http.Request) {
	bird, err := h.service.GetBird(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bird})
}

// GetAccessory handles GET /api/v1/accessories/{id}
func (h *CatalogHandler) GetAccessory(w http.ResponseWriter, r *http.Request) {
	accessory, err := h.service.GetAccessory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: accessory})
}

// GetFood handles GET /api/v1/foods/{id}
func (h *CatalogHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	food, err := h.service.GetFood(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: food})
}

// --- Shop-owner CRUD ---

// CreateBird handles POST /api/v1/shopowner/birds
func (h *CatalogHandler) CreateBird(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req CreateBirdRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	bird, err := h.service.CreateBird(r.Context(), identity, service.BirdInput{
		ProductInput: req.toInput(),
		Species:      req.Species,
		AgeMonths:    req.AgeMonths,
		Gender:       req.Gender,
		Color:        req.Color,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: bird})
}

// CreateAccessory handles POST /api/v1/shopowner/accessories
func (h *CatalogHandler) CreateAccessory(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req CreateAccessoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	accessory, err := h.service.CreateAccessory(r.Context(), identity, service.AccessoryInput{
		ProductInput: req.toInput(),
		Material:     req.Material,
		Origin:       req.Origin,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: accessory})
}

// CreateFood handles POST /api/v1/shopowner/foods
func (h *CatalogHandler) CreateFood(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req CreateFoodRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	food, err := h.service.CreateFood(r.Context(), identity, service.FoodInput{
		ProductInput: req.toInput(),
		WeightGrams:  req.WeightGrams,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: food})
}

// ListShopProducts handles GET /api/v1/shopowner/products
func (h *CatalogHandler) ListShopProducts(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	q := r.URL.Query()
	params := pagination.FromRequest(r)

	products, total, err := h.service.ListShopProducts(r.Context(), identity,
		q.Get("kind"), q.Get("status"), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(products, total, params),
	})
}

// UpdateBird handles PUT /api/v1/shopowner/birds/{id}
func (h *CatalogHandler) UpdateBird(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateBirdRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	bird, err := h.service.UpdateBird(r.Context(), identity, chi.URLParam(r, "id"), service.UpdateBirdInput{
		UpdateProductInput: req.toInput(),
		Species:            req.Species,
		AgeMonths:          req.AgeMonths,
		Gender:             req.Gender,
		Color:              req.Color,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: bird})
}

// UpdateAccessory handles PUT /api/v1/shopowner/accessories/{id}
func (h *CatalogHandler) UpdateAccessory(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateAccessoryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	accessory, err := h.service.UpdateAccessory(r.Context(), identity, chi.URLParam(r, "id"), service.UpdateAccessoryInput{
		UpdateProductInput: req.toInput(),
		Material:           req.Material,
		Origin:             req.Origin,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: accessory})
}

// UpdateFood handles PUT /api/v1/shopowner/foods/{id}
func (h *CatalogHandler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateFoodRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	food, err := h.service.UpdateFood(r.Context(), identity, chi.URLParam(r, "id"), service.UpdateFoodInput{
		UpdateProductInput: req.toInput(),
		WeightGrams:        req.WeightGrams,
		ExpiresAt:          req.ExpiresAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: food})
}

// UpdateStatus handles PUT /api/v1/shopowner/products/{id}/status
func (h *CatalogHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), identity, chi.URLParam(r, "id"), req.Status); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": req.Status},
	})
}

// ArchiveProduct handles DELETE /api/v1/shopowner/products/{id}
func (h *CatalogHandler) ArchiveProduct(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	if err := h.service.ArchiveProduct(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
