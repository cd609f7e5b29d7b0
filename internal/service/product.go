package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/slug"
)

// defaultCurrency is used when a listing does not name one.
const defaultCurrency = "VND"

// ShopResolver maps an identity to the shop it acts for.
type ShopResolver interface {
	ResolveShopID(ctx context.Context, identity *authz.Identity) (string, error)
}

// ProductCache is a read-through cache for product detail views.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

// CatalogService implements the business logic for product listings.
type CatalogService struct {
	productRepo repository.ProductRepository
	cache       ProductCache
	shops       ShopResolver
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	productRepo repository.ProductRepository,
	cache ProductCache,
	shops ShopResolver,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		cache:       cache,
		shops:       shops,
		logger:      logger,
	}
}

// --- Input types ---

// ProductInput holds the base fields shared by every listing kind.
type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Currency    string
	Quantity    int
	ImageURLs   []string
}

// BirdInput holds the parameters for a live bird listing.
type BirdInput struct {
	ProductInput
	Species   string
	AgeMonths int
	Gender    string
	Color     string
}

// AccessoryInput holds the parameters for an accessory listing.
type AccessoryInput struct {
	ProductInput
	Material string
	Origin   string
}

// FoodInput holds the parameters for a food listing.
type FoodInput struct {
	ProductInput
	WeightGrams int
	ExpiresAt   *time.Time
}

// UpdateProductInput holds the patchable base fields of a listing.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Quantity    *int
	ImageURLs   []string
}

// UpdateBirdInput holds the patchable fields of a bird listing.
type UpdateBirdInput struct {
	UpdateProductInput
	Species   *string
	AgeMonths *int
	Gender    *string
	Color     *string
}

// UpdateAccessoryInput holds the patchable fields of an accessory listing.
type UpdateAccessoryInput struct {
	UpdateProductInput
	Material *string
	Origin   *string
}

// UpdateFoodInput holds the patchable fields of a food listing.
type UpdateFoodInput struct {
	UpdateProductInput
	WeightGrams *int
	ExpiresAt   *time.Time
}

// SearchInput holds the public catalog search criteria.
type SearchInput struct {
	Kind        string
	ShopID      string
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	MinStar     *float64
	InStockOnly bool
	Page        int
	PerPage     int
}

// --- Create operations ---

// CreateBird creates a new bird listing for the caller's shop.
func (s *CatalogService) CreateBird(ctx context.Context, identity *authz.Identity, input BirdInput) (*domain.Bird, error) {
	if err := validateProductInput(&input.ProductInput); err != nil {
		return nil, err
	}
	if input.Species == "" {
		return nil, apperrors.InvalidInput("species is required")
	}
	if input.AgeMonths < 0 {
		return nil, apperrors.InvalidInput("age must not be negative")
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	bird := &domain.Bird{
		Product:   newProduct(shopID, domain.ProductKindBird, &input.ProductInput),
		Species:   input.Species,
		AgeMonths: input.AgeMonths,
		Gender:    input.Gender,
		Color:     input.Color,
	}

	err = s.createWithSlugRetry(&bird.Product, func() error {
		return s.productRepo.CreateBird(ctx, bird)
	})
	if err != nil {
		return nil, fmt.Errorf("create bird: %w", err)
	}

	s.logger.InfoContext(ctx, "bird listing created",
		slog.String("product_id", bird.ID),
		slog.String("shop_id", shopID),
		slog.String("slug", bird.Slug),
	)

	return bird, nil
}

// CreateAccessory creates a new accessory listing for the caller's shop.
func (s *CatalogService) CreateAccessory(ctx context.Context, identity *authz.Identity, input AccessoryInput) (*domain.Accessory, error) {
	if err := validateProductInput(&input.ProductInput); err != nil {
		return nil, err
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	accessory := &domain.Accessory{
		Product:  newProduct(shopID, domain.ProductKindAccessory, &input.ProductInput),
		Material: input.Material,
		Origin:   input.Origin,
	}

	err = s.createWithSlugRetry(&accessory.Product, func() error {
		return s.productRepo.CreateAccessory(ctx, accessory)
	})
	if err != nil {
		return nil, fmt.Errorf("create accessory: %w", err)
	}

	s.logger.InfoContext(ctx, "accessory listing created",
		slog.String("product_id", accessory.ID),
		slog.String("shop_id", shopID),
	)

	return accessory, nil
}

// CreateFood creates a new food listing for the caller's shop.
func (s *CatalogService) CreateFood(ctx context.Context, identity *authz.Identity, input FoodInput) (*domain.Food, error) {
	if err := validateProductInput(&input.ProductInput); err != nil {
		return nil, err
	}
	if input.WeightGrams <= 0 {
		return nil, apperrors.InvalidInput("weight must be positive")
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now().UTC()) {
		return nil, apperrors.InvalidInput("expiry date must be in the future")
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	food := &domain.Food{
		Product:     newProduct(shopID, domain.ProductKindFood, &input.ProductInput),
		WeightGrams: input.WeightGrams,
		ExpiresAt:   input.ExpiresAt,
	}

	err = s.createWithSlugRetry(&food.Product, func() error {
		return s.productRepo.CreateFood(ctx, food)
	})
	if err != nil {
		return nil, fmt.Errorf("create food: %w", err)
	}

	s.logger.InfoContext(ctx, "food listing created",
		slog.String("product_id", food.ID),
		slog.String("shop_id", shopID),
	)

	return food, nil
}

// --- Read operations ---

// GetProduct retrieves the base product view by ID, serving from the cache
// when possible. Cache failures never fail the read.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if err := s.cache.Set(ctx, product); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// GetProductBySlug retrieves the base product view by slug.
func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// GetBird retrieves a bird listing with its kind-specific fields.
func (s *CatalogService) GetBird(ctx context.Context, id string) (*domain.Bird, error) {
	bird, err := s.productRepo.GetBirdByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bird: %w", err)
	}
	return bird, nil
}

// GetAccessory retrieves an accessory listing with its kind-specific fields.
func (s *CatalogService) GetAccessory(ctx context.Context, id string) (*domain.Accessory, error) {
	accessory, err := s.productRepo.GetAccessoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get accessory: %w", err)
	}
	return accessory, nil
}

// GetFood retrieves a food listing with its kind-specific fields.
func (s *CatalogService) GetFood(ctx context.Context, id string) (*domain.Food, error) {
	food, err := s.productRepo.GetFoodByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	return food, nil
}

// Search lists products for the public storefront. Only active listings are
// ever returned, whatever the caller asks for.
func (s *CatalogService) Search(ctx context.Context, input SearchInput) ([]domain.Product, int, error) {
	if input.Kind != "" && !domain.IsValidProductKind(input.Kind) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown product kind %q", input.Kind))
	}
	if input.MinPrice != nil && input.MaxPrice != nil && *input.MinPrice > *input.MaxPrice {
		return nil, 0, apperrors.InvalidInput("min price must not exceed max price")
	}

	status := domain.ProductStatusActive
	filter := repository.ProductFilter{
		Status:      &status,
		MinPrice:    input.MinPrice,
		MaxPrice:    input.MaxPrice,
		MinStar:     input.MinStar,
		InStockOnly: input.InStockOnly,
		Page:        input.Page,
		PerPage:     input.PerPage,
	}
	if input.Kind != "" {
		filter.Kind = &input.Kind
	}
	if input.ShopID != "" {
		filter.ShopID = &input.ShopID
	}
	if input.Search != "" {
		filter.Search = &input.Search
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}

	return products, total, nil
}

// ListShopProducts lists the caller's own listings in every status.
func (s *CatalogService) ListShopProducts(ctx context.Context, identity *authz.Identity, kind, status string, page, perPage int) ([]domain.Product, int, error) {
	if kind != "" && !domain.IsValidProductKind(kind) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown product kind %q", kind))
	}
	if status != "" && !domain.IsValidProductStatus(status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown product status %q", status))
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.ProductFilter{
		ShopID:  &shopID,
		Page:    page,
		PerPage: perPage,
	}
	if kind != "" {
		filter.Kind = &kind
	}
	if status != "" {
		filter.Status = &status
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list shop products: %w", err)
	}

	return products, total, nil
}

// --- Update operations ---

// UpdateBird updates a bird listing owned by the caller's shop.
func (s *CatalogService) UpdateBird(ctx context.Context, identity *authz.Identity, id string, input UpdateBirdInput) (*domain.Bird, error) {
	bird, err := s.productRepo.GetBirdByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bird for update: %w", err)
	}
	if err := s.authorizeShopWrite(ctx, identity, &bird.Product); err != nil {
		return nil, err
	}

	if err := applyProductPatch(&bird.Product, &input.UpdateProductInput); err != nil {
		return nil, err
	}
	if input.Species != nil {
		if *input.Species == "" {
			return nil, apperrors.InvalidInput("species must not be empty")
		}
		bird.Species = *input.Species
	}
	if input.AgeMonths != nil {
		if *input.AgeMonths < 0 {
			return nil, apperrors.InvalidInput("age must not be negative")
		}
		bird.AgeMonths = *input.AgeMonths
	}
	if input.Gender != nil {
		bird.Gender = *input.Gender
	}
	if input.Color != nil {
		bird.Color = *input.Color
	}

	if err := s.productRepo.UpdateBird(ctx, bird); err != nil {
		return nil, fmt.Errorf("update bird: %w", err)
	}
	s.invalidate(ctx, id)

	return bird, nil
}

// UpdateAccessory updates an accessory listing owned by the caller's shop.
func (s *CatalogService) UpdateAccessory(ctx context.Context, identity *authz.Identity, id string, input UpdateAccessoryInput) (*domain.Accessory, error) {
	accessory, err := s.productRepo.GetAccessoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get accessory for update: %w", err)
	}
	if err := s.authorizeShopWrite(ctx, identity, &accessory.Product); err != nil {
		return nil, err
	}

	if err := applyProductPatch(&accessory.Product, &input.UpdateProductInput); err != nil {
		return nil, err
	}
	if input.Material != nil {
		accessory.Material = *input.Material
	}
	if input.Origin != nil {
		accessory.Origin = *input.Origin
	}

	if err := s.productRepo.UpdateAccessory(ctx, accessory); err != nil {
		return nil, fmt.Errorf("update accessory: %w", err)
	}
	s.invalidate(ctx, id)

	return accessory, nil
}

// UpdateFood updates a food listing owned by the caller's shop.
func (s *CatalogService) UpdateFood(ctx context.Context, identity *authz.Identity, id string, input UpdateFoodInput) (*domain.Food, error) {
	food, err := s.productRepo.GetFoodByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get food for update: %w", err)
	}
	if err := s.authorizeShopWrite(ctx, identity, &food.Product); err != nil {
		return nil, err
	}

	if err := applyProductPatch(&food.Product, &input.UpdateProductInput); err != nil {
		return nil, err
	}
	if input.WeightGrams != nil {
		if *input.WeightGrams <= 0 {
			return nil, apperrors.InvalidInput("weight must be positive")
		}
		food.WeightGrams = *input.WeightGrams
	}
	if input.ExpiresAt != nil {
		food.ExpiresAt = input.ExpiresAt
	}

	if err := s.productRepo.UpdateFood(ctx, food); err != nil {
		return nil, fmt.Errorf("update food: %w", err)
	}
	s.invalidate(ctx, id)

	return food, nil
}

// UpdateStatus moves a listing between active, hidden and archived.
func (s *CatalogService) UpdateStatus(ctx context.Context, identity *authz.Identity, id, status string) error {
	if !domain.IsValidProductStatus(status) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown product status %q", status))
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for status change: %w", err)
	}
	if err := s.authorizeShopWrite(ctx, identity, product); err != nil {
		return err
	}

	if err := s.productRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product status changed",
		slog.String("product_id", id),
		slog.String("status", status),
	)

	return nil
}

// ArchiveProduct soft-deletes a listing. Archived products stay referenced by
// past orders and reviews.
func (s *CatalogService) ArchiveProduct(ctx context.Context, identity *authz.Identity, id string) error {
	return s.UpdateStatus(ctx, identity, id, domain.ProductStatusArchived)
}

// --- Helpers ---

// authorizeShopWrite checks that the identity may modify the given product.
func (s *CatalogService) authorizeShopWrite(ctx context.Context, identity *authz.Identity, product *domain.Product) error {
	if identity.Role == authz.RoleAdmin {
		return nil
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return err
	}
	if product.ShopID != shopID {
		return apperrors.Forbidden("product belongs to another shop")
	}
	return nil
}

// createWithSlugRetry inserts a listing, retrying once with a uniquified slug
// when the generated one collides.
func (s *CatalogService) createWithSlugRetry(product *domain.Product, insert func() error) error {
	err := insert()
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		return err
	}

	product.Slug = fmt.Sprintf("%s-%s", product.Slug, product.ID[:8])
	return insert()
}

// invalidate drops a product from the cache, logging on failure.
func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// newProduct builds the base product record for a new listing.
func newProduct(shopID, kind string, input *ProductInput) domain.Product {
	currency := input.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := time.Now().UTC()
	return domain.Product{
		ID:          uuid.New().String(),
		ShopID:      shopID,
		Kind:        kind,
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Currency:    currency,
		Quantity:    input.Quantity,
		Status:      domain.ProductStatusActive,
		ImageURLs:   input.ImageURLs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// validateProductInput checks the base fields shared by every listing kind.
func validateProductInput(input *ProductInput) error {
	if input.Name == "" {
		return apperrors.InvalidInput("product name is required")
	}
	if input.Price <= 0 {
		return apperrors.InvalidInput("price must be positive")
	}
	if input.Quantity < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}
	return nil
}

// applyProductPatch applies the base-field patch to a product.
func applyProductPatch(product *domain.Product, input *UpdateProductInput) error {
	if input.Name != nil {
		if *input.Name == "" {
			return apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return apperrors.InvalidInput("price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return apperrors.InvalidInput("quantity must not be negative")
		}
		product.Quantity = *input.Quantity
	}
	if input.ImageURLs != nil {
		product.ImageURLs = input.ImageURLs
	}
	return nil
}
