package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// productColumns are the base fields shared by every listing kind.
const productColumns = `id, shop_id, kind, name, slug, description, price, currency, quantity, status, image_urls, total_reviews, star_rating, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// All listing kinds share one products table; kind-specific attributes live in
// nullable columns on the same row.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// CreateBird inserts a new bird listing into the database.
func (r *ProductRepository) CreateBird(ctx context.Context, b *domain.Bird) error {
	query := `
		INSERT INTO products (id, shop_id, kind, name, slug, description, price, currency, quantity, status, image_urls, species, age_months, gender, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		b.ID,
		b.ShopID,
		domain.ProductKindBird,
		b.Name,
		b.Slug,
		b.Description,
		b.Price,
		b.Currency,
		b.Quantity,
		b.Status,
		joinURLs(b.ImageURLs),
		b.Species,
		b.AgeMonths,
		b.Gender,
		b.Color,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", b.Slug)
		}
		return fmt.Errorf("insert bird: %w", err)
	}

	return nil
}

// CreateAccessory inserts a new accessory listing into the database.
func (r *ProductRepository) CreateAccessory(ctx context.Context, a *domain.Accessory) error {
	query := `
		INSERT INTO products (id, shop_id, kind, name, slug, description, price, currency, quantity, status, image_urls, material, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.ID,
		a.ShopID,
		domain.ProductKindAccessory,
		a.Name,
		a.Slug,
		a.Description,
		a.Price,
		a.Currency,
		a.Quantity,
		a.Status,
		joinURLs(a.ImageURLs),
		a.Material,
		a.Origin,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", a.Slug)
		}
		return fmt.Errorf("insert accessory: %w", err)
	}

	return nil
}

// CreateFood inserts a new food listing into the database.
func (r *ProductRepository) CreateFood(ctx context.Context, f *domain.Food) error {
	query := `
		INSERT INTO products (id, shop_id, kind, name, slug, description, price, currency, quantity, status, image_urls, weight_grams, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		f.ID,
		f.ShopID,
		domain.ProductKindFood,
		f.Name,
		f.Slug,
		f.Description,
		f.Price,
		f.Currency,
		f.Quantity,
		f.Status,
		joinURLs(f.ImageURLs),
		f.WeightGrams,
		f.ExpiresAt,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", f.Slug)
		}
		return fmt.Errorf("insert food: %w", err)
	}

	return nil
}

// GetByID retrieves the base product fields for any kind of listing.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanProduct(ctx, query, id)
}

// GetBySlug retrieves the base product fields by slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanProduct(ctx, query, slug)
}

// GetBirdByID retrieves a bird listing with its kind-specific fields.
func (r *ProductRepository) GetBirdByID(ctx context.Context, id string) (*domain.Bird, error) {
	query := fmt.Sprintf(`
		SELECT %s, species, age_months, gender, color
		FROM products
		WHERE id = $1 AND kind = $2`, productColumns)

	var (
		b         domain.Bird
		imageURLs string
	)
	dests := append(productDests(&b.Product, &imageURLs), &b.Species, &b.AgeMonths, &b.Gender, &b.Color)
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, id, domain.ProductKindBird).Scan(dests...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan bird: %w", err)
	}
	b.ImageURLs = splitURLs(imageURLs)

	return &b, nil
}

// GetAccessoryByID retrieves an accessory listing with its kind-specific fields.
func (r *ProductRepository) GetAccessoryByID(ctx context.Context, id string) (*domain.Accessory, error) {
	query := fmt.Sprintf(`
		SELECT %s, material, origin
		FROM products
		WHERE id = $1 AND kind = $2`, productColumns)

	var (
		a         domain.Accessory
		imageURLs string
	)
	dests := append(productDests(&a.Product, &imageURLs), &a.Material, &a.Origin)
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, id, domain.ProductKindAccessory).Scan(dests...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan accessory: %w", err)
	}
	a.ImageURLs = splitURLs(imageURLs)

	return &a, nil
}

// GetFoodByID retrieves a food listing with its kind-specific fields.
func (r *ProductRepository) GetFoodByID(ctx context.Context, id string) (*domain.Food, error) {
	query := fmt.Sprintf(`
		SELECT %s, weight_grams, expires_at
		FROM products
		WHERE id = $1 AND kind = $2`, productColumns)

	var (
		f         domain.Food
		imageURLs string
	)
	dests := append(productDests(&f.Product, &imageURLs), &f.WeightGrams, &f.ExpiresAt)
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, id, domain.ProductKindFood).Scan(dests...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan food: %w", err)
	}
	f.ImageURLs = splitURLs(imageURLs)

	return &f, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, *filter.Kind)
		argIndex++
	}

	if filter.ShopID != nil {
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", argIndex))
		args = append(args, *filter.ShopID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.MinStar != nil {
		conditions = append(conditions, fmt.Sprintf("star_rating >= $%d", argIndex))
		args = append(args, *filter.MinStar)
		argIndex++
	}

	if filter.InStockOnly {
		conditions = append(conditions, "quantity > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var (
			p         domain.Product
			imageURLs string
		)

		dests := productDests(&p, &imageURLs)
		dests = append(dests, &totalCount)
		if err := rows.Scan(dests...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		p.ImageURLs = splitURLs(imageURLs)

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// UpdateBird modifies an existing bird listing.
func (r *ProductRepository) UpdateBird(ctx context.Context, b *domain.Bird) error {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, currency = $5,
		    quantity = $6, status = $7, image_urls = $8,
		    species = $9, age_months = $10, gender = $11, color = $12, updated_at = $13
		WHERE id = $14 AND kind = $15`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		b.Name,
		b.Slug,
		b.Description,
		b.Price,
		b.Currency,
		b.Quantity,
		b.Status,
		joinURLs(b.ImageURLs),
		b.Species,
		b.AgeMonths,
		b.Gender,
		b.Color,
		b.UpdatedAt,
		b.ID,
		domain.ProductKindBird,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", b.Slug)
		}
		return fmt.Errorf("update bird: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", b.ID)
	}

	return nil
}

// UpdateAccessory modifies an existing accessory listing.
func (r *ProductRepository) UpdateAccessory(ctx context.Context, a *domain.Accessory) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, currency = $5,
		    quantity = $6, status = $7, image_urls = $8,
		    material = $9, origin = $10, updated_at = $11
		WHERE id = $12 AND kind = $13`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.Name,
		a.Slug,
		a.Description,
		a.Price,
		a.Currency,
		a.Quantity,
		a.Status,
		joinURLs(a.ImageURLs),
		a.Material,
		a.Origin,
		a.UpdatedAt,
		a.ID,
		domain.ProductKindAccessory,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", a.Slug)
		}
		return fmt.Errorf("update accessory: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", a.ID)
	}

	return nil
}

// UpdateFood modifies an existing food listing.
func (r *ProductRepository) UpdateFood(ctx context.Context, f *domain.Food) error {
	f.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, currency = $5,
		    quantity = $6, status = $7, image_urls = $8,
		    weight_grams = $9, expires_at = $10, updated_at = $11
		WHERE id = $12 AND kind = $13`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		f.Name,
		f.Slug,
		f.Description,
		f.Price,
		f.Currency,
		f.Quantity,
		f.Status,
		joinURLs(f.ImageURLs),
		f.WeightGrams,
		f.ExpiresAt,
		f.UpdatedAt,
		f.ID,
		domain.ProductKindFood,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", f.Slug)
		}
		return fmt.Errorf("update food: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", f.ID)
	}

	return nil
}

// UpdateStatus changes a product's lifecycle status.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE products SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// DecrementStock atomically reduces the available quantity of an active
// product. The conditional update keeps concurrent checkouts from driving the
// quantity negative.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	query := `
		UPDATE products
		SET quantity = quantity - $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND quantity >= $1`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, qty, time.Now().UTC(), id, domain.ProductStatusActive)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.InvalidInput(fmt.Sprintf("product %s is not available in the requested quantity", id))
	}

	return nil
}

// RestoreStock adds quantity back to a product after a cancellation.
func (r *ProductRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	query := `UPDATE products SET quantity = quantity + $1, updated_at = $2 WHERE id = $3`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, qty, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// UpdateSummary replaces the stored review aggregate for a product.
func (r *ProductRepository) UpdateSummary(ctx context.Context, id string, summary domain.ProductSummary) error {
	query := `UPDATE products SET total_reviews = $1, star_rating = $2, updated_at = $3 WHERE id = $4`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, summary.TotalReviews, summary.StarRating, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update product summary: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// scanProduct is a helper that executes a query expected to return a single product row.
func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var (
		p         domain.Product
		imageURLs string
	)

	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, args...).Scan(productDests(&p, &imageURLs)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.ImageURLs = splitURLs(imageURLs)

	return &p, nil
}

// productDests returns the scan destinations matching productColumns.
func productDests(p *domain.Product, imageURLs *string) []any {
	return []any{
		&p.ID,
		&p.ShopID,
		&p.Kind,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.Currency,
		&p.Quantity,
		&p.Status,
		imageURLs,
		&p.Summary.TotalReviews,
		&p.Summary.StarRating,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
