package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// ShopRepository implements repository.ShopRepository using PostgreSQL.
type ShopRepository struct {
	pool database.DBTX
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(pool database.DBTX) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// Create inserts a new shop into the database.
func (r *ShopRepository) Create(ctx context.Context, s *domain.Shop) error {
	query := `
		INSERT INTO shops (id, owner_id, name, slug, description, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		s.Slug,
		s.Description,
		s.AvatarURL,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("shop", "slug", s.Slug)
		}
		return fmt.Errorf("insert shop: %w", err)
	}

	return nil
}

// GetByID retrieves a shop by its ID.
func (r *ShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	query := `
		SELECT id, owner_id, name, slug, description, avatar_url, created_at, updated_at
		FROM shops
		WHERE id = $1`

	return r.scanShop(ctx, query, id)
}

// GetByOwnerID retrieves the shop owned by the given account.
func (r *ShopRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Shop, error) {
	query := `
		SELECT id, owner_id, name, slug, description, avatar_url, created_at, updated_at
		FROM shops
		WHERE owner_id = $1`

	return r.scanShop(ctx, query, ownerID)
}

// GetBySlug retrieves a shop by its slug.
func (r *ShopRepository) GetBySlug(ctx context.Context, slug string) (*domain.Shop, error) {
	query := `
		SELECT id, owner_id, name, slug, description, avatar_url, created_at, updated_at
		FROM shops
		WHERE slug = $1`

	return r.scanShop(ctx, query, slug)
}

// Update modifies an existing shop in the database.
func (r *ShopRepository) Update(ctx context.Context, s *domain.Shop) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE shops
		SET name = $1, slug = $2, description = $3, avatar_url = $4, updated_at = $5
		WHERE id = $6`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		s.Name,
		s.Slug,
		s.Description,
		s.AvatarURL,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("shop", "slug", s.Slug)
		}
		return fmt.Errorf("update shop: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("shop", s.ID)
	}

	return nil
}

// scanShop is a helper that executes a query expected to return a single shop row.
func (r *ShopRepository) scanShop(ctx context.Context, query string, args ...any) (*domain.Shop, error) {
	var s domain.Shop

	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Slug,
		&s.Description,
		&s.AvatarURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan shop: %w", err)
	}

	return &s, nil
}

// --- Shop Staff Repository ---

// ShopStaffRepository implements repository.ShopStaffRepository using PostgreSQL.
type ShopStaffRepository struct {
	pool database.DBTX
}

// NewShopStaffRepository creates a new PostgreSQL-backed shop staff repository.
func NewShopStaffRepository(pool database.DBTX) *ShopStaffRepository {
	return &ShopStaffRepository{pool: pool}
}

// Add attaches a staff account to a shop.
func (r *ShopStaffRepository) Add(ctx context.Context, s *domain.ShopStaff) error {
	query := `
		INSERT INTO shop_staff (id, shop_id, account_id, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		s.ID,
		s.ShopID,
		s.AccountID,
		s.CreatedAt,
		s.RevokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("shop staff", "account_id", s.AccountID)
		}
		return fmt.Errorf("insert shop staff: %w", err)
	}

	return nil
}

// GetActiveByAccountID retrieves the active staff membership for an account.
func (r *ShopStaffRepository) GetActiveByAccountID(ctx context.Context, accountID string) (*domain.ShopStaff, error) {
	query := `
		SELECT id, shop_id, account_id, created_at, revoked_at
		FROM shop_staff
		WHERE account_id = $1 AND revoked_at IS NULL`

	var s domain.ShopStaff
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, accountID).Scan(
		&s.ID,
		&s.ShopID,
		&s.AccountID,
		&s.CreatedAt,
		&s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan shop staff: %w", err)
	}

	return &s, nil
}

// ListByShopID returns all staff memberships for the given shop.
func (r *ShopStaffRepository) ListByShopID(ctx context.Context, shopID string) ([]domain.ShopStaff, error) {
	query := `
		SELECT id, shop_id, account_id, created_at, revoked_at
		FROM shop_staff
		WHERE shop_id = $1
		ORDER BY created_at DESC`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list shop staff: %w", err)
	}
	defer rows.Close()

	var staff []domain.ShopStaff
	for rows.Next() {
		var s domain.ShopStaff
		if err := rows.Scan(
			&s.ID,
			&s.ShopID,
			&s.AccountID,
			&s.CreatedAt,
			&s.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shop staff row: %w", err)
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shop staff rows: %w", err)
	}

	if staff == nil {
		staff = []domain.ShopStaff{}
	}

	return staff, nil
}

// Revoke ends a staff membership.
func (r *ShopStaffRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE shop_staff SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("revoke shop staff: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("shop staff", id)
	}

	return nil
}
