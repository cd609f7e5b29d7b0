package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

func newProductTestFixture(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func sampleBird() *domain.Bird {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Bird{
		Product: domain.Product{
			ID:          "prod-1",
			ShopID:      "shop-1",
			Kind:        domain.ProductKindBird,
			Name:        "Chim Chào Mào",
			Slug:        "chim-chao-mao",
			Description: "Hót hay, dạn người",
			Price:       1_500_000,
			Currency:    "VND",
			Quantity:    2,
			Status:      domain.ProductStatusActive,
			ImageURLs:   []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Species:   "Red-whiskered bulbul",
		AgeMonths: 8,
		Gender:    "male",
		Color:     "brown",
	}
}

func productRowValues(p *domain.Product) []any {
	return []any{
		p.ID, p.ShopID, p.Kind, p.Name, p.Slug, p.Description,
		p.Price, p.Currency, p.Quantity, p.Status, "https://cdn.example.com/a.jpg,https://cdn.example.com/b.jpg",
		p.Summary.TotalReviews, p.Summary.StarRating, p.CreatedAt, p.UpdatedAt,
	}
}

func productColumnNames() []string {
	return []string{
		"id", "shop_id", "kind", "name", "slug", "description",
		"price", "currency", "quantity", "status", "image_urls",
		"total_reviews", "star_rating", "created_at", "updated_at",
	}
}

func TestProductRepository_CreateBird_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	b := sampleBird()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			b.ID, b.ShopID, domain.ProductKindBird, b.Name, b.Slug, b.Description,
			b.Price, b.Currency, b.Quantity, b.Status,
			"https://cdn.example.com/a.jpg,https://cdn.example.com/b.jpg",
			b.Species, b.AgeMonths, b.Gender, b.Color,
			b.CreatedAt, b.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateBird(context.Background(), b)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateBird_DuplicateSlug(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	b := sampleBird()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			b.ID, b.ShopID, domain.ProductKindBird, b.Name, b.Slug, b.Description,
			b.Price, b.Currency, b.Quantity, b.Status,
			"https://cdn.example.com/a.jpg,https://cdn.example.com/b.jpg",
			b.Species, b.AgeMonths, b.Gender, b.Color,
			b.CreatedAt, b.UpdatedAt,
		).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.CreateBird(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetBirdByID_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	b := sampleBird()

	columns := append(productColumnNames(), "species", "age_months", "gender", "color")
	values := append(productRowValues(&b.Product), b.Species, b.AgeMonths, b.Gender, b.Color)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(b.ID, domain.ProductKindBird).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(values...))

	got, err := repo.GetBirdByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Species, got.Species)
	assert.Equal(t, b.AgeMonths, got.AgeMonths)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, got.ImageURLs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FilterAndCount(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	b := sampleBird()
	kind := domain.ProductKindBird
	status := domain.ProductStatusActive

	columns := append(productColumnNames(), "total_count")
	values := append(productRowValues(&b.Product), 14)

	mock.ExpectQuery("SELECT .+ count\\(\\*\\) OVER\\(\\) AS total_count.+FROM products").
		WithArgs(kind, status, 9, 9).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(values...))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Kind:    &kind,
		Status:  &status,
		Page:    2,
		PerPage: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 14, total)
	require.Len(t, products, 1)
	assert.Equal(t, b.ID, products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Empty(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(append(productColumnNames(), "total_count")))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs(2, pgxmock.AnyArg(), "prod-1", domain.ProductStatusActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.DecrementStock(context.Background(), "prod-1", 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Insufficient(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs(99, pgxmock.AnyArg(), "prod-1", domain.ProductStatusActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.DecrementStock(context.Background(), "prod-1", 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateSummary_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products SET total_reviews =").
		WithArgs(4, 4.25, pgxmock.AnyArg(), "prod-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateSummary(context.Background(), "prod-1", domain.ProductSummary{TotalReviews: 4, StarRating: 4.25})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
