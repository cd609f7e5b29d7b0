package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// DefaultReviewPageSize is the review page size used when the caller does not
// ask for one.
const DefaultReviewPageSize = 9

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review into the database. The unique constraint on
// order_detail_id enforces at most one review per order line.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO product_reviews (id, order_detail_id, product_id, account_id, rating, comment, image_urls, review_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		review.ID,
		review.OrderDetailID,
		review.ProductID,
		review.AccountID,
		review.Rating.Stars(),
		review.Comment,
		joinURLs(review.ImageURLs),
		review.ReviewDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "order_detail_id", review.OrderDetailID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByOrderDetailID retrieves the review attached to an order line.
func (r *ReviewRepository) GetByOrderDetailID(ctx context.Context, orderDetailID string) (*domain.Review, error) {
	query := `
		SELECT id, order_detail_id, product_id, account_id, rating, comment, image_urls, review_date
		FROM product_reviews
		WHERE order_detail_id = $1`

	var (
		rv        domain.Review
		stars     int
		imageURLs string
	)
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, orderDetailID).Scan(
		&rv.ID,
		&rv.OrderDetailID,
		&rv.ProductID,
		&rv.AccountID,
		&stars,
		&rv.Comment,
		&imageURLs,
		&rv.ReviewDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	rv.Rating = domain.Rating(stars)
	rv.ImageURLs = splitURLs(imageURLs)

	return &rv, nil
}

// ListByProductID returns paginated reviews for a product, newest first.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = DefaultReviewPageSize
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, order_detail_id, product_id, account_id, rating, comment, image_urls, review_date,
		       count(*) OVER() AS total_count
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY review_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var (
			rv        domain.Review
			stars     int
			imageURLs string
		)

		if err := rows.Scan(
			&rv.ID,
			&rv.OrderDetailID,
			&rv.ProductID,
			&rv.AccountID,
			&stars,
			&rv.Comment,
			&imageURLs,
			&rv.ReviewDate,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		rv.Rating = domain.Rating(stars)
		rv.ImageURLs = splitURLs(imageURLs)

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// ListByOrderID returns the reviews attached to the line items of one order.
func (r *ReviewRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.Review, error) {
	query := `
		SELECT rv.id, rv.order_detail_id, rv.product_id, rv.account_id, rv.rating, rv.comment, rv.image_urls, rv.review_date
		FROM product_reviews rv
		JOIN order_details d ON d.id = rv.order_detail_id
		WHERE d.order_id = $1
		ORDER BY rv.review_date DESC`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var (
			rv        domain.Review
			stars     int
			imageURLs string
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.OrderDetailID,
			&rv.ProductID,
			&rv.AccountID,
			&stars,
			&rv.Comment,
			&imageURLs,
			&rv.ReviewDate,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		rv.Rating = domain.Rating(stars)
		rv.ImageURLs = splitURLs(imageURLs)
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// Summary recomputes the review aggregate for a product from its stored
// reviews. The mean rating is rounded half-up to two decimals.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (domain.ProductSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM product_reviews
		WHERE product_id = $1`

	var summary domain.ProductSummary

	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, productID).Scan(
		&summary.StarRating,
		&summary.TotalReviews,
	)
	if err != nil {
		return domain.ProductSummary{}, fmt.Errorf("get review summary: %w", err)
	}

	summary.StarRating = math.Round(summary.StarRating*100) / 100

	return summary, nil
}
