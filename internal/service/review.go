package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/event"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	"github.com/kidhood/bird-trading-platform/internal/storage"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// maxReviewImages caps the number of photos attached to one review.
const maxReviewImages = 5

// maxReviewCommentLength caps the comment size.
const maxReviewCommentLength = 2000

// ReviewService implements the business logic for product reviews.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	txManager   repository.TxManager
	store       storage.Storage
	cache       ProductCache
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	txManager repository.TxManager,
	store storage.Storage,
	cache ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		txManager:   txManager,
		store:       store,
		cache:       cache,
		producer:    producer,
		logger:      logger,
	}
}

// ReviewImage is one photo attached to a review submission.
type ReviewImage struct {
	Data        io.Reader
	ContentType string
	Size        int64
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	OrderDetailID string
	Rating        int
	Comment       string
	Images        []ReviewImage
}

// SubmitReview creates a review for one delivered order line. Images are
// uploaded first; if the review cannot be stored the uploads are deleted
// again. The product's review aggregate is updated in the same transaction.
func (s *ReviewService) SubmitReview(ctx context.Context, identity *authz.Identity, input SubmitReviewInput) (*domain.Review, error) {
	if input.OrderDetailID == "" {
		return nil, apperrors.InvalidInput("order detail id is required")
	}
	rating, err := domain.RatingFromStars(input.Rating)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if len(input.Comment) > maxReviewCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", maxReviewCommentLength))
	}
	if len(input.Images) > maxReviewImages {
		return nil, apperrors.InvalidInput(fmt.Sprintf("a review accepts at most %d images", maxReviewImages))
	}

	// Ownership scoping: a foreign order line looks like a missing one.
	detail, err := s.orderRepo.GetDetailForAccount(ctx, input.OrderDetailID, identity.AccountID)
	if err != nil {
		return nil, apperrors.NotFound("order detail", input.OrderDetailID)
	}
	if detail.OrderStatus != domain.OrderStatusDelivered {
		return nil, apperrors.InvalidInput("only delivered items can be reviewed")
	}

	if _, err := s.reviewRepo.GetByOrderDetailID(ctx, input.OrderDetailID); err == nil {
		return nil, apperrors.AlreadyExists("review", "order_detail_id", input.OrderDetailID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	review := &domain.Review{
		ID:            uuid.New().String(),
		OrderDetailID: input.OrderDetailID,
		ProductID:     detail.ProductID,
		AccountID:     identity.AccountID,
		Rating:        rating,
		Comment:       input.Comment,
		ReviewDate:    time.Now().UTC(),
	}

	uploaded, err := s.uploadImages(ctx, review.ID, input.Images)
	if err != nil {
		return nil, err
	}
	review.ImageURLs = urlsOf(uploaded)

	var summary domain.ProductSummary
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			return err
		}
		summary, err = s.reviewRepo.Summary(ctx, review.ProductID)
		if err != nil {
			return err
		}
		return s.productRepo.UpdateSummary(ctx, review.ProductID, summary)
	})
	if err != nil {
		s.deleteUploads(ctx, uploaded)
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("review", "order_detail_id", input.OrderDetailID)
		}
		return nil, fmt.Errorf("store review: %w", err)
	}

	s.invalidateProduct(ctx, review.ProductID)

	// Publish review created event (non-blocking on failure).
	if err := s.producer.PublishReviewCreated(ctx, review, summary.StarRating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating.Stars()),
		slog.Float64("new_avg", summary.StarRating),
	)

	return review, nil
}

// ListProductReviews returns paginated reviews for a product, newest first.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	if productID == "" {
		return nil, 0, apperrors.InvalidInput("product id is required")
	}

	reviews, total, err := s.reviewRepo.ListByProductID(ctx, productID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, total, nil
}

// ListOrderReviews returns the caller's reviews on the line items of one of
// their orders.
func (s *ReviewService) ListOrderReviews(ctx context.Context, identity *authz.Identity, orderID string) ([]domain.Review, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	pkg, err := s.orderRepo.GetPackageByID(ctx, order.PackageOrderID)
	if err != nil {
		return nil, fmt.Errorf("get package order: %w", err)
	}
	if pkg.AccountID != identity.AccountID && identity.Role != authz.RoleAdmin {
		return nil, apperrors.NotFound("order", orderID)
	}

	reviews, err := s.reviewRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order reviews: %w", err)
	}
	return reviews, nil
}

// ProductReviewSummary returns the stored review aggregate for a product.
func (s *ReviewService) ProductReviewSummary(ctx context.Context, productID string) (domain.ProductSummary, error) {
	summary, err := s.reviewRepo.Summary(ctx, productID)
	if err != nil {
		return domain.ProductSummary{}, fmt.Errorf("get review summary: %w", err)
	}
	return summary, nil
}

// --- Helpers ---

// uploadImages stores the review photos under per-review keys. On any
// failure the uploads that already went through are deleted.
func (s *ReviewService) uploadImages(ctx context.Context, reviewID string, images []ReviewImage) ([]storage.UploadResult, error) {
	uploaded := make([]storage.UploadResult, 0, len(images))
	for _, img := range images {
		result, err := s.store.Upload(ctx, &storage.UploadInput{
			Key:         fmt.Sprintf("reviews/%s/%s", reviewID, uuid.New().String()),
			ContentType: img.ContentType,
			Size:        img.Size,
			Data:        img.Data,
		})
		if err != nil {
			s.deleteUploads(ctx, uploaded)
			return nil, apperrors.UploadFailed(err)
		}
		uploaded = append(uploaded, *result)
	}
	return uploaded, nil
}

// deleteUploads removes stored review photos, logging on failure.
func (s *ReviewService) deleteUploads(ctx context.Context, uploaded []storage.UploadResult) {
	for _, u := range uploaded {
		if err := s.store.Delete(ctx, u.Key); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete orphaned review image",
				slog.String("key", u.Key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// invalidateProduct drops the product from the cache, logging on failure.
func (s *ReviewService) invalidateProduct(ctx context.Context, productID string) {
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

func urlsOf(uploaded []storage.UploadResult) []string {
	if len(uploaded) == 0 {
		return nil
	}
	urls := make([]string, 0, len(uploaded))
	for _, u := range uploaded {
		urls = append(urls, u.URL)
	}
	return urls
}
