package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	pkgkafka "github.com/kidhood/bird-trading-platform/pkg/kafka"
)

// Kafka topic constants for marketplace domain events.
const (
	TopicAccountRegistered = "birdtrading.account.registered"
	TopicOrderPlaced       = "birdtrading.order.placed"
	TopicOrderStatusMoved  = "birdtrading.order.status_changed"
	TopicReviewCreated     = "birdtrading.review.created"
)

// Aggregate type constants.
const (
	AggregateTypeAccount = "account"
	AggregateTypeOrder   = "order"
	AggregateTypeReview  = "review"
)

// Source identifier for events originating from this platform.
const SourcePlatform = "bird-trading-platform"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	PackageOrderID string   `json:"package_order_id"`
	AccountID      string   `json:"account_id"`
	Total          int64    `json:"total"`
	Currency       string   `json:"currency"`
	ShopIDs        []string `json:"shop_ids"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	ShopID    string `json:"shop_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string  `json:"review_id"`
	ProductID string  `json:"product_id"`
	AccountID string  `json:"account_id"`
	Rating    int     `json:"rating"`
	NewAvg    float64 `json:"new_avg"`
}

// Producer publishes marketplace domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, account *domain.Account) error {
	data := AccountRegisteredData{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		Role:     account.Role,
	}

	event, err := pkgkafka.NewEvent(TopicAccountRegistered, account.ID, AggregateTypeAccount, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create account.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountRegistered, event); err != nil {
		return fmt.Errorf("publish account.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.registered event",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, pkg *domain.PackageOrder) error {
	shopIDs := make([]string, 0, len(pkg.Orders))
	for _, o := range pkg.Orders {
		shopIDs = append(shopIDs, o.ShopID)
	}

	data := OrderPlacedData{
		PackageOrderID: pkg.ID,
		AccountID:      pkg.AccountID,
		Total:          pkg.Total,
		Currency:       pkg.Currency,
		ShopIDs:        shopIDs,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, pkg.ID, AggregateTypeOrder, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("package_order_id", pkg.ID),
		slog.String("account_id", pkg.AccountID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus string) error {
	data := OrderStatusChangedData{
		OrderID:   order.ID,
		ShopID:    order.ShopID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusMoved, order.ID, AggregateTypeOrder, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusMoved, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", order.Status),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review, newAvg float64) error {
	data := ReviewCreatedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		AccountID: review.AccountID,
		Rating:    review.Rating.Stars(),
		NewAvg:    newAvg,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}
