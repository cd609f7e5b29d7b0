package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/event"
	"github.com/kidhood/bird-trading-platform/internal/payment"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// shippingFeePerShop is the flat delivery fee charged per shop in a package.
const shippingFeePerShop int64 = 30_000

// maxOrderLineQuantity caps a single line item.
const maxOrderLineQuantity = 100

// OrderService implements the business logic for checkout and order handling.
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	txManager   repository.TxManager
	gateway     payment.Gateway
	shops       ShopResolver
	producer    *event.Producer
	logger      *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	txManager repository.TxManager,
	gateway payment.Gateway,
	shops ShopResolver,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		txManager:   txManager,
		gateway:     gateway,
		shops:       shops,
		producer:    producer,
		logger:      logger,
	}
}

// OrderLineInput is one product/quantity pair in a checkout request.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput holds the parameters for a checkout.
type PlaceOrderInput struct {
	AddressID string
	Lines     []OrderLineInput
}

// PlaceOrder runs the checkout: it validates the basket, charges the payment
// gateway, and commits the package order together with the stock decrements
// in one transaction. A failed commit refunds the charge.
func (s *OrderService) PlaceOrder(ctx context.Context, identity *authz.Identity, input PlaceOrderInput) (*domain.PackageOrder, error) {
	lines, err := mergeLines(input.Lines)
	if err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetByID(ctx, input.AddressID)
	if err != nil {
		return nil, apperrors.NotFound("address", input.AddressID)
	}
	if address.AccountID != identity.AccountID {
		return nil, apperrors.NotFound("address", input.AddressID)
	}

	products := make(map[string]*domain.Product, len(lines))
	for _, line := range lines {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, apperrors.NotFound("product", line.ProductID)
		}
		if !product.InStock(line.Quantity) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %s is not available in the requested quantity", line.ProductID))
		}
		products[line.ProductID] = product
	}

	pkg := buildPackageOrder(identity.AccountID, input.AddressID, lines, products)

	charge, err := s.gateway.Charge(ctx, &payment.ChargeRequest{
		PackageOrderID: pkg.ID,
		AccountID:      identity.AccountID,
		Amount:         pkg.Total,
		Currency:       pkg.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("charge payment: %w", err)
	}
	pkg.PaymentID = charge.PaymentID
	pkg.PayerID = charge.PayerID

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		for _, line := range lines {
			if err := s.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return s.orderRepo.CreatePackage(ctx, pkg)
	})
	if err != nil {
		// The money moved but the order did not. Undo the charge.
		if refundErr := s.gateway.Refund(ctx, &payment.RefundRequest{
			PaymentID: charge.PaymentID,
			Amount:    pkg.Total,
			Currency:  pkg.Currency,
			Reason:    "order commit failed",
		}); refundErr != nil {
			s.logger.ErrorContext(ctx, "failed to refund after order commit failure",
				slog.String("payment_id", charge.PaymentID),
				slog.String("error", refundErr.Error()),
			)
		}
		return nil, fmt.Errorf("commit order: %w", err)
	}

	// Publish order placed event (non-blocking on failure).
	if err := s.producer.PublishOrderPlaced(ctx, pkg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("package_order_id", pkg.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("package_order_id", pkg.ID),
		slog.String("account_id", identity.AccountID),
		slog.Int64("total", pkg.Total),
	)

	return pkg, nil
}

// GetPackage retrieves a package order for its buyer.
func (s *OrderService) GetPackage(ctx context.Context, identity *authz.Identity, id string) (*domain.PackageOrder, error) {
	pkg, err := s.orderRepo.GetPackageByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get package order: %w", err)
	}
	if pkg.AccountID != identity.AccountID && identity.Role != authz.RoleAdmin {
		return nil, apperrors.NotFound("package order", id)
	}
	return pkg, nil
}

// ListMyPackages returns the caller's package orders, newest first.
func (s *OrderService) ListMyPackages(ctx context.Context, identity *authz.Identity, page, perPage int) ([]domain.PackageOrder, int, error) {
	packages, total, err := s.orderRepo.ListPackagesByAccountID(ctx, identity.AccountID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list package orders: %w", err)
	}
	return packages, total, nil
}

// ListShopOrders returns the orders of the caller's shop, newest first.
func (s *OrderService) ListShopOrders(ctx context.Context, identity *authz.Identity, page, perPage int) ([]domain.Order, int, error) {
	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, 0, err
	}

	orders, total, err := s.orderRepo.ListOrdersByShopID(ctx, shopID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list shop orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves a per-shop order along its lifecycle. Canceling a
// paid order refunds its share of the charge and restores the stock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, identity *authz.Identity, orderID, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if identity.Role != authz.RoleAdmin {
		shopID, err := s.shops.ResolveShopID(ctx, identity)
		if err != nil {
			return nil, err
		}
		if order.ShopID != shopID {
			return nil, apperrors.NotFound("order", orderID)
		}
	}

	if !order.CanTransitionTo(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("order cannot move from %s to %s", order.Status, status))
	}

	oldStatus := order.Status

	if status == domain.OrderStatusCanceled && oldStatus == domain.OrderStatusPaid {
		if err := s.cancelPaidOrder(ctx, order); err != nil {
			return nil, err
		}
	} else if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = status

	// Publish status change event (non-blocking on failure).
	if err := s.producer.PublishOrderStatusChanged(ctx, order, oldStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)

	return order, nil
}

// cancelPaidOrder cancels a paid order, restoring stock and refunding the
// shop's share of the package charge.
func (s *OrderService) cancelPaidOrder(ctx context.Context, order *domain.Order) error {
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCanceled); err != nil {
			return err
		}
		for _, detail := range order.Details {
			if err := s.productRepo.RestoreStock(ctx, detail.ProductID, detail.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	pkg, err := s.orderRepo.GetPackageByID(ctx, order.PackageOrderID)
	if err != nil {
		return fmt.Errorf("get package for refund: %w", err)
	}
	if pkg.PaymentID != "" {
		if err := s.gateway.Refund(ctx, &payment.RefundRequest{
			PaymentID: pkg.PaymentID,
			Amount:    order.Total,
			Currency:  pkg.Currency,
			Reason:    "order canceled",
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to refund canceled order",
				slog.String("order_id", order.ID),
				slog.String("payment_id", pkg.PaymentID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// --- Helpers ---

// mergeLines validates the checkout lines and merges duplicate products.
func mergeLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}

	merged := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, apperrors.InvalidInput("product id is required on every line")
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput("quantity must be positive")
		}
		if _, seen := merged[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		merged[line.ProductID] += line.Quantity
	}

	out := make([]OrderLineInput, 0, len(order))
	for _, id := range order {
		qty := merged[id]
		if qty > maxOrderLineQuantity {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for product %s exceeds the per-line limit", id))
		}
		out = append(out, OrderLineInput{ProductID: id, Quantity: qty})
	}
	return out, nil
}

// buildPackageOrder groups the priced lines into per-shop orders under one
// package and computes the totals.
func buildPackageOrder(accountID, addressID string, lines []OrderLineInput, products map[string]*domain.Product) *domain.PackageOrder {
	now := time.Now().UTC()

	pkg := &domain.PackageOrder{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Status:    domain.OrderStatusPaid,
		Currency:  defaultCurrency,
		AddressID: addressID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	byShop := make(map[string][]domain.OrderDetail)
	for _, line := range lines {
		product := products[line.ProductID]
		if product.Currency != "" {
			pkg.Currency = product.Currency
		}
		byShop[product.ShopID] = append(byShop[product.ShopID], domain.OrderDetail{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
			CreatedAt: now,
		})
	}

	shopIDs := make([]string, 0, len(byShop))
	for shopID := range byShop {
		shopIDs = append(shopIDs, shopID)
	}
	sort.Strings(shopIDs)

	for _, shopID := range shopIDs {
		order := domain.Order{
			ID:             uuid.New().String(),
			PackageOrderID: pkg.ID,
			ShopID:         shopID,
			Status:         domain.OrderStatusPaid,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, detail := range byShop[shopID] {
			detail.OrderID = order.ID
			order.Total += detail.Price * int64(detail.Quantity)
			order.Details = append(order.Details, detail)
		}
		pkg.Subtotal += order.Total
		pkg.Orders = append(pkg.Orders, order)
	}

	pkg.ShippingFee = shippingFeePerShop * int64(len(pkg.Orders))
	pkg.Total = pkg.Subtotal + pkg.ShippingFee

	return pkg
}
