package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreatePackage inserts a package order together with its per-shop orders and
// their line items. Callers are expected to run this inside a transaction so
// the package is stored atomically with its stock adjustments.
func (r *OrderRepository) CreatePackage(ctx context.Context, pkg *domain.PackageOrder) error {
	db := queryEngine(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO package_orders (id, account_id, status, subtotal, shipping_fee, total, currency, payment_id, payer_id, address_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		pkg.ID,
		pkg.AccountID,
		pkg.Status,
		pkg.Subtotal,
		pkg.ShippingFee,
		pkg.Total,
		pkg.Currency,
		pkg.PaymentID,
		pkg.PayerID,
		pkg.AddressID,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert package order: %w", err)
	}

	for i := range pkg.Orders {
		o := &pkg.Orders[i]

		_, err := db.Exec(ctx, `
			INSERT INTO orders (id, package_order_id, shop_id, status, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID,
			o.PackageOrderID,
			o.ShopID,
			o.Status,
			o.Total,
			o.CreatedAt,
			o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for j := range o.Details {
			d := &o.Details[j]

			_, err := db.Exec(ctx, `
				INSERT INTO order_details (id, order_id, product_id, quantity, price, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				d.ID,
				d.OrderID,
				d.ProductID,
				d.Quantity,
				d.Price,
				d.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert order detail: %w", err)
			}
		}
	}

	return nil
}

// GetPackageByID retrieves a package order with its orders and details.
func (r *OrderRepository) GetPackageByID(ctx context.Context, id string) (*domain.PackageOrder, error) {
	db := queryEngine(ctx, r.pool)

	var pkg domain.PackageOrder
	err := db.QueryRow(ctx, `
		SELECT id, account_id, status, subtotal, shipping_fee, total, currency, payment_id, payer_id, address_id, created_at, updated_at
		FROM package_orders
		WHERE id = $1`, id).Scan(
		&pkg.ID,
		&pkg.AccountID,
		&pkg.Status,
		&pkg.Subtotal,
		&pkg.ShippingFee,
		&pkg.Total,
		&pkg.Currency,
		&pkg.PaymentID,
		&pkg.PayerID,
		&pkg.AddressID,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan package order: %w", err)
	}

	orders, err := r.listOrders(ctx, `WHERE package_order_id = $1 ORDER BY created_at`, pkg.ID)
	if err != nil {
		return nil, err
	}
	pkg.Orders = orders

	return &pkg, nil
}

// ListPackagesByAccountID returns paginated package orders for a buyer,
// newest first. Orders and details are not expanded.
func (r *OrderRepository) ListPackagesByAccountID(ctx context.Context, accountID string, page, perPage int) ([]domain.PackageOrder, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, account_id, status, subtotal, shipping_fee, total, currency, payment_id, payer_id, address_id, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM package_orders
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list package orders: %w", err)
	}
	defer rows.Close()

	var (
		packages   []domain.PackageOrder
		totalCount int
	)

	for rows.Next() {
		var pkg domain.PackageOrder
		if err := rows.Scan(
			&pkg.ID,
			&pkg.AccountID,
			&pkg.Status,
			&pkg.Subtotal,
			&pkg.ShippingFee,
			&pkg.Total,
			&pkg.Currency,
			&pkg.PaymentID,
			&pkg.PayerID,
			&pkg.AddressID,
			&pkg.CreatedAt,
			&pkg.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan package order row: %w", err)
		}
		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate package order rows: %w", err)
	}

	if packages == nil {
		packages = []domain.PackageOrder{}
	}

	return packages, totalCount, nil
}

// GetOrderByID retrieves a per-shop order with its details.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := queryEngine(ctx, r.pool).QueryRow(ctx, `
		SELECT id, package_order_id, shop_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1`, id).Scan(
		&o.ID,
		&o.PackageOrderID,
		&o.ShopID,
		&o.Status,
		&o.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	details, err := r.listDetails(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Details = details

	return &o, nil
}

// ListOrdersByShopID returns paginated orders for a shop, newest first.
func (r *OrderRepository) ListOrdersByShopID(ctx context.Context, shopID string, page, perPage int) ([]domain.Order, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT id, package_order_id, shop_id, status, total, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM orders
		WHERE shop_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, shopID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list shop orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.PackageOrderID,
			&o.ShopID,
			&o.Status,
			&o.Total,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, totalCount, nil
}

// UpdateOrderStatus changes the status of a per-shop order.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// UpdatePackagePayment marks a package order as paid and records the payment
// references.
func (r *OrderRepository) UpdatePackagePayment(ctx context.Context, id, status, paymentID, payerID string) error {
	query := `
		UPDATE package_orders
		SET status = $1, payment_id = $2, payer_id = $3, updated_at = $4
		WHERE id = $5`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, status, paymentID, payerID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update package payment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("package order", id)
	}

	return nil
}

// GetDetailForAccount retrieves an order line only if it belongs to an order
// placed by the given account. A line owned by someone else is
// indistinguishable from a missing one.
func (r *OrderRepository) GetDetailForAccount(ctx context.Context, detailID, accountID string) (*repository.OwnedOrderDetail, error) {
	query := `
		SELECT d.id, d.order_id, d.product_id, d.quantity, d.price, d.created_at, o.status
		FROM order_details d
		JOIN orders o ON o.id = d.order_id
		JOIN package_orders p ON p.id = o.package_order_id
		WHERE d.id = $1 AND p.account_id = $2`

	var od repository.OwnedOrderDetail
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, detailID, accountID).Scan(
		&od.ID,
		&od.OrderID,
		&od.ProductID,
		&od.Quantity,
		&od.Price,
		&od.CreatedAt,
		&od.OrderStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order detail: %w", err)
	}

	return &od, nil
}

// DailyRevenue returns per-day revenue for delivered orders of a shop within
// the given window.
func (r *OrderRepository) DailyRevenue(ctx context.Context, shopID string, from, to time.Time) ([]repository.RevenueBucket, error) {
	query := `
		SELECT date_trunc('day', updated_at) AS day, COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE shop_id = $1 AND status = $2 AND updated_at >= $3 AND updated_at < $4
		GROUP BY day
		ORDER BY day`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, shopID, domain.OrderStatusDelivered, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	defer rows.Close()

	var buckets []repository.RevenueBucket
	for rows.Next() {
		var b repository.RevenueBucket
		if err := rows.Scan(&b.Day, &b.Revenue, &b.Orders); err != nil {
			return nil, fmt.Errorf("scan revenue row: %w", err)
		}
		buckets = append(buckets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue rows: %w", err)
	}

	if buckets == nil {
		buckets = []repository.RevenueBucket{}
	}

	return buckets, nil
}

// RevenueByKind returns revenue per product kind for delivered orders of a
// shop within the given window.
func (r *OrderRepository) RevenueByKind(ctx context.Context, shopID string, from, to time.Time) ([]repository.KindRevenue, error) {
	query := `
		SELECT pr.kind, COALESCE(SUM(d.price * d.quantity), 0)
		FROM order_details d
		JOIN orders o ON o.id = d.order_id
		JOIN products pr ON pr.id = d.product_id
		WHERE o.shop_id = $1 AND o.status = $2 AND o.updated_at >= $3 AND o.updated_at < $4
		GROUP BY pr.kind
		ORDER BY pr.kind`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, shopID, domain.OrderStatusDelivered, from, to)
	if err != nil {
		return nil, fmt.Errorf("revenue by kind: %w", err)
	}
	defer rows.Close()

	var kinds []repository.KindRevenue
	for rows.Next() {
		var k repository.KindRevenue
		if err := rows.Scan(&k.Kind, &k.Revenue); err != nil {
			return nil, fmt.Errorf("scan kind revenue row: %w", err)
		}
		kinds = append(kinds, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind revenue rows: %w", err)
	}

	if kinds == nil {
		kinds = []repository.KindRevenue{}
	}

	return kinds, nil
}

// KindDailyStats returns per-day, per-kind order counts and revenue for a
// shop within the given window.
func (r *OrderRepository) KindDailyStats(ctx context.Context, shopID string, from, to time.Time) ([]repository.KindDailyStat, error) {
	query := `
		SELECT date_trunc('day', o.created_at) AS day, pr.kind,
		       COUNT(DISTINCT o.id), COALESCE(SUM(d.price * d.quantity), 0)
		FROM order_details d
		JOIN orders o ON o.id = d.order_id
		JOIN products pr ON pr.id = d.product_id
		WHERE o.shop_id = $1 AND o.status <> $2 AND o.created_at >= $3 AND o.created_at < $4
		GROUP BY day, pr.kind
		ORDER BY day, pr.kind`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, shopID, domain.OrderStatusCanceled, from, to)
	if err != nil {
		return nil, fmt.Errorf("kind daily stats: %w", err)
	}
	defer rows.Close()

	var stats []repository.KindDailyStat
	for rows.Next() {
		var s repository.KindDailyStat
		if err := rows.Scan(&s.Day, &s.Kind, &s.Orders, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan kind daily stat row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind daily stat rows: %w", err)
	}

	if stats == nil {
		stats = []repository.KindDailyStat{}
	}

	return stats, nil
}

// listOrders loads orders matching the given WHERE clause, details included.
func (r *OrderRepository) listOrders(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT id, package_order_id, shop_id, status, total, created_at, updated_at
		FROM orders
		%s`, where)

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.PackageOrderID,
			&o.ShopID,
			&o.Status,
			&o.Total,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		details, err := r.listDetails(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Details = details
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, nil
}

// listDetails loads the line items of one order.
func (r *OrderRepository) listDetails(ctx context.Context, orderID string) ([]domain.OrderDetail, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_details
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order details: %w", err)
	}
	defer rows.Close()

	var details []domain.OrderDetail
	for rows.Next() {
		var d domain.OrderDetail
		if err := rows.Scan(
			&d.ID,
			&d.OrderID,
			&d.ProductID,
			&d.Quantity,
			&d.Price,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order detail row: %w", err)
		}
		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order detail rows: %w", err)
	}

	if details == nil {
		details = []domain.OrderDetail{}
	}

	return details, nil
}
