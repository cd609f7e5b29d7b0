package repository

import (
	"context"
	"time"

	"github.com/kidhood/bird-trading-platform/internal/domain"
)

// TxManager runs a function within a database transaction. The transaction is
// carried on the context; repository calls made with that context join it.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository defines the interface for account persistence operations.
type AccountRepository interface {
	// Create inserts a new account into the store.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail retrieves an account by its email address.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetByOAuth retrieves an account by its OAuth provider and subject ID.
	GetByOAuth(ctx context.Context, provider, oauthID string) (*domain.Account, error)

	// Update modifies an existing account in the store.
	Update(ctx context.Context, account *domain.Account) error

	// Delete removes an account from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// AddressRepository defines the interface for address persistence operations.
type AddressRepository interface {
	// Create inserts a new address into the store.
	Create(ctx context.Context, address *domain.Address) error

	// GetByID retrieves an address by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Address, error)

	// ListByAccountID returns all addresses for the given account.
	ListByAccountID(ctx context.Context, accountID string) ([]domain.Address, error)

	// Update modifies an existing address in the store.
	Update(ctx context.Context, address *domain.Address) error

	// Delete removes an address from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// SetDefault marks the specified address as the default for the account,
	// unsetting any previous default.
	SetDefault(ctx context.Context, accountID, addressID string) error
}

// VerifyTokenRepository defines the interface for verification token
// persistence operations.
type VerifyTokenRepository interface {
	// Create stores a new verification token.
	Create(ctx context.Context, token *domain.VerifyToken) error

	// GetByToken retrieves a verification token by its value and purpose.
	GetByToken(ctx context.Context, token, purpose string) (*domain.VerifyToken, error)

	// MarkUsed consumes the token so it cannot be replayed.
	MarkUsed(ctx context.Context, id string) error
}

// RefreshTokenRepository defines the interface for refresh token persistence
// operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, accountID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeByAccountID revokes all refresh tokens for the given account.
	RevokeByAccountID(ctx context.Context, accountID string) error
}

// ShopRepository defines the interface for shop persistence operations.
type ShopRepository interface {
	// Create inserts a new shop into the store.
	Create(ctx context.Context, shop *domain.Shop) error

	// GetByID retrieves a shop by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Shop, error)

	// GetByOwnerID retrieves the shop owned by the given account.
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Shop, error)

	// GetBySlug retrieves a shop by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Shop, error)

	// Update modifies an existing shop in the store.
	Update(ctx context.Context, shop *domain.Shop) error
}

// ShopStaffRepository defines the interface for shop staff membership
// persistence operations.
type ShopStaffRepository interface {
	// Add attaches a staff account to a shop.
	Add(ctx context.Context, staff *domain.ShopStaff) error

	// GetActiveByAccountID retrieves the active staff membership for an account.
	GetActiveByAccountID(ctx context.Context, accountID string) (*domain.ShopStaff, error)

	// ListByShopID returns all staff memberships for the given shop,
	// including revoked ones.
	ListByShopID(ctx context.Context, shopID string) ([]domain.ShopStaff, error)

	// Revoke ends a staff membership.
	Revoke(ctx context.Context, id string) error
}

// ProductFilter describes the criteria for listing catalog products.
type ProductFilter struct {
	Kind        *string
	ShopID      *string
	Status      *string
	Search      *string
	MinPrice    *int64
	MaxPrice    *int64
	MinStar     *float64
	InStockOnly bool
	Page        int
	PerPage     int
}

// ProductRepository defines the interface for catalog persistence operations.
// Kind-specific attributes live on the same product row, so reads and writes
// come in a per-kind flavor plus a base-product one.
type ProductRepository interface {
	// CreateBird inserts a new bird listing into the store.
	CreateBird(ctx context.Context, bird *domain.Bird) error

	// CreateAccessory inserts a new accessory listing into the store.
	CreateAccessory(ctx context.Context, accessory *domain.Accessory) error

	// CreateFood inserts a new food listing into the store.
	CreateFood(ctx context.Context, food *domain.Food) error

	// GetByID retrieves the base product fields for any kind of listing.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves the base product fields by slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// GetBirdByID retrieves a bird listing with its kind-specific fields.
	GetBirdByID(ctx context.Context, id string) (*domain.Bird, error)

	// GetAccessoryByID retrieves an accessory listing with its kind-specific fields.
	GetAccessoryByID(ctx context.Context, id string) (*domain.Accessory, error)

	// GetFoodByID retrieves a food listing with its kind-specific fields.
	GetFoodByID(ctx context.Context, id string) (*domain.Food, error)

	// List returns products matching the given filter with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// UpdateBird modifies an existing bird listing.
	UpdateBird(ctx context.Context, bird *domain.Bird) error

	// UpdateAccessory modifies an existing accessory listing.
	UpdateAccessory(ctx context.Context, accessory *domain.Accessory) error

	// UpdateFood modifies an existing food listing.
	UpdateFood(ctx context.Context, food *domain.Food) error

	// UpdateStatus changes a product's lifecycle status.
	UpdateStatus(ctx context.Context, id, status string) error

	// DecrementStock atomically reduces the available quantity of an active
	// product. It fails when the product is missing, inactive, or does not
	// have the requested quantity in stock.
	DecrementStock(ctx context.Context, id string, qty int) error

	// RestoreStock adds quantity back to a product after a cancellation.
	RestoreStock(ctx context.Context, id string, qty int) error

	// UpdateSummary replaces the stored review aggregate for a product.
	UpdateSummary(ctx context.Context, id string, summary domain.ProductSummary) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// OwnedOrderDetail is an order line joined with the status of its parent
// order, scoped to the buying account.
type OwnedOrderDetail struct {
	domain.OrderDetail
	OrderStatus string
}

// RevenueBucket is an aggregate of revenue for one day.
type RevenueBucket struct {
	Day     time.Time `json:"day"`
	Revenue int64     `json:"revenue"`
	Orders  int       `json:"orders"`
}

// KindDailyStat is an aggregate of orders and revenue for one product kind on
// one day.
type KindDailyStat struct {
	Day     time.Time `json:"day"`
	Kind    string    `json:"kind"`
	Orders  int       `json:"orders"`
	Revenue int64     `json:"revenue"`
}

// KindRevenue is an aggregate of revenue per product kind.
type KindRevenue struct {
	Kind    string `json:"kind"`
	Revenue int64  `json:"revenue"`
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// CreatePackage inserts a package order together with its per-shop
	// orders and their line items. Call it inside a transaction.
	CreatePackage(ctx context.Context, pkg *domain.PackageOrder) error

	// GetPackageByID retrieves a package order with its orders and details.
	GetPackageByID(ctx context.Context, id string) (*domain.PackageOrder, error)

	// ListPackagesByAccountID returns paginated package orders for a buyer.
	ListPackagesByAccountID(ctx context.Context, accountID string, page, perPage int) ([]domain.PackageOrder, int, error)

	// GetOrderByID retrieves a per-shop order with its details.
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)

	// ListOrdersByShopID returns paginated orders for a shop.
	ListOrdersByShopID(ctx context.Context, shopID string, page, perPage int) ([]domain.Order, int, error)

	// UpdateOrderStatus changes the status of a per-shop order.
	UpdateOrderStatus(ctx context.Context, id, status string) error

	// UpdatePackagePayment marks a package order as paid and records the
	// payment references.
	UpdatePackagePayment(ctx context.Context, id, status, paymentID, payerID string) error

	// GetDetailForAccount retrieves an order line only if it belongs to an
	// order placed by the given account.
	GetDetailForAccount(ctx context.Context, detailID, accountID string) (*OwnedOrderDetail, error)

	// DailyRevenue returns per-day revenue for delivered orders of a shop
	// within the given window.
	DailyRevenue(ctx context.Context, shopID string, from, to time.Time) ([]RevenueBucket, error)

	// RevenueByKind returns revenue per product kind for delivered orders of
	// a shop within the given window.
	RevenueByKind(ctx context.Context, shopID string, from, to time.Time) ([]KindRevenue, error)

	// KindDailyStats returns per-day, per-kind order counts and revenue for a
	// shop within the given window.
	KindDailyStats(ctx context.Context, shopID string, from, to time.Time) ([]KindDailyStat, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store. Each order line accepts at
	// most one review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByOrderDetailID retrieves the review attached to an order line.
	GetByOrderDetailID(ctx context.Context, orderDetailID string) (*domain.Review, error)

	// ListByProductID returns paginated reviews for a product, newest first.
	ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error)

	// ListByOrderID returns the reviews attached to the line items of one
	// order.
	ListByOrderID(ctx context.Context, orderID string) ([]domain.Review, error)

	// Summary recomputes the review aggregate for a product from its stored
	// reviews.
	Summary(ctx context.Context, productID string) (domain.ProductSummary, error)
}
