package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidhood/bird-trading-platform/internal/auth"
	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/event"
	"github.com/kidhood/bird-trading-platform/internal/payment"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	"github.com/kidhood/bird-trading-platform/internal/storage"
	pkgkafka "github.com/kidhood/bird-trading-platform/pkg/kafka"
)

// --- Mock Account Repository ---

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepository) GetByOAuth(ctx context.Context, provider, oauthID string) (*domain.Account, error) {
	args := m.Called(ctx, provider, oauthID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Address Repository ---

type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepository) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) ListByAccountID(ctx context.Context, accountID string) ([]domain.Address, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Update(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, accountID, addressID string) error {
	args := m.Called(ctx, accountID, addressID)
	return args.Error(0)
}

// --- Mock Verify Token Repository ---

type mockVerifyTokenRepository struct {
	mock.Mock
}

func (m *mockVerifyTokenRepository) Create(ctx context.Context, token *domain.VerifyToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockVerifyTokenRepository) GetByToken(ctx context.Context, token, purpose string) (*domain.VerifyToken, error) {
	args := m.Called(ctx, token, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifyToken), args.Error(1)
}

func (m *mockVerifyTokenRepository) MarkUsed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, accountID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, accountID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) RevokeByAccountID(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// --- Mock Shop Repository ---

type mockShopRepository struct {
	mock.Mock
}

func (m *mockShopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *mockShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Shop, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) GetBySlug(ctx context.Context, slug string) (*domain.Shop, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) Update(ctx context.Context, shop *domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

// --- Mock Shop Staff Repository ---

type mockShopStaffRepository struct {
	mock.Mock
}

func (m *mockShopStaffRepository) Add(ctx context.Context, staff *domain.ShopStaff) error {
	args := m.Called(ctx, staff)
	return args.Error(0)
}

func (m *mockShopStaffRepository) GetActiveByAccountID(ctx context.Context, accountID string) (*domain.ShopStaff, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShopStaff), args.Error(1)
}

func (m *mockShopStaffRepository) ListByShopID(ctx context.Context, shopID string) ([]domain.ShopStaff, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]domain.ShopStaff), args.Error(1)
}

func (m *mockShopStaffRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Product Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) CreateBird(ctx context.Context, bird *domain.Bird) error {
	args := m.Called(ctx, bird)
	return args.Error(0)
}

func (m *mockProductRepository) CreateAccessory(ctx context.Context, accessory *domain.Accessory) error {
	args := m.Called(ctx, accessory)
	return args.Error(0)
}

func (m *mockProductRepository) CreateFood(ctx context.Context, food *domain.Food) error {
	args := m.Called(ctx, food)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBirdByID(ctx context.Context, id string) (*domain.Bird, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bird), args.Error(1)
}

func (m *mockProductRepository) GetAccessoryByID(ctx context.Context, id string) (*domain.Accessory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accessory), args.Error(1)
}

func (m *mockProductRepository) GetFoodByID(ctx context.Context, id string) (*domain.Food, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Food), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) UpdateBird(ctx context.Context, bird *domain.Bird) error {
	args := m.Called(ctx, bird)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateAccessory(ctx context.Context, accessory *domain.Accessory) error {
	args := m.Called(ctx, accessory)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateFood(ctx context.Context, food *domain.Food) error {
	args := m.Called(ctx, food)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *mockProductRepository) RestoreStock(ctx context.Context, id string, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateSummary(ctx context.Context, id string, summary domain.ProductSummary) error {
	args := m.Called(ctx, id, summary)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Order Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) CreatePackage(ctx context.Context, pkg *domain.PackageOrder) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *mockOrderRepository) GetPackageByID(ctx context.Context, id string) (*domain.PackageOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PackageOrder), args.Error(1)
}

func (m *mockOrderRepository) ListPackagesByAccountID(ctx context.Context, accountID string, page, perPage int) ([]domain.PackageOrder, int, error) {
	args := m.Called(ctx, accountID, page, perPage)
	return args.Get(0).([]domain.PackageOrder), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListOrdersByShopID(ctx context.Context, shopID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, shopID, page, perPage)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdatePackagePayment(ctx context.Context, id, status, paymentID, payerID string) error {
	args := m.Called(ctx, id, status, paymentID, payerID)
	return args.Error(0)
}

func (m *mockOrderRepository) GetDetailForAccount(ctx context.Context, detailID, accountID string) (*repository.OwnedOrderDetail, error) {
	args := m.Called(ctx, detailID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.OwnedOrderDetail), args.Error(1)
}

func (m *mockOrderRepository) DailyRevenue(ctx context.Context, shopID string, from, to time.Time) ([]repository.RevenueBucket, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]repository.RevenueBucket), args.Error(1)
}

func (m *mockOrderRepository) RevenueByKind(ctx context.Context, shopID string, from, to time.Time) ([]repository.KindRevenue, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]repository.KindRevenue), args.Error(1)
}

func (m *mockOrderRepository) KindDailyStats(ctx context.Context, shopID string, from, to time.Time) ([]repository.KindDailyStat, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]repository.KindDailyStat), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByOrderDetailID(ctx context.Context, orderDetailID string) (*domain.Review, error) {
	args := m.Called(ctx, orderDetailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page, perPage)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.Review, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Summary(ctx context.Context, productID string) (domain.ProductSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.ProductSummary), args.Error(1)
}

// --- Mock Tx Manager ---

// mockTxManager runs the transactional function directly.
type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Mock Payment Gateway ---

type mockPaymentGateway struct {
	mock.Mock
}

func (m *mockPaymentGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

func (m *mockPaymentGateway) Refund(ctx context.Context, req *payment.RefundRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// --- Mock Storage ---

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Mock Product Cache ---

type mockProductCache struct {
	mock.Mock
}

func (m *mockProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductCache) Set(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductCache) Invalidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Shop Resolver ---

type mockShopResolver struct {
	mock.Mock
}

func (m *mockShopResolver) ResolveShopID(ctx context.Context, identity *authz.Identity) (string, error) {
	args := m.Called(ctx, identity)
	return args.String(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestGoogleOAuth() *auth.GoogleOAuth {
	return auth.NewGoogleOAuth(auth.GoogleOAuthConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/api/v1/auth/google/callback",
	})
}

func newTestIdentity(t *testing.T, accountID string, role authz.Role) *authz.Identity {
	t.Helper()
	identity, err := authz.NewIdentity(accountID, accountID+"@example.com", role)
	if err != nil {
		t.Fatalf("build identity: %v", err)
	}
	return identity
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}
