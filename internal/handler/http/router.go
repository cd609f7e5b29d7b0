package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidhood/bird-trading-platform/pkg/health"
	"github.com/kidhood/bird-trading-platform/pkg/middleware"

	"github.com/kidhood/bird-trading-platform/internal/auth"
	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/service"
)

// Services bundles the application services the router exposes.
type Services struct {
	Accounts  *service.AccountService
	Shops     *service.ShopService
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Reviews   *service.ReviewService
	Dashboard *service.DashboardService
}

// NewRouter creates a chi router with all marketplace routes registered.
// Authentication and authorization are enforced globally by the authz
// middleware; handlers only read the identity from the context.
func NewRouter(
	svcs Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	resolve := func(token string) (*authz.Identity, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return authz.NewIdentity(claims.AccountID, claims.Email, authz.Role(claims.Role))
	}
	evaluator := authz.NewEvaluator(authz.Config{PublicPatterns: authz.DefaultPublicPatterns()})

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("marketplace"))
	r.Use(authz.Middleware(resolve, evaluator, logger))

	// Health and metrics endpoints
	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(svcs.Accounts, logger)
	accountHandler := NewAccountHandler(svcs.Accounts, logger)
	shopHandler := NewShopHandler(svcs.Shops, logger)
	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	reviewHandler := NewReviewHandler(svcs.Reviews, logger)
	dashboardHandler := NewDashboardHandler(svcs.Dashboard, logger)

	// Public catalog
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", catalogHandler.Search)
		r.Get("/slug/{slug}", catalogHandler.GetProductBySlug)
		r.Get("/{id}", catalogHandler.GetProduct)
		r.Get("/{id}/reviews", reviewHandler.ListProductReviews)
		r.Get("/{id}/summary", reviewHandler.ProductReviewSummary)
	})
	r.Get("/api/v1/birds/{id}", catalogHandler.GetBird)
	r.Get("/api/v1/accessories/{id}", catalogHandler.GetAccessory)
	r.Get("/api/v1/foods/{id}", catalogHandler.GetFood)

	// Public shop pages
	r.Route("/api/v1/shops", func(r chi.Router) {
		r.Get("/slug/{slug}", shopHandler.GetShopBySlug)
		r.Get("/{id}", shopHandler.GetShop)
	})

	// Registration, login and token endpoints
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/api/v1/users/register", authHandler.Register)
		r.Post("/api/v1/users/authenticate", authHandler.Authenticate)
		r.Post("/api/v1/users/reset-password", authHandler.ForgotPassword)
		r.Post("/api/v1/users/verify/reset-password", authHandler.ResetPassword)

		r.Post("/api/v1/auth/refresh", authHandler.RefreshToken)
		r.Post("/api/v1/auth/logout", authHandler.Logout)
	})
	r.Get("/api/v1/users/verify/register", authHandler.VerifyEmail)

	// Google OAuth2 login
	r.Get("/oauth2/google", authHandler.GoogleRedirect)
	r.Get("/oauth2/google/callback", authHandler.GoogleCallback)

	// Account area: profile, addresses, checkout, reviews, shop opening
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/me", accountHandler.GetProfile)
			r.Put("/me", accountHandler.UpdateProfile)
			r.Put("/me/password", authHandler.ChangePassword)

			r.Get("/me/addresses", accountHandler.ListAddresses)
			r.Post("/me/addresses", accountHandler.CreateAddress)
			r.Put("/me/addresses/{id}", accountHandler.UpdateAddress)
			r.Delete("/me/addresses/{id}", accountHandler.DeleteAddress)
			r.Put("/me/addresses/{id}/default", accountHandler.SetDefaultAddress)

			r.Post("/shops", shopHandler.CreateShop)

			r.Post("/orders", orderHandler.PlaceOrder)
			r.Get("/orders", orderHandler.ListMyPackages)
			r.Get("/orders/{id}", orderHandler.GetPackage)
			r.Get("/orders/{id}/reviews", reviewHandler.ListOrderReviews)
		})

		// Multipart upload, so no JSON content-type enforcement.
		r.Post("/reviews", reviewHandler.Submit)
	})

	// Shop-owner area
	r.Route("/api/v1/shopowner", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Put("/shops/{id}", shopHandler.UpdateShop)

		r.Get("/staff", shopHandler.ListStaff)
		r.Post("/staff", shopHandler.AddStaff)
		r.Delete("/staff/{id}", shopHandler.RevokeStaff)

		r.Post("/birds", catalogHandler.CreateBird)
		r.Put("/birds/{id}", catalogHandler.UpdateBird)
		r.Post("/accessories", catalogHandler.CreateAccessory)
		r.Put("/accessories/{id}", catalogHandler.UpdateAccessory)
		r.Post("/foods", catalogHandler.CreateFood)
		r.Put("/foods/{id}", catalogHandler.UpdateFood)

		r.Get("/products", catalogHandler.ListShopProducts)
		r.Put("/products/{id}/status", catalogHandler.UpdateStatus)
		r.Delete("/products/{id}", catalogHandler.ArchiveProduct)

		r.Get("/orders", orderHandler.ListShopOrders)
		r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)

		r.Get("/dashboard/line", dashboardHandler.RevenueLineChart)
		r.Get("/dashboard/pie", dashboardHandler.RevenuePie)
		r.Get("/dashboard/weekly", dashboardHandler.WeeklyRevenue)
	})

	// Shop-staff area: order handling and stock browsing only
	r.Route("/api/v1/shopstaff", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/products", catalogHandler.ListShopProducts)
		r.Get("/orders", orderHandler.ListShopOrders)
		r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
	})

	// Admin area: cross-shop management through the same handlers; the
	// services grant admins the bypass.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Put("/shops/{id}", shopHandler.UpdateShop)
		r.Get("/orders/{id}", orderHandler.GetPackage)
		r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
		r.Put("/products/{id}/status", catalogHandler.UpdateStatus)
	})

	return r
}
