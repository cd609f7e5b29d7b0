// Package app wires configuration, storage, messaging and HTTP into a
// runnable marketplace server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kidhood/bird-trading-platform/internal/auth"
	"github.com/kidhood/bird-trading-platform/internal/config"
	"github.com/kidhood/bird-trading-platform/internal/event"
	handler "github.com/kidhood/bird-trading-platform/internal/handler/http"
	"github.com/kidhood/bird-trading-platform/internal/payment"
	"github.com/kidhood/bird-trading-platform/internal/repository/postgres"
	redisrepo "github.com/kidhood/bird-trading-platform/internal/repository/redis"
	"github.com/kidhood/bird-trading-platform/internal/service"
	"github.com/kidhood/bird-trading-platform/internal/storage"
	"github.com/kidhood/bird-trading-platform/internal/storage/httpstore"
	"github.com/kidhood/bird-trading-platform/internal/storage/memory"
	"github.com/kidhood/bird-trading-platform/migrations"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	"github.com/kidhood/bird-trading-platform/pkg/health"
	"github.com/kidhood/bird-trading-platform/pkg/httpclient"
	pkgkafka "github.com/kidhood/bird-trading-platform/pkg/kafka"
	"github.com/kidhood/bird-trading-platform/pkg/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 5 * time.Second

	productCacheTTL = 5 * time.Minute
)

// App holds the wired application and its long-lived resources.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp builds the application from configuration: it connects to Postgres
// and Redis, applies migrations, and assembles repositories, services and the
// HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	eventProducer := event.NewProducer(kafkaProducer, logger)

	accessExpiry, err := time.ParseDuration(cfg.JWTAccessExpiry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse JWT access expiry: %w", err)
	}
	refreshExpiry, err := time.ParseDuration(cfg.JWTRefreshExpiry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse JWT refresh expiry: %w", err)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, accessExpiry, refreshExpiry)
	googleOAuth := auth.NewGoogleOAuth(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	// Repositories
	accountRepo := postgres.NewAccountRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	verifyTokenRepo := postgres.NewVerifyTokenRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)
	staffRepo := postgres.NewShopStaffRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	txManager := postgres.NewTxManager(pool)
	productCache := redisrepo.NewProductCache(redisClient, productCacheTTL)

	// Outbound clients
	httpClient := httpclient.New(httpclient.DefaultConfig())
	paymentClient := httpclient.NewCircuitBreakerClient(
		httpClient, httpclient.DefaultCircuitBreakerConfig("payment-gateway"), logger)
	gateway := payment.NewRESTGateway(paymentClient, cfg.PaymentGatewayURL)

	var mediaStore storage.Storage
	if cfg.StorageBaseURL != "" {
		mediaStore = httpstore.New(httpClient, cfg.StorageBaseURL)
	} else {
		// No media service configured. Uploads land in process memory, which
		// is enough for local development.
		mediaStore = memory.New(fmt.Sprintf("http://localhost:%d/media", cfg.HTTPPort))
		logger.Warn("STORAGE_BASE_URL not set, using in-memory media storage")
	}

	// Services
	accountService := service.NewAccountService(
		accountRepo, addressRepo, verifyTokenRepo, refreshTokenRepo,
		jwtManager, googleOAuth, eventProducer, logger)
	shopService := service.NewShopService(shopRepo, staffRepo, accountRepo, txManager, logger)
	catalogService := service.NewCatalogService(productRepo, productCache, shopService, logger)
	orderService := service.NewOrderService(
		orderRepo, productRepo, addressRepo, txManager, gateway, shopService, eventProducer, logger)
	reviewService := service.NewReviewService(
		reviewRepo, productRepo, orderRepo, txManager, mediaStore, productCache, eventProducer, logger)
	dashboardService := service.NewDashboardService(orderRepo, shopService, logger)

	// Health checks
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", kafkaProducer.Ping)

	router := handler.NewRouter(
		handler.Services{
			Accounts:  accountService,
			Shops:     shopService,
			Catalog:   catalogService,
			Orders:    orderService,
			Reviews:   reviewService,
			Dashboard: dashboardService,
		},
		jwtManager,
		healthHandler,
		logger,
		middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   kafkaProducer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Shutdown is always attempted before returning.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.httpServer.Addr, "environment", a.cfg.Environment)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	}
}

// shutdown drains in-flight requests, then closes the producer and the
// connection pools in dependency order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
	}
	if err := a.redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis client: %w", err))
	}
	a.pool.Close()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("shutdown complete")
	return nil
}
