package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hojin-choi/oreum/internal"
	"github.com/hojin-choi/oreum/internal/auth"
	"github.com/hojin-choi/oreum/internal/handler/api"
	"github.com/hojin-choi/oreum/internal/middleware"
	"github.com/hojin-choi/oreum/internal/payment"
	"github.com/hojin-choi/oreum/internal/postgres"
	"github.com/hojin-choi/oreum/internal/router"
	"github.com/hojin-choi/oreum/internal/routes"
	"github.com/hojin-choi/oreum/internal/service"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// database/sql connection for goose; the app itself uses the pgx pool.
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseUrl)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("Database connection established")

	orderStore := postgres.NewOrderStore(pool)
	cartStore := postgres.NewCartStore(pool)
	userStore := postgres.NewUserStore(pool)

	var verifier payment.Verifier
	if cfg.Payment.SkipVerification {
		logger.Warn("payment verification is DISABLED, all payments will be approved")
		verifier = payment.NewMockVerifier()
	} else {
		verifier, err = payment.NewGatewayVerifier(payment.Config{
			APIKey:    cfg.Payment.APIKey,
			APISecret: cfg.Payment.Secret,
			BaseURL:   cfg.Payment.BaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize payment verifier: %w", err)
		}
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	orderService := service.NewOrderService(logger, orderStore, cartStore, verifier)
	cartService := service.NewCartService(logger, cartStore)
	authService := service.NewAuthService(logger, userStore, tokens)

	metrics := middleware.NewMetrics("oreum")
	defaultLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	authLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer defaultLimiter.Stop()
	defer authLimiter.Stop()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultRequestTimeout),
		defaultLimiter.Middleware,
		router.CORS(cfg.AllowedOrigins),
		router.Logger(logger),
	)

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.Register(r, routes.Deps{
		Auth:          api.NewAuthHandler(logger, authService),
		Orders:        api.NewOrderHandler(logger, orderService),
		Carts:         api.NewCartHandler(logger, cartService),
		Authenticator: middleware.NewAuthenticator(tokens, userStore),
		AuthLimiter:   authLimiter,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)
	return http.ListenAndServe(addr, r)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
