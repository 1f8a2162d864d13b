package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/citation"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/profile"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	// DB
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer database.Close()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("open pool", zap.Error(err))
	}
	defer pool.Close()

	orderRepo := order.NewRepository(database)
	profileRepo := profile.NewPostgresRepository(pool)
	dedupRepo := dedup.NewRepository(database)

	// Carts
	var cartStorage cart.Storage = cart.NewMemoryStorage()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("parse REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cartStorage = cart.NewRedisStorage(rdb, cfg.CartTTL)
	} else {
		logger.Warn("REDIS_URL not set, carts are kept in process memory")
	}

	// RabbitMQ, optional
	var orderEvents checkout.OrderEvents
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("dial rabbitmq", zap.Error(err))
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, sequence.NewCounter(database))
		if err != nil {
			logger.Fatal("create publisher", zap.Error(err))
		}
		defer publisher.Close()
		orderEvents = publisher
	}

	// Payments
	stripeGateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
	gateway := payment.NewBreakerGateway(stripeGateway, payment.BreakerSettings{
		MaxConsecutiveFailures: cfg.BreakerMaxFailures,
		OpenTimeout:            cfg.BreakerTimeout,
	}, logger)

	svc := checkout.NewService(checkout.Config{
		Currency: cfg.Currency,
		Shipping: cfg.ShippingFlat,
		SiteURL:  cfg.SiteURL,
		Plans:    checkout.DefaultPlans(cfg.StripePriceMonthly, cfg.StripePriceAnnual),
	}, gateway, orderRepo, profileRepo, orderEvents, logger)
	reconciler := checkout.NewReconciler(orderRepo, profileRepo, dedupRepo, orderEvents, logger)

	// HTTP
	router := httpapi.NewRouter(httpapi.Deps{
		Checkout:         svc,
		Carts:            cartStorage,
		Orders:           orderRepo,
		Citations:        citation.NewGenerator(nil),
		Verifier:         stripeGateway,
		Webhooks:         reconciler,
		Logger:           logger,
		JWTSecret:        []byte(cfg.JWTSecret),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, "storefront-service"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront-service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		zcfg := zap.NewProductionConfig()
		if lvl, perr := zap.ParseAtomicLevel(level); perr == nil {
			zcfg.Level = lvl
		}
		logger, err = zcfg.Build()
	}
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("service", "storefront-service"))
}
