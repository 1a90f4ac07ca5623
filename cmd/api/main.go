package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcart/internal/auth"
	"shopcart/internal/config"
	"shopcart/internal/database"
	"shopcart/internal/events"
	"shopcart/internal/handler"
	"shopcart/internal/middleware"
	"shopcart/internal/payment"
	"shopcart/internal/repository"
	"shopcart/internal/router"
	"shopcart/internal/seed"
	"shopcart/internal/service"
	"shopcart/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", version).Msg("starting shopcart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter, flushSentry, err := telemetry.InitSentry(cfg.Sentry, version, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, "up", logger); err != nil {
			return err
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	if cfg.Seed.Enabled {
		if err := seedCatalogue(ctx, cfg.Seed, productRepo, logger); err != nil {
			return err
		}
	}

	publisher := newPublisher(cfg.NATS, logger)
	defer publisher.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := telemetry.NewBusinessMetrics(cfg.Metrics.Namespace, registry)
	httpMetrics := middleware.NewHTTPMetrics(cfg.Metrics.Namespace, registry)

	provider := payment.NewDisabledProvider()
	if cfg.Stripe.Enabled() {
		provider = payment.NewStripeProvider(cfg.Stripe, logger)
	} else {
		logger.Warn().Msg("stripe not configured, hosted checkout disabled (demo checkout remains available)")
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, businessMetrics, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, publisher, businessMetrics, logger)
	checkoutService := service.NewCheckoutService(
		cartService, orderService, provider, cfg.Stripe.PublishableKey, businessMetrics, reporter, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Health:   handler.NewHealthHandler(pool, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Options{
		Authenticator:  auth.NewAuthenticator(cfg.Auth, logger),
		HTTPMetrics:    httpMetrics,
		Gatherer:       registry,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// seedCatalogue loads the seed files into an empty catalogue, reading from
// S3 first when it is enabled.
func seedCatalogue(ctx context.Context, cfg config.SeedConfig, store seed.ProductStore, logger zerolog.Logger) error {
	fileLoader := seed.NewFileLoader(logger)

	var s3Loader seed.Loader
	if cfg.S3Enabled {
		l, err := seed.NewS3Loader(ctx, cfg.S3Bucket, cfg.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for seed files (S3 disabled)")
	}

	loader := seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3Prefix, logger)
	if _, err := seed.NewSeeder(store, loader, cfg.Files, logger).Run(ctx); err != nil {
		return fmt.Errorf("failed to seed catalogue: %w", err)
	}
	return nil
}

// newPublisher connects to NATS when configured. A failed connection is
// logged and events are dropped rather than blocking startup.
func newPublisher(cfg config.NATSConfig, logger zerolog.Logger) events.Publisher {
	if cfg.URL == "" {
		logger.Info().Msg("NATS not configured, order events disabled")
		return events.NewNopPublisher()
	}

	publisher, err := events.NewNATSPublisher(cfg.URL, cfg.SubjectPrefix, logger)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.URL).Msg("failed to connect to NATS, order events disabled")
		return events.NewNopPublisher()
	}
	return publisher
}
