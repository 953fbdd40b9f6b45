// Checkout Bridge - relays carts from one storefront to another store's
// checkout. Designed for Cloud Run deployment with stateless operation
// (the SKU index is a cache, not state).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-bridge/internal/bridge"
	"checkout-bridge/internal/config"
	"checkout-bridge/internal/handler"
	"checkout-bridge/internal/index"
	"checkout-bridge/internal/middleware"
	"checkout-bridge/internal/notify"
	"checkout-bridge/internal/resolver"
	"checkout-bridge/internal/shopify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.Domain),
		slog.String("strategy", cfg.Strategy),
		slog.String("failure_policy", cfg.FailurePolicy),
	)

	// Storefront catalog client
	client, err := shopify.New(shopify.Config{
		StoreDomain: cfg.Store.Domain,
		AccessToken: cfg.Store.AccessToken,
		APIVersion:  cfg.Store.APIVersion,
		PageSize:    cfg.Store.PageSize,
	})
	if err != nil {
		return fmt.Errorf("creating storefront client: %w", err)
	}

	// Background tasks stop with the server.
	backgroundCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	// Resolution strategy: cached deployments own an index manager with a
	// blocking initial build and a periodic rebuild loop.
	var res resolver.Resolver
	var idx *index.Manager
	if cfg.Strategy == config.StrategyCached {
		idx = index.New(client, cfg.RebuildInterval, logger)

		size, err := idx.Rebuild(ctx)
		if err != nil {
			// Non-fatal: the health endpoint reports zero entries until a
			// rebuild succeeds.
			logger.Warn("initial sku index build failed",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("sku index built", slog.Int("size", size))
		}

		go idx.Run(backgroundCtx)
		res = resolver.NewCached(idx, logger)
	} else {
		res = resolver.NewOnDemand(client, logger)
	}

	notifier := notify.NewWebhook(cfg.Store.WebhookURL, logger)

	service, err := bridge.New(res, client, notifier, bridge.Config{
		FailurePolicy:   bridge.FailurePolicy(cfg.FailurePolicy),
		FallbackCartURL: cfg.Store.FallbackCartURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating bridge service: %w", err)
	}

	// Setup routes
	h := handler.New(service, res, idx, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → CORS → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelBackground()

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
