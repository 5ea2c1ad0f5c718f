package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskner/marketplace/internal/bootstrap"
	"github.com/taskner/marketplace/internal/controller"
	"github.com/taskner/marketplace/internal/gateway"
	infraRedis "github.com/taskner/marketplace/internal/infrastructure/redis"
	"github.com/taskner/marketplace/internal/infrastructure/observability"
	"github.com/taskner/marketplace/internal/orchestration"
	"github.com/taskner/marketplace/internal/services/memory"
	"github.com/taskner/marketplace/pkg/cache"
	"github.com/taskner/marketplace/pkg/intercept"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "marketplace-api", "marketplace")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config
	logger := app.Logger
	reporter := observability.NewReporter(logger, app.Metrics)

	// --- Cache: redis primary, in-process fallback ---
	var pairOpts []cache.PairOption
	if !cfg.Cache.FallbackEnabled {
		pairOpts = append(pairOpts, cache.WithFallbackDisabled())
	}
	store := cache.NewFallbackPair(
		cache.NewRedisStore(app.Redis),
		cache.NewMemoryStore(),
		logger,
		pairOpts...,
	)

	// --- Payment gateways ---
	factory := gateway.NewFactory(gateway.BreakerSettings{
		MaxRequests: cfg.Payment.CircuitBreaker.MaxRequests,
		Interval:    cfg.Payment.CircuitBreaker.Interval,
		Timeout:     cfg.Payment.CircuitBreaker.Timeout,
	}, logger, reporter, app.Metrics)

	for _, name := range cfg.Payment.Gateways {
		client := gateway.WithTimeout(gateway.NewSimulatedClient(name), cfg.Payment.GatewayTimeout)
		switch name {
		case "stripe":
			factory.Register(gateway.NewStripeGateway(client, logger))
		case "paypal":
			factory.Register(gateway.NewPayPalGateway(client, logger))
		default:
			logger.Warn().Str("gateway", name).Msg("unknown gateway in config, skipping")
		}
	}

	// --- Collaborator services ---
	bookings := memory.NewBookingService()
	transactions := memory.NewTransactionService()
	invoices := memory.NewInvoiceService()
	notifier := infraRedis.NewStreamNotifier(app.Redis, cfg.Notifications.Stream, logger, app.Metrics)

	// --- Facades ---
	paymentFacade := orchestration.NewPaymentFacade(
		factory, transactions, invoices, notifier,
		orchestration.RetrySettings{
			MaxAttempts: cfg.Payment.Retry.MaxAttempts,
			BaseDelay:   cfg.Payment.Retry.BaseDelay,
			Backoff:     intercept.Backoff(cfg.Payment.Retry.Backoff),
			Multiplier:  cfg.Payment.Retry.Multiplier,
		},
		logger, reporter, app.Metrics,
	)
	bookingFacade := orchestration.NewBookingFacade(
		bookings, paymentFacade, notifier, store, cfg.Cache.TTL,
		logger, reporter, app.Metrics,
	)

	router := controller.NewRouter(controller.RouterDeps{
		RedisClient:   app.Redis,
		BookingFacade: bookingFacade,
		PaymentFacade: paymentFacade,
		Metrics:       app.Metrics,
		CORSConfig:    cfg.Server.CORS,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server exited")
}
