package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gupfee/greenhaus/internal"
	"github.com/gupfee/greenhaus/internal/discount"
	"github.com/gupfee/greenhaus/internal/events"
	"github.com/gupfee/greenhaus/internal/handler/storefront"
	"github.com/gupfee/greenhaus/internal/order"
	"github.com/gupfee/greenhaus/internal/pricing"
	"github.com/gupfee/greenhaus/internal/router"
	"github.com/gupfee/greenhaus/internal/rules"
	"github.com/gupfee/greenhaus/internal/service"
	"github.com/gupfee/greenhaus/internal/shipping"
	"github.com/gupfee/greenhaus/internal/storage"
	"github.com/gupfee/greenhaus/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Snapshot storage: Postgres when configured, in-memory otherwise
	var store storage.Store
	if cfg.DatabaseUrl != "" {
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

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		store = storage.NewPostgresStore(pool)
		logger.Info("Database connection established")
	} else {
		logger.Warn("DATABASE_URL not set, cart snapshots are kept in memory only")
		store = storage.NewMemoryStore()
	}

	// Load pricing rules
	ruleSet, err := rules.Load(cfg.PricingRulesPath)
	if err != nil {
		return err
	}
	logger.Info("Pricing rules loaded",
		"tiers", len(ruleSet.Tiers),
		"discounts", len(ruleSet.Discounts),
		"free_shipping_threshold", ruleSet.FreeShippingThreshold,
	)

	resolver, err := shipping.NewFlatRateResolver(ruleSet.Tiers, ruleSet.DefaultTier, ruleSet.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("failed to initialize shipping resolver: %w", err)
	}

	discounts := discount.NewStaticTable(ruleSet.Discounts)
	calculator := pricing.NewCalculator(resolver, discounts)

	// Prometheus metrics
	metrics := telemetry.NewMetrics("greenhaus", prometheus.DefaultRegisterer)

	// Cart change notifications: always in-process, plus NATS when configured
	fanout := events.NewFanout()
	if cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL, nats.Name("greenhaus-cart"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Drain()
		fanout.Forward(events.NewNATSNotifier(nc, cfg.Nats.Subject))
		logger.Info("NATS event publishing enabled", "subject", cfg.Nats.Subject)
	}

	// Cart controller
	controller := service.NewCartController(store, fanout, calculator, metrics, logger, service.ControllerConfig{
		CartKey:        cfg.Cart.Key,
		PersistTimeout: cfg.Cart.PersistTimeout,
	})
	defer controller.Close()

	// Restore any persisted cart from a previous run
	if snap, err := controller.Resync(ctx); err != nil {
		logger.Warn("cart restore incomplete", "error", err)
	} else {
		logger.Info("cart restored", "item_count", snap.ItemCount)
	}

	// Checkout
	checkoutService := service.NewCheckoutService(controller, &order.MockSubmitter{}, logger)

	// Quote defaults: rules file wins over the env default
	taxRate := cfg.DefaultTaxRate
	if !ruleSet.DefaultTaxRate.IsZero() {
		taxRate = ruleSet.DefaultTaxRate
	}
	defaults := storefront.QuoteDefaults{Tier: ruleSet.DefaultTier, TaxRate: taxRate}

	cartHandler := storefront.NewCartHandler(controller, defaults, logger)
	shippingHandler := storefront.NewShippingHandler(controller, resolver, logger)
	checkoutHandler := storefront.NewCheckoutHandler(checkoutService, defaults, logger)

	// Router
	r := router.New(
		router.Recovery(logger),
		router.Metrics(metrics),
		router.CORS(strings.Split(cfg.AllowedOrigins, ",")),
		router.Logger(logger),
	)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	cartHandler.RegisterRoutes(r)
	shippingHandler.RegisterRoutes(r)
	checkoutHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting cart engine", "address", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
