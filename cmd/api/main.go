package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lfbag/storefront/api/middleware"
	"github.com/lfbag/storefront/api/routes"
	"github.com/lfbag/storefront/internal/admin"
	"github.com/lfbag/storefront/internal/cart"
	"github.com/lfbag/storefront/internal/catalog"
	"github.com/lfbag/storefront/internal/checkout"
	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/config"
	"github.com/lfbag/storefront/pkg/db"
	"github.com/lfbag/storefront/pkg/instance"
	"github.com/lfbag/storefront/pkg/logger"
	"github.com/lfbag/storefront/pkg/mercadopago"
	"github.com/lfbag/storefront/pkg/metrics"
	"github.com/lfbag/storefront/pkg/migrate"
	"github.com/lfbag/storefront/pkg/redis"
	"github.com/lfbag/storefront/pkg/viacep"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	backendClient := backend.NewClient(cfg.Backend)
	addressClient := viacep.NewClient(viacep.WithBaseURL(cfg.ViaCEP.BaseURL), viacep.WithTimeout(cfg.ViaCEP.Timeout))
	gatewayClient, err := mercadopago.NewClient(cfg.MercadoPago)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercado pago client", err)
		os.Exit(1)
	}

	var persister cart.Persister
	if cfg.FeatureFlags.CartStoreIsDB() {
		persister = cart.NewSnapshotPersister(dbClient.DB(), cfg.Checkout.CartTTL)
	} else {
		persister, err = cart.NewRedisPersister(redisClient, cfg.Checkout.CartTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart persister", err)
			os.Exit(1)
		}
	}

	cartService, err := cart.NewService(persister, appMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	locker, err := checkout.NewRedisLocker(redisClient, cfg.Checkout.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout locker", err)
		os.Exit(1)
	}
	attempts, err := checkout.NewAttemptRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create attempt repository", err)
		os.Exit(1)
	}
	expressFee, err := cfg.Checkout.ExpressFeeAmount()
	if err != nil {
		logg.Error(context.Background(), "invalid express fee", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:        cartService,
		Backend:     backendClient,
		Address:     addressClient,
		Gateway:     gatewayClient,
		Tokenizer:   checkout.PresentedTokenizer{},
		CartIDs:     checkout.NewRedisCartIDStore(redisClient, cfg.Checkout.CartTTL),
		Locker:      locker,
		Attempts:    attempts,
		Metrics:     appMetrics,
		Logger:      logg,
		ExpressFee:  expressFee,
		Description: cfg.Checkout.Description,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	catalogReader, err := catalog.NewReader(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog reader", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Params{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Sessions:    middleware.NewSessionStore(cfg.Session),
		Metrics:     appMetrics,
		Gatherer:    registry,
		Catalog:     catalogReader,
		Cart:        cartService,
		Checkout:    checkoutService,
		Admin:       adminService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"cart_store": cfg.FeatureFlags.CartStore,
		"instance":   instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
