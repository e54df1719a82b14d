package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hawthornlabs/salesdesk-backend/api/routes"
	"github.com/hawthornlabs/salesdesk-backend/internal/identity"
	"github.com/hawthornlabs/salesdesk-backend/internal/locations"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/cart"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/performance"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/purchase"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/repeatvisit"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/search"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/summary"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	"github.com/hawthornlabs/salesdesk-backend/pkg/db"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
	"github.com/hawthornlabs/salesdesk-backend/pkg/metrics"
	"github.com/hawthornlabs/salesdesk-backend/pkg/migrate"
	"github.com/hawthornlabs/salesdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "salesdesk-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "salesdesk-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	stats := metrics.NewTaskMetrics(registry)

	gdb := dbClient.DB()
	timeout := cfg.DB.QueryTimeout
	resolver := identity.NewResolver(gdb, timeout)

	trackingService, err := tracking.NewService(tracking.NewRepository(gdb, timeout), stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}

	purchaseService, err := purchase.NewService(purchase.NewRepository(gdb, timeout), resolver, trackingService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewRepository(gdb, timeout), resolver, trackingService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	searchService, err := search.NewService(search.NewRepository(gdb, timeout), resolver, trackingService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create search service", err)
		os.Exit(1)
	}
	repeatVisitService, err := repeatvisit.NewService(repeatvisit.NewRepository(gdb, timeout), resolver, trackingService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create repeat-visit service", err)
		os.Exit(1)
	}
	performanceService, err := performance.NewService(performance.NewRepository(gdb, timeout), resolver, trackingService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create performance service", err)
		os.Exit(1)
	}
	summaryService, err := summary.NewService(purchaseService, cartService, searchService, repeatVisitService, performanceService, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create summary service", err)
		os.Exit(1)
	}
	locationsService, err := locations.NewService(gdb, timeout)
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			locationsService,
			purchaseService,
			cartService,
			searchService,
			repeatVisitService,
			performanceService,
			summaryService,
			trackingService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
