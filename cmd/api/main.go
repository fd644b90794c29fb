package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/crowdvault/crowdvault-backend/api/routes"
	"github.com/crowdvault/crowdvault-backend/internal/campaigns"
	"github.com/crowdvault/crowdvault-backend/internal/funding"
	"github.com/crowdvault/crowdvault-backend/internal/ledger"
	"github.com/crowdvault/crowdvault-backend/internal/platform"
	"github.com/crowdvault/crowdvault-backend/internal/treasury"
	"github.com/crowdvault/crowdvault-backend/pkg/config"
	"github.com/crowdvault/crowdvault-backend/pkg/db"
	"github.com/crowdvault/crowdvault-backend/pkg/logger"
	"github.com/crowdvault/crowdvault-backend/pkg/metrics"
	"github.com/crowdvault/crowdvault-backend/pkg/migrate"
	"github.com/crowdvault/crowdvault-backend/pkg/outbox"
	"github.com/crowdvault/crowdvault-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
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
	fundingMetrics := metrics.NewFundingMetrics(registry)

	treasurySvc := treasury.New(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	platformRepo := platform.NewRepository(dbClient.DB())

	platformSvc, err := platform.NewService(dbClient, platformRepo, treasurySvc, logg, cfg.Treasury.RecordReserveUnits)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform service", err)
		os.Exit(1)
	}

	campaignRepo := campaigns.NewRepository(dbClient.DB())
	campaignSvc, err := campaigns.NewService(dbClient, campaignRepo, platformRepo, treasurySvc, outboxSvc, logg, cfg.Treasury.RecordReserveUnits)
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign service", err)
		os.Exit(1)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	fundingEngine, err := funding.NewEngine(dbClient, campaignRepo, platformRepo, treasurySvc, ledgerSvc, outboxSvc, fundingMetrics, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create funding engine", err)
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
			platformSvc,
			campaignSvc,
			fundingEngine,
			ledgerSvc,
			treasurySvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
