package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/omarfadal/suuqpos-backend/api/routes"
	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/catalog"
	"github.com/omarfadal/suuqpos-backend/internal/expenses"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/internal/remote"
	"github.com/omarfadal/suuqpos-backend/internal/reports"
	"github.com/omarfadal/suuqpos-backend/internal/sales"
	"github.com/omarfadal/suuqpos-backend/internal/syncer"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
	"github.com/omarfadal/suuqpos-backend/pkg/metrics"
	"github.com/omarfadal/suuqpos-backend/pkg/migrate"
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

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"branch": cfg.Device.BranchID,
		"device": cfg.Device.DeviceID,
	})

	local, err := db.NewLocal(ctx, cfg.LocalDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if err := local.Close(); err != nil {
			logg.Error(ctx, "error closing local store", err)
		}
	}()

	if err := local.MigrateLocal(ctx); err != nil {
		logg.Error(ctx, "failed to migrate local store", err)
		os.Exit(1)
	}

	// The remote store is optional at boot; the till must come up offline.
	var remoteClient *db.Client
	if cfg.RemoteDB.DSN != "" {
		remoteClient, err = db.NewRemote(ctx, cfg.RemoteDB, logg)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "remote store unreachable at boot, starting offline")
			remoteClient = nil
		}
	}
	if remoteClient != nil {
		defer func() {
			if err := remoteClient.Close(); err != nil {
				logg.Error(ctx, "error closing remote store", err)
			}
		}()
		if err := migrate.MaybeRunDev(ctx, cfg, logg, remoteClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	balances, err := balance.NewEngine(balance.EngineParams{
		Repository: balance.NewRepository(local.DB()),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create balance engine", err)
		os.Exit(1)
	}
	if err := balances.Load(ctx); err != nil {
		logg.Error(ctx, "failed to load balance engine", err)
		os.Exit(1)
	}

	stock, err := inventory.NewEngine(inventory.EngineParams{
		Repository: inventory.NewRepository(local.DB()),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create inventory engine", err)
		os.Exit(1)
	}
	if err := stock.Load(ctx); err != nil {
		logg.Error(ctx, "failed to load inventory engine", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repository: catalog.NewRepository(local.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	queue := outbox.NewRepository(local.DB())

	salesSvc, err := sales.NewService(sales.ServiceParams{
		Local:     local,
		Repo:      sales.NewRepository(local.DB()),
		Catalog:   catalog.NewRepository(local.DB()),
		Balances:  balances,
		Inventory: stock,
		Outbox:    queue,
		Logger:    logg,
		DeviceID:  cfg.Device.DeviceID,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sales service", err)
		os.Exit(1)
	}

	expenseSvc, err := expenses.NewService(expenses.ServiceParams{
		Repository: expenses.NewRepository(local.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create expense service", err)
		os.Exit(1)
	}

	reportSvc, err := reports.NewService(reports.ServiceParams{
		Repository: reports.NewRepository(local.DB()),
		Balances:   balances,
		Inventory:  stock,
		Expenses:   expenseSvc,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reports service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var syncEngine *syncer.Engine
	if cfg.Sync.Enabled && remoteClient != nil {
		applier, err := remote.NewApplier(remote.ApplierParams{Remote: remoteClient, Logger: logg})
		if err != nil {
			logg.Error(ctx, "failed to create remote applier", err)
			os.Exit(1)
		}
		syncEngine, err = syncer.NewEngine(syncer.EngineParams{
			Queue:   queue,
			Applier: applier,
			Logger:  logg,
			Metrics: metrics.NewSyncMetrics(registry),
			Online: func(ctx context.Context) bool {
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				return remoteClient.Ping(pingCtx) == nil
			},
			Interval: cfg.Sync.Interval(),
			MaxBatch: cfg.Sync.MaxBatch,
		})
		if err != nil {
			logg.Error(ctx, "failed to create sync engine", err)
			os.Exit(1)
		}
		syncEngine.Start(context.Background())
		defer syncEngine.Stop()
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:       cfg,
		Logger:       logg,
		Local:        local,
		Remote:       remotePinger(remoteClient),
		Balances:     balances,
		Inventory:    stock,
		Catalog:      catalogSvc,
		Sales:        salesSvc,
		Expenses:     expenseSvc,
		Reports:      reportSvc,
		Queue:        queue,
		Syncer:       syncEngine,
		PromRegistry: registry,
	})

	addr := ":" + cfg.App.Port
	logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")

	server := &http.Server{Addr: addr, Handler: router}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// remotePinger avoids handing a typed nil pointer to the router's interface
// field.
func remotePinger(client *db.Client) db.Pinger {
	if client == nil {
		return nil
	}
	return client
}
