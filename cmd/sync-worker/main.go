package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/internal/remote"
	"github.com/omarfadal/suuqpos-backend/internal/syncer"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
	"github.com/omarfadal/suuqpos-backend/pkg/metrics"
)

// Standalone drain loop for deployments that run the API and the sync worker
// as separate processes against the same local store.
func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"branch": cfg.Device.BranchID,
		"device": cfg.Device.DeviceID,
	})

	if cfg.RemoteDB.DSN == "" {
		logg.Error(ctx, "sync worker requires a remote DSN", nil)
		os.Exit(1)
	}

	local, err := db.NewLocal(ctx, cfg.LocalDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer local.Close()

	remoteClient, err := db.NewRemote(ctx, cfg.RemoteDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to remote store", err)
		os.Exit(1)
	}
	defer remoteClient.Close()

	applier, err := remote.NewApplier(remote.ApplierParams{Remote: remoteClient, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to create remote applier", err)
		os.Exit(1)
	}

	engine, err := syncer.NewEngine(syncer.EngineParams{
		Queue:   outbox.NewRepository(local.DB()),
		Applier: applier,
		Logger:  logg,
		Metrics: metrics.NewSyncMetrics(nil),
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

	engine.Start(ctx)
	logg.Info(ctx, "sync worker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info(ctx, "sync worker stopping")
	engine.Stop()
}
