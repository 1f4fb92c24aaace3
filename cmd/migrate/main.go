package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
	"github.com/omarfadal/suuqpos-backend/pkg/migrate"
)

// Migrates the shared remote Postgres store. The local sqlite schema is
// created by AutoMigrate at api boot and needs no goose history.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"cmd": *cmd, "dir": *dir})

	if cfg.RemoteDB.DSN == "" {
		logg.Error(ctx, "remote DSN is required to migrate", nil)
		os.Exit(1)
	}

	client, err := db.NewRemote(ctx, cfg.RemoteDB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to remote store", err)
		os.Exit(1)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql.DB", err)
		os.Exit(1)
	}

	switch *cmd {
	case "version":
		version, err := migrate.Version(sqlDB)
		if err != nil {
			logg.Error(ctx, "failed to read schema version", err)
			os.Exit(1)
		}
		fmt.Printf("remote schema version: %d\n", version)
	default:
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd, flag.Args()...); err != nil {
			logg.Error(ctx, "migration failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migration complete")
	}
}
