package main

// Run database migrations:
//   go run ./cmd/migrate --database-url postgres://...

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"cv-backend/internal/shared/config"
	"cv-backend/internal/shared/storage/db"
	"cv-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	var (
		databaseURL string
		timeout     time.Duration
	)
	pflag.StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "Postgres connection URL (defaults to DATABASE_URL)")
	pflag.DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool := db.NewPool(databaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	handle, err := pool.Handle(ctx)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}

	if err := db.RunMigrations(ctx, handle); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		_ = pool.Close()
		telemetry.Sync()
		os.Exit(1)
	}
	_ = pool.Close()
	telemetry.Info("migrate.complete", nil)
	telemetry.Sync()
}
