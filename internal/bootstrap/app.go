package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/cvs"
	"cv-backend/internal/services/health"
	"cv-backend/internal/shared/config"
	"cv-backend/internal/shared/server"
	"cv-backend/internal/shared/storage/db"
	"cv-backend/internal/shared/telemetry"
)

const migrateTimeout = 30 * time.Second

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	Pool      *db.Pool
	Repo      cvs.Repo
	CVService *cvs.Service
	CVHandler *cvs.Handler
	Health    *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Pool: pool}

	var checkers []health.Checker
	if pool != nil {
		app.Repo = cvs.NewPGRepo(pool, cfg.SnapshotReads)
		checkers = append(checkers, health.NewDatabaseChecker(pool))
	} else {
		app.Repo = cvs.NewMemoryRepo()
	}
	app.CVService = cvs.NewService(app.Repo)
	app.CVHandler = cvs.NewHandler(app.CVService)
	app.Health = health.NewService(checkers...)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    app.Config,
		CVHandler: app.CVHandler,
		Health:    app.Health,
	})

	return app, nil
}

// Close releases the pool, if any.
func (a *App) Close() error {
	if a == nil || a.Pool == nil {
		return nil
	}
	return a.Pool.Close()
}

// buildPool returns nil when the process should run on in-memory storage.
// The pool is lazy unless migrations have to run at startup.
func buildPool(ctx context.Context, cfg config.Config) (*db.Pool, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	if db.IsLambdaRuntime() {
		opts = db.OptionsFromEnv(db.DefaultLambdaOptions())
	}
	pool := db.NewPool(cfg.DatabaseURL, opts)

	if !cfg.AutoMigrate {
		return pool, nil
	}

	mctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	err := migrate(mctx, pool)
	if err == nil {
		return pool, nil
	}
	_ = pool.Close()
	if isDevLike(cfg.Env) {
		telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "database unavailable", "error": err.Error()})
		return nil, nil
	}
	return nil, err
}

func migrate(ctx context.Context, pool *db.Pool) error {
	handle, err := pool.Handle(ctx)
	if err != nil {
		return err
	}
	if err := db.RunMigrations(ctx, handle); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
