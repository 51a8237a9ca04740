package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/cvs"
	"cv-backend/internal/services/health"
	"cv-backend/internal/shared/config"
	"cv-backend/internal/shared/metrics"
	"cv-backend/internal/shared/server/middleware"
	"cv-backend/internal/shared/server/respond"
)

// RouterDeps bundles the handlers the router mounts.
type RouterDeps struct {
	Config      config.Config
	CVHandler   *cvs.Handler
	Health      *health.Service
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	api.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := healthSvc.Ready(ctx); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "not_ready", "Database connection failed", gin.H{"reason": err.Error()})
			return
		}
		respond.OK(c, gin.H{"ok": true, "database": "connected"})
	})

	if deps.CVHandler != nil {
		deps.CVHandler.RegisterRoutes(api, writeRateLimit(deps))
	}

	return r
}

func writeRateLimit(deps RouterDeps) gin.HandlerFunc {
	rule := middleware.RateLimitRule{
		Rate:  deps.Config.RateLimitWritesPerSec,
		Burst: deps.Config.RateLimitBurst,
	}
	return middleware.RateLimit(rule, deps.RateLimiter)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
