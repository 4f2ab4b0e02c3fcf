package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, tokens *auth.Manager, cfg *config.ServerConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(logger), gin.Recovery())
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API group; the limiter runs after auth so buckets are per worker.
	api := r.Group("/api")
	api.Use(auth.Middleware(tokens), rateLimiter)
	{
		shifts := api.Group("/shifts")
		shifts.POST("", h.ClockIn)
		shifts.GET("/active", h.ActiveShift)
		shifts.GET("/summary", h.Summary)
		shifts.GET("/calendar.ics", caching, h.Calendar)
		shifts.POST("/:id/breaks/start", h.StartBreak)
		shifts.POST("/:id/breaks/end", h.EndBreak)
		shifts.POST("/:id/clock-out", h.ClockOut)

		reviews := api.Group("/review")
		reviews.GET("/timesheets", h.ListTimesheets)
		reviews.GET("/counts", h.ReviewCounts)
		reviews.POST("/timesheets/:id/approve", h.ApproveTimesheet)
		reviews.POST("/timesheets/:id/dispute", h.DisputeTimesheet)
		reviews.GET("/export.xlsx", h.ExportTimesheets)

		api.GET("/policy", h.GetPolicy)
		api.PUT("/policy", h.PutPolicy)
	}

	return r
}
