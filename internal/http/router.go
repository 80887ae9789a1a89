// Package httpapi assembles the Gin engine: the middleware chain, the
// operational endpoints (/health, /metrics, /swagger) and the roadmap API
// mounted under the configured base path.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-roadmap-backend/docs" // swagger spec registration
	"github.com/tbourn/go-roadmap-backend/internal/cache"
	"github.com/tbourn/go-roadmap-backend/internal/config"
	"github.com/tbourn/go-roadmap-backend/internal/http/handlers"
	"github.com/tbourn/go-roadmap-backend/internal/http/middleware"
	"github.com/tbourn/go-roadmap-backend/internal/services"
)

const (
	maxBodyBytes  = 1 << 20
	healthTimeout = 2 * time.Second
	corsMaxAge    = 12 * time.Hour
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsAllow   = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
)

// RegisterRoutes installs middleware and routes on r. model serves fresh
// generations; kv is the optional dedup cache and may be nil.
//
// The request ID is assigned before the access logger so every log line
// carries it, and recovery runs inside the logger so a panic is still logged
// as a 500. The idempotency validator runs ahead of the rate limiter, which
// lets replays of a completed generation through without spending a token.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, model services.Invoker, kv *cache.RoadmapCache, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	base := cfg.APIBasePath
	generatePath := joinPath(base, "/roadmaps/generate")

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: []string{"X-API-Key"}}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope: func(c *gin.Context) string {
				if p := c.FullPath(); p != generatePath {
					return p
				}
				return services.GenerateScope
			},
		}, replayLookup(db)),
		middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler(),
	)
	r.Use(corsChain(cfg.CORS.AllowedOrigins)...)
	r.Use(
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:   cfg.Security.EnableHSTS,
			HSTSMaxAge:   cfg.Security.HSTSMaxAge,
			NoStorePaths: []string{generatePath, joinPath(base, "/credits")},
			EnablePolicy: true,
			DocsPrefix:   "/swagger",
		}),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	if kv == nil {
		kv = cache.Disabled()
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", health(kv))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	roadmaps := services.NewRoadmapService(db, roadmapStore{}, creditStore{}, model)
	roadmaps.Idem = idemStore{}
	roadmaps.Cache = kv
	roadmaps.SystemKey = cfg.Model.APIKey
	roadmaps.DefaultCredits = cfg.DefaultCredits
	if cfg.ExploreSearchLimit > 0 {
		roadmaps.SearchLimit = cfg.ExploreSearchLimit
	}
	if cfg.IdempotencyTTL > 0 {
		roadmaps.IdempotencyTTL = cfg.IdempotencyTTL
	}
	credits := &services.CreditService{DB: db, Ledger: creditStore{}, DefaultCredits: cfg.DefaultCredits}
	h := handlers.New(roadmaps, credits)

	api := groupWithPrefix(r, base)
	api.POST("/roadmaps/generate", generateLimiter(cfg).Handler(), h.GenerateRoadmap)
	api.GET("/roadmaps", h.ListRoadmaps)
	api.GET("/roadmaps/:id", h.GetRoadmap)
	api.PUT("/roadmaps/:id/visibility", h.UpdateVisibility)
	api.GET("/credits", h.GetCredits)
}

// generateLimiter is a second, per-user bucket in front of the model call.
// GENERATE_RPS falls back to RATE_RPS and the burst is at least one.
func generateLimiter(cfg config.Config) *middleware.RateLimiter {
	rps, burst := cfg.GenerateRPS, max(cfg.GenerateBurst, 1)
	if rps <= 0 {
		rps = cfg.RateRPS
	}
	return middleware.NewRateLimiter(rps, burst, middleware.KeyByUserOrIP(), middleware.WithName("generate"))
}

// corsChain answers cross-origin requests. With no allowlist every origin is
// accepted and "*" is sent even without an Origin header; otherwise listed
// origins are echoed back with Vary: Origin.
func corsChain(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsAllow,
		ExposeHeaders: corsExpose,
		MaxAge:        corsMaxAge,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		star := func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{star, cors.New(conf)}
	}

	conf.AllowOrigins = origins
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	echo := func(c *gin.Context) {
		if o := c.GetHeader("Origin"); allowed[o] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", o)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Next()
	}
	return []gin.HandlerFunc{echo, cors.New(conf)}
}

// health reports liveness plus the state of the optional cache.
func health(kv *cache.RoadmapCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := "disabled"
		if kv.Enabled() {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			state = "ok"
			if err := kv.Ping(ctx); err != nil {
				state = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": state})
	}
}

// limitBody caps request bodies; reads past maxBytes fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath builds the route template groupWithPrefix would register.
func joinPath(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return base + route
}
