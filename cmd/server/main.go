// Command server runs the roadmap generation API.
//
//	@title			Roadmap Generator API
//	@version		1.0
//	@description	Generates, deduplicates, and serves AI learning roadmaps as trees.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/cache"
	"github.com/tbourn/go-roadmap-backend/internal/config"
	httpapi "github.com/tbourn/go-roadmap-backend/internal/http"
	"github.com/tbourn/go-roadmap-backend/internal/llm"
	"github.com/tbourn/go-roadmap-backend/internal/observability"
	"github.com/tbourn/go-roadmap-backend/internal/repo"
	"github.com/tbourn/go-roadmap-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const purgeInterval = time.Hour

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg := config.MustLoad()
	ver := sysutil.FirstNonEmpty(cfg.Version, version)

	sysutil.SetLogLevel(cfg.LogLevel)
	service := sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, observability.DefaultServiceName)
	logger := sysutil.NewLogger(os.Stdout, cfg.LogPretty, service, ver)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver, observability.ModelAttributes(cfg.Model)...)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.Instrument(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing disabled")
		}
	}
	if !cfg.SkipMigrations {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	kv, err := cache.Open(ctx, cfg.Cache.URL, cfg.Cache.TTL)
	if err != nil {
		log.Warn().Err(err).Msg("dedup cache unavailable; using the database only")
		kv = cache.Disabled()
	}
	defer func() { _ = kv.Close() }()

	if !cfg.Model.HasSystemKey() {
		log.Warn().Msg("GROQ_API_KEY not set; only callers with their own key can generate")
	}
	model := llm.NewInvoker(llm.NewGroqClient(cfg.Model), cfg.Model.Timeout)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, model, kv, cfg)

	go purgeIdempotency(ctx, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("model", cfg.Model.Name).Bool("cache", kv.Enabled()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// In-flight generations may take up to the model deadline.
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Model.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// purgeIdempotency deletes expired idempotency records until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("idempotency records purged")
			}
		}
	}
}
