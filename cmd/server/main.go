// Command server runs the engagement automation backend: the admin HTTP API
// plus the scheduled automation triggers (reply bot, comment bot, connection
// checker, pending-DM sender) in a single process.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nkoureas/go-engage-backend/internal/ai"
	"github.com/nkoureas/go-engage-backend/internal/config"
	httpapi "github.com/nkoureas/go-engage-backend/internal/http"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/linkedapi"
	"github.com/nkoureas/go-engage-backend/internal/observability"
	"github.com/nkoureas/go-engage-backend/internal/repo"
	"github.com/nkoureas/go-engage-backend/internal/scheduler"
	"github.com/nkoureas/go-engage-backend/internal/services"
	"github.com/nkoureas/go-engage-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title       Engagement Automation API
// @version     1.0
// @description Admin API for the engagement automation backend: accounts, monitored posts, watched targets, leads, activity, and settings.
// @BasePath    /api/v1
func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// External clients and application services
	guard := limits.NewGuard(db)
	actions := linkedapi.NewFactory(cfg.LinkedAPI)
	gen := ai.NewClient(cfg.Anthropic)

	leadSvc := services.NewLeadService(db, actions, gen, guard)
	replySvc := services.NewReplyBotService(db, actions, gen, guard, leadSvc)
	commentSvc := services.NewCommentBotService(db, actions, gen, guard)
	adminSvc := services.NewAdminService(db, guard)

	// Automation triggers (off for pure-API deployments)
	var sched *scheduler.Scheduler
	if cfg.SchedulerStart {
		sched = scheduler.New(db, replySvc, commentSvc, leadSvc)
		sched.Start(ctx)
	} else {
		log.Info().Msg("scheduler disabled, serving admin API only")
	}

	// HTTP transport
	r := gin.New()
	httpapi.RegisterRoutes(r, adminSvc, replySvc, commentSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	// Drain in-flight requests, then stop the trigger goroutines.
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	if sched != nil {
		sched.Stop()
	}
	log.Info().Msg("server stopped")
}
