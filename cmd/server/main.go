// Package main runs the blog server: REST API, moderation queue and
// PostgreSQL persistence behind a single HTTP listener.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/blogworks/blogserver/internal/app"
	"github.com/blogworks/blogserver/internal/app/httpapi"
	"github.com/blogworks/blogserver/internal/app/storage/postgres"
	"github.com/blogworks/blogserver/internal/config"
	"github.com/blogworks/blogserver/internal/logging"
	"github.com/blogworks/blogserver/internal/metrics"
	"github.com/blogworks/blogserver/internal/middleware"
	"github.com/blogworks/blogserver/internal/platform/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New("server", cfg.LogLevel)

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, db); err != nil {
			cancel()
			logger.WithError(err).Error("apply migrations")
			os.Exit(1)
		}
		cancel()

		pg := postgres.New(db)
		stores = app.Stores{Users: pg, Blogs: pg, Comments: pg, Reactions: pg}
		logger.Info("using postgres storage")
	} else {
		logger.Warn("database url not set; using in-memory storage")
	}

	application, err := app.New(stores, app.Options{
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:      cfg.Auth.TokenTTL,
		PageSize:      cfg.Content.PageSize,
		CacheSliding:  cfg.Content.CacheSliding,
		CacheAbsolute: cfg.Content.CacheAbsolute,
		DetailPolicy:  cfg.Content.DetailPolicy,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logger.WithError(err).Error("start application")
		os.Exit(1)
	}

	m := metrics.New("blogserver")
	auth := middleware.NewAuthMiddleware(application.Accounts, logger)
	limiter := middleware.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst, logger)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORS(cfg.Server.AllowedOrigins)

	api := httpapi.NewHandler(application, auth, logger)

	root := http.NewServeMux()
	root.Handle("/metrics", m.Handler())
	root.Handle("/", middleware.Instrument("blogserver", m, logger)(
		cors.Handler(limiter.Handler(api))))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped")
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("application shutdown")
	}
}
