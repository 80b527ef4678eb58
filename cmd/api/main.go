package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jkovarik/dispecink-backend/api/routes"
	internalauth "github.com/jkovarik/dispecink-backend/internal/auth"
	"github.com/jkovarik/dispecink-backend/internal/courses"
	"github.com/jkovarik/dispecink-backend/internal/dispatch"
	"github.com/jkovarik/dispecink-backend/internal/employees"
	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/internal/esb"
	"github.com/jkovarik/dispecink-backend/internal/irregularcourses"
	"github.com/jkovarik/dispecink-backend/internal/locations"
	"github.com/jkovarik/dispecink-backend/internal/machinings"
	"github.com/jkovarik/dispecink-backend/internal/postinfo"
	"github.com/jkovarik/dispecink-backend/internal/remainders"
	"github.com/jkovarik/dispecink-backend/internal/reports"
	"github.com/jkovarik/dispecink-backend/pkg/auth/session"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/metrics"
	"github.com/jkovarik/dispecink-backend/pkg/migrate"
	"github.com/jkovarik/dispecink-backend/pkg/redis"
)

const sourceSystem = "dispecink"

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Console:     cfg.Log.Pretty,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.Database, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.Auth.SessionTTL)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	store, err := files.NewStore(cfg.Files)
	if err != nil {
		logg.Error(ctx, "failed to prepare file store", err)
		os.Exit(1)
	}

	var verifier internalauth.Verifier
	if cfg.Auth.JWKSPath != "" {
		verifier, err = internalauth.NewJWKSVerifier(cfg.Auth.JWKSPath, cfg.ESB.ClientID)
		if err != nil {
			logg.Error(ctx, "failed to load jwks", err)
			os.Exit(1)
		}
	} else if !cfg.Auth.LocalLogin {
		logg.Error(ctx, "missing auth configuration", fmt.Errorf("jwks path is required unless local login is enabled"))
		os.Exit(1)
	}

	bus := esb.NewClient(cfg.ESB)
	exchanger := internalauth.NewExchanger(bus, cfg.ESB, sourceSystem)
	authService := internalauth.NewService(dbClient, exchanger, verifier, sessions, cfg.Auth, cfg.ESB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncJobMetrics(registry)

	directory := postinfo.NewService(bus)
	locationSync := locations.NewSynchronizer(dbClient, directory, logg, syncMetrics, cfg.Sync)
	go locationSync.Run(ctx)

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		sessions,
		registry,
		store,
		authService,
		locations.NewService(dbClient),
		locationSync,
		employees.NewService(dbClient),
		enums.NewService(dbClient),
		courses.NewService(dbClient, store),
		dispatch.NewService(dbClient),
		irregularcourses.NewService(dbClient),
		machinings.NewService(dbClient),
		remainders.NewService(dbClient),
		reports.NewService(dbClient, store),
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serverCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(serverCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
