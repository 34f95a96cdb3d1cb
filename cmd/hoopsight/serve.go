package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/hoopsight/internal/api/rest"
	"github.com/fortuna/hoopsight/internal/api/websocket"
	"github.com/fortuna/hoopsight/internal/cache"
	"github.com/fortuna/hoopsight/internal/ingest/espn"
	"github.com/fortuna/hoopsight/internal/publisher"
	"github.com/fortuna/hoopsight/internal/scheduler"
	"github.com/fortuna/hoopsight/internal/store"
	"github.com/fortuna/hoopsight/internal/store/repository"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, WebSocket push and scheduler",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", serviceVersion).Msg("starting hoopsight")

	dashboards := newDashboardService(cfg, log)
	deps := scheduler.Deps{Dashboards: dashboards}
	checks := map[string]rest.HealthCheck{}
	var archive rest.SnapshotLister

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache and refresh events")
		} else {
			defer redisCache.Close()
			dashboards.WithCache(redisCache, cfg.CacheTTL)
			deps.Publisher = publisher.NewRedisStreamPublisher(redisCache.Client())
			checks["redis"] = redisCache.HealthCheck
			log.Info().Msg("connected to redis")
		}
	}

	if cfg.AtlasDSN != "" {
		db, err := store.NewDatabase(ctx, cfg.AtlasDSN, log)
		if err != nil {
			return fmt.Errorf("failed to connect to archive database: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}

		snapshots := repository.NewSnapshotRepository(db)
		archive = snapshots
		deps.Archive = snapshots
		checks["postgres"] = db.HealthCheck
		log.Info().Msg("snapshot archive enabled")
	}

	handler := rest.NewHandler(dashboards, archive)
	for name, check := range checks {
		handler.AddHealthCheck(name, check)
	}

	restServer := rest.NewServer(cfg.RESTPort, handler, log)
	wsServer := websocket.NewServer(cfg.WSPort, dashboards, log)
	deps.Broadcaster = wsServer

	if cfg.EnableInjuryRefresh {
		browser := espn.NewBrowser()
		defer browser.Close()
		deps.Injuries = espn.NewIngester(cfg.ESPNInjuriesURL, cfg.InjuriesPath, log).
			AddFetcher("curl", espn.NewClient(log)).
			AddFetcher("chrome", browser)
	}

	sched, err := scheduler.NewOrchestrator(deps, &scheduler.Config{
		SourcePollInterval:  cfg.SourcePollInterval,
		InjuryRefreshHour:   cfg.InjuryRefreshHour,
		EnableSourceWatch:   cfg.EnableSourceWatch,
		EnableInjuryRefresh: cfg.EnableInjuryRefresh,
		MaxRetries:          3,
		RetryDelay:          5 * time.Second,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	handler.SetScheduler(sched)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return restServer.Start()
	})
	g.Go(func() error {
		return wsServer.Start(gCtx)
	})
	g.Go(func() error {
		sched.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := restServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("REST API server shutdown error")
		}
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("WebSocket server shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("hoopsight stopped")
	return nil
}
