package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	components "github.com/danmuck/worldsync/internal/components/game"
	"github.com/danmuck/worldsync/internal/components/improbable"
	"github.com/danmuck/worldsync/internal/config"
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/engine"
	"github.com/danmuck/worldsync/internal/game"
	"github.com/danmuck/worldsync/internal/logging"
	"github.com/danmuck/worldsync/internal/observability"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/worker/stream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func runWorker(ctx context.Context, cfg config.Config) error {
	logger := observability.InitLogger("workerctl")
	if !logging.SetLevel(cfg.LogLevel) {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("workerctl ignoring log level")
	}
	logger = logger.With().Str("worker_id", cfg.WorkerID).Logger()
	observability.RegisterMetrics()

	shutdownTracing, err := observability.SetupTracing(ctx, "workerctl", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("workerctl tracing shutdown failed")
		}
	}()

	registry := spatial.NewRegistry(spatial.WithLogger(logger))
	if err := improbable.Register(registry); err != nil {
		return err
	}
	if err := components.Register(registry); err != nil {
		return err
	}

	clientCfg := cfg.Client()
	clientCfg.Logger = &logger
	client, err := stream.NewClient(clientCfg)
	if err != nil {
		return err
	}
	conn, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	schedule := ecs.NewSchedule(
		game.AnswerPlayerCreator(&logger),
		game.MovePlayers(&logger),
	)
	eng := engine.New(registry, conn, schedule, engine.WithLogger(logger))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, cfg.MetricsAddr, logger)
	}
	g.Go(func() error {
		return eng.Run(gctx, cfg.FrameInterval())
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info().Uint64("frames", eng.Frames()).Msg("workerctl stopped")
		return nil
	}
	return err
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("workerctl metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
