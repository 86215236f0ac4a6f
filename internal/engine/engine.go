// Package engine drives the per-frame loop of a worker: apply inbound ops,
// run application systems, then replicate local changes back to the runtime.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/observability"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PhaseRead    = "read"
	PhaseSystems = "systems"
	PhaseWrite   = "write"
)

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// Engine owns the world and runs frames against one connection. It is not
// safe for concurrent use; frames run strictly one after another.
type Engine struct {
	world    *ecs.World
	conn     worker.Connection
	reader   *spatial.Reader
	writer   *spatial.Writer
	schedule *ecs.Schedule
	log      zerolog.Logger
	tracer   trace.Tracer
	frame    uint64
}

func New(registry *spatial.Registry, conn worker.Connection, schedule *ecs.Schedule, opts ...Option) *Engine {
	e := &Engine{
		world:    ecs.NewWorld(),
		conn:     conn,
		schedule: schedule,
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.schedule == nil {
		e.schedule = ecs.NewSchedule()
	}
	if e.tracer == nil {
		e.tracer = observability.Tracer()
	}
	e.reader = spatial.NewReader(registry, spatial.WithLogger(e.log))
	e.writer = spatial.NewWriter(registry, spatial.WithLogger(e.log))
	e.reader.Setup(e.world)
	return e
}

func (e *Engine) World() *ecs.World {
	return e.world
}

// Frames returns the number of completed frames.
func (e *Engine) Frames() uint64 {
	return e.frame
}

// Tick runs one frame. Malformed ops and per-type flush failures are logged
// and do not fail the frame. Tick returns an error when the connection is
// gone, the runtime disconnected the worker, or a system failed.
func (e *Engine) Tick(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "engine.Frame", trace.WithAttributes(attribute.Int64("frame", int64(e.frame))))
	defer span.End()

	err := e.tick(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	e.frame++
	observability.RecordFrame()
	return nil
}

func (e *Engine) tick(ctx context.Context) error {
	err := e.phase(ctx, PhaseRead, func(context.Context) error {
		ops, err := e.conn.GetOpList()
		if err != nil {
			return err
		}
		if err := e.reader.Process(e.world, ops); err != nil {
			e.log.Debug().Err(err).Msg("engine.Tick reader skipped ops")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if reason, ok := e.reader.Disconnected(); ok {
		return fmt.Errorf("%w: %s", spatial.ErrDisconnected, reason)
	}

	if err := e.phase(ctx, PhaseSystems, func(ctx context.Context) error {
		return e.schedule.Run(ctx, e.world)
	}); err != nil {
		return err
	}

	return e.phase(ctx, PhaseWrite, func(context.Context) error {
		err := e.writer.Run(e.world, e.conn)
		if errors.Is(err, worker.ErrConnectionClosed) {
			return err
		}
		return nil
	})
}

func (e *Engine) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "engine."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	observability.RecordPhase(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Run ticks every interval until ctx ends or a frame fails. A frame that
// overruns the interval is followed immediately by the next one.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.log.Info().Dur("interval", interval).Msg("engine.Run started")
	for {
		if err := e.Tick(ctx); err != nil {
			e.log.Warn().Err(err).Uint64("frames", e.frame).Msg("engine.Run stopped")
			return err
		}
		select {
		case <-ctx.Done():
			e.log.Info().Uint64("frames", e.frame).Msg("engine.Run canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
