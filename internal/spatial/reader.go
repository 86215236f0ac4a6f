package spatial

import (
	"errors"
	"fmt"

	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/observability"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

// Reader applies inbound op batches to a world.
type Reader struct {
	registry     *Registry
	log          zerolog.Logger
	disconnected bool
	reason       string
}

func NewReader(registry *Registry, opts ...Option) *Reader {
	s := newSettings(opts)
	return &Reader{registry: registry, log: s.log}
}

// Setup installs the entity id map and every registered component's storage.
func (r *Reader) Setup(w *ecs.World) {
	Entities(w)
	r.registry.Setup(w)
}

// Run pulls one batch from conn and processes it.
func (r *Reader) Run(w *ecs.World, conn worker.Connection) error {
	ops, err := conn.GetOpList()
	if err != nil {
		return err
	}
	return r.Process(w, ops)
}

// Process applies ops in order. An op that fails is logged and skipped; the
// batch continues and the failures are returned joined.
func (r *Reader) Process(w *ecs.World, ops []worker.Op) error {
	var errs []error
	for i, op := range ops {
		kind := op.Kind().String()
		applied, err := r.apply(w, op)
		switch {
		case err != nil:
			observability.RecordOp(kind, observability.OutcomeFailed)
			r.log.Warn().Err(err).Int("index", i).Str("op", kind).Msg("spatial.Reader skipped op")
			errs = append(errs, fmt.Errorf("op %d (%s): %w", i, kind, err))
		case applied:
			observability.RecordOp(kind, observability.OutcomeApplied)
		default:
			observability.RecordOp(kind, observability.OutcomeIgnored)
		}
	}
	return errors.Join(errs...)
}

// Disconnected reports whether a Disconnect op has been seen, with its reason.
func (r *Reader) Disconnected() (string, bool) {
	return r.reason, r.disconnected
}

func (r *Reader) apply(w *ecs.World, op worker.Op) (bool, error) {
	ids := Entities(w)
	switch op := op.(type) {
	case worker.AddEntityOp:
		if _, ok := ids.Local(op.EntityID); ok {
			r.log.Warn().Int64("entity_id", int64(op.EntityID)).Msg("spatial.Reader ignored duplicate add entity")
			return false, nil
		}
		ids.bind(op.EntityID, w.Create())
		return true, nil

	case worker.RemoveEntityOp:
		e, ok := ids.unbind(op.EntityID)
		if !ok {
			return false, fmt.Errorf("%w: %d", ErrUnknownEntity, op.EntityID)
		}
		w.Delete(e)
		return true, nil

	case worker.AddComponentOp:
		return r.withEntity(ids, op.EntityID, op.ComponentID, func(d Dispatcher, e ecs.Entity) error {
			return d.AddComponent(w, e, op.Data)
		})

	case worker.RemoveComponentOp:
		return r.withEntity(ids, op.EntityID, op.ComponentID, func(d Dispatcher, e ecs.Entity) error {
			d.RemoveComponent(w, e)
			return nil
		})

	case worker.AuthorityChangeOp:
		return r.withEntity(ids, op.EntityID, op.ComponentID, func(d Dispatcher, e ecs.Entity) error {
			return d.ApplyAuthority(w, e, op.Authority)
		})

	case worker.ComponentUpdateOp:
		return r.withEntity(ids, op.EntityID, op.ComponentID, func(d Dispatcher, e ecs.Entity) error {
			return d.ApplyUpdate(w, e, op.Update)
		})

	case worker.CommandRequestOp:
		return r.withEntity(ids, op.EntityID, op.ComponentID, func(d Dispatcher, e ecs.Entity) error {
			return d.OnCommandRequest(w, e, op)
		})

	case worker.CommandResponseOp:
		d, ok := r.registry.Dispatcher(op.ComponentID)
		if !ok {
			return false, nil
		}
		return true, d.OnCommandResponse(w, op)

	case worker.LogMessageOp:
		r.logRuntimeMessage(op)
		return true, nil

	case worker.DisconnectOp:
		r.disconnected = true
		r.reason = op.Reason
		r.log.Warn().Str("reason", op.Reason).Msg("spatial.Reader runtime disconnected")
		return true, nil

	default:
		return false, nil
	}
}

// withEntity resolves the dispatcher and local entity for an entity op. Ops
// for unregistered component ids are ignored.
func (r *Reader) withEntity(ids *EntityIDs, id worker.EntityID, componentID worker.ComponentID, fn func(Dispatcher, ecs.Entity) error) (bool, error) {
	d, ok := r.registry.Dispatcher(componentID)
	if !ok {
		return false, nil
	}
	e, ok := ids.Local(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	if err := fn(d, e); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reader) logRuntimeMessage(op worker.LogMessageOp) {
	var event *zerolog.Event
	switch op.Level {
	case worker.LogDebug:
		event = r.log.Debug()
	case worker.LogWarn:
		event = r.log.Warn()
	case worker.LogError, worker.LogFatal:
		event = r.log.Error()
	default:
		event = r.log.Info()
	}
	event.Str("source", "runtime").Str("logger", op.Logger).Msg(op.Message)
}
