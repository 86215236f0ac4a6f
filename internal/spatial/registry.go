package spatial

import (
	"fmt"
	"slices"
	"sync"

	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

// Dispatcher handles every operation for one component type without the
// caller knowing its Go types.
type Dispatcher interface {
	ComponentID() worker.ComponentID
	ComponentName() string

	// Setup registers the component's stores and resources in w.
	Setup(w *ecs.World)

	AddComponent(w *ecs.World, e ecs.Entity, data []tlv.Field) error
	RemoveComponent(w *ecs.World, e ecs.Entity)
	ApplyUpdate(w *ecs.World, e ecs.Entity, update []tlv.Field) error
	ApplyAuthority(w *ecs.World, e ecs.Entity, authority worker.Authority) error
	OnCommandRequest(w *ecs.World, e ecs.Entity, op worker.CommandRequestOp) error
	OnCommandResponse(w *ecs.World, op worker.CommandResponseOp) error

	// Replicate flushes local writes, buffered command requests and queued
	// command responses for the component type to conn.
	Replicate(w *ecs.World, conn worker.Connection) error
}

// Registry maps component ids to dispatchers. Registration is safe for
// concurrent use; lookups after setup are read-only.
type Registry struct {
	mu          sync.RWMutex
	dispatchers map[worker.ComponentID]Dispatcher
	order       []worker.ComponentID
	log         zerolog.Logger
}

func NewRegistry(opts ...Option) *Registry {
	s := newSettings(opts)
	return &Registry{
		dispatchers: make(map[worker.ComponentID]Dispatcher),
		log:         s.log,
	}
}

// Register adds def to r and returns its dispatcher. Registering the same
// component id again returns the existing dispatcher; registering it with
// different Go types fails with ErrComponentConflict. World stores are keyed
// by the component value type, so a second id reusing an existing T also
// fails with ErrComponentConflict.
func Register[T, U, Req, Resp any](r *Registry, def *Definition[T, U, Req, Resp]) (Dispatcher, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.dispatchers[def.ID]; ok {
		if _, same := existing.(*dispatcher[T, U, Req, Resp]); !same {
			return nil, fmt.Errorf("%w: %d (%s)", ErrComponentConflict, def.ID, existing.ComponentName())
		}
		return existing, nil
	}
	for _, id := range r.order {
		if other, shared := r.dispatchers[id].(valueOwner[T]); shared {
			return nil, fmt.Errorf("%w: %d (%s) reuses the value type of %d (%s)",
				ErrComponentConflict, def.ID, def.Name, id, other.ComponentName())
		}
	}

	d := &dispatcher[T, U, Req, Resp]{
		def: def,
		log: r.log.With().Str("component", def.Name).Logger(),
	}
	r.dispatchers[def.ID] = d
	idx, _ := slices.BinarySearch(r.order, def.ID)
	r.order = slices.Insert(r.order, idx, def.ID)
	r.log.Debug().Uint32("component_id", uint32(def.ID)).Str("component", def.Name).Msg("spatial.Registry registered component")
	return d, nil
}

// MustRegister is Register for package-level setup; it panics on error.
func MustRegister[T, U, Req, Resp any](r *Registry, def *Definition[T, U, Req, Resp]) Dispatcher {
	d, err := Register(r, def)
	if err != nil {
		panic(err)
	}
	return d
}

// Dispatcher returns the dispatcher for id. Unknown ids report false and
// callers ignore the op.
func (r *Registry) Dispatcher(id worker.ComponentID) (Dispatcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dispatchers[id]
	return d, ok
}

// Dispatchers returns every dispatcher ordered by component id.
func (r *Registry) Dispatchers() []Dispatcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Dispatcher, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.dispatchers[id])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Setup registers storage for every known component type in w.
func (r *Registry) Setup(w *ecs.World) {
	for _, d := range r.Dispatchers() {
		d.Setup(w)
	}
}
