package spatial

import (
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/worker"
)

// Storage returns the cell store for def's component type.
func Storage[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp]) *ecs.Store[*Component[T, U]] {
	return ecs.Register[*Component[T, U]](w)
}

// Requests returns the inbound command ledger store for def's component type.
func Requests[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp]) *ecs.Store[*CommandRequests[T, Req, Resp]] {
	return ecs.Register[*CommandRequests[T, Req, Resp]](w)
}

// Sender returns the outbound command sender for def's component type.
func Sender[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp]) *CommandSender[T, Req, Resp] {
	return ecs.ResourceOrInit(w, newCommandSender[T, Req, Resp])
}

func authorities[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp]) *ecs.Store[authorityOf[T]] {
	return ecs.Register[authorityOf[T]](w)
}

// Get returns the cell of def's component on e.
func Get[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp], e ecs.Entity) (*Component[T, U], bool) {
	return Storage(w, def).Get(e)
}

// Insert attaches a clean cell holding value to e. Nothing is replicated until
// the cell is written through Mutate or SendUpdate.
func Insert[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp], e ecs.Entity, value T) (*Component[T, U], error) {
	cell := newComponent(&def.Schema, value)
	if err := Storage(w, def).Insert(e, cell); err != nil {
		return nil, err
	}
	return cell, nil
}

// AuthorityOf returns the worker's authority over def's component on e.
func AuthorityOf[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp], e ecs.Entity) worker.Authority {
	a, ok := authorities(w, def).Get(e)
	if !ok {
		return worker.NotAuthoritative
	}
	return a.value
}

// HasAuthority reports whether local writes to def's component on e replicate.
func HasAuthority[T, U, Req, Resp any](w *ecs.World, def *Definition[T, U, Req, Resp], e ecs.Entity) bool {
	return AuthorityOf(w, def, e).HasAuthority()
}
