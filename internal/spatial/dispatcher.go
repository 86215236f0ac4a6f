package spatial

import (
	"errors"
	"fmt"

	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/observability"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

type dispatcher[T, U, Req, Resp any] struct {
	def *Definition[T, U, Req, Resp]
	log zerolog.Logger
}

// valueOwner is implemented by the dispatcher whose component value type is T.
type valueOwner[T any] interface {
	Dispatcher
	ownsValue(T)
}

func (d *dispatcher[T, U, Req, Resp]) ownsValue(T) {}

func (d *dispatcher[T, U, Req, Resp]) ComponentID() worker.ComponentID {
	return d.def.ID
}

func (d *dispatcher[T, U, Req, Resp]) ComponentName() string {
	return d.def.Name
}

func (d *dispatcher[T, U, Req, Resp]) Setup(w *ecs.World) {
	Storage(w, d.def)
	authorities(w, d.def)
	if d.def.HasCommands() {
		Requests(w, d.def)
		Sender(w, d.def)
	}
}

func (d *dispatcher[T, U, Req, Resp]) AddComponent(w *ecs.World, e ecs.Entity, data []tlv.Field) error {
	value, err := d.def.DecodeData(data)
	if err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrDecode, d.def.Name, err)
	}
	_, err = Insert(w, d.def, e, value)
	return err
}

func (d *dispatcher[T, U, Req, Resp]) RemoveComponent(w *ecs.World, e ecs.Entity) {
	Storage(w, d.def).Remove(e)
	authorities(w, d.def).Remove(e)
}

func (d *dispatcher[T, U, Req, Resp]) ApplyUpdate(w *ecs.World, e ecs.Entity, fields []tlv.Field) error {
	cell, ok := Storage(w, d.def).Get(e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoComponent, d.def.Name)
	}
	update, err := d.def.DecodeUpdate(fields)
	if err != nil {
		return fmt.Errorf("%w: %s update: %v", ErrDecode, d.def.Name, err)
	}
	cell.applyUpdate(update)
	return nil
}

func (d *dispatcher[T, U, Req, Resp]) ApplyAuthority(w *ecs.World, e ecs.Entity, authority worker.Authority) error {
	return authorities(w, d.def).Insert(e, authorityOf[T]{value: authority})
}

func (d *dispatcher[T, U, Req, Resp]) OnCommandRequest(w *ecs.World, e ecs.Entity, op worker.CommandRequestOp) error {
	if !d.def.HasCommands() {
		return fmt.Errorf("%w: %s", ErrNoCommands, d.def.Name)
	}
	request, err := d.def.DecodeRequest(op.CommandIndex, op.Request)
	if err != nil {
		return fmt.Errorf("%w: %s request %d: %v", ErrDecode, d.def.Name, op.RequestID, err)
	}

	store := Requests(w, d.def)
	ledger, ok := store.Get(e)
	if !ok {
		ledger = &CommandRequests[T, Req, Resp]{}
		if err := store.Insert(e, ledger); err != nil {
			return err
		}
	}
	ledger.onRequest(IncomingRequest[Req]{
		ID:                 op.RequestID,
		Request:            request,
		CallerWorkerID:     op.CallerWorkerID,
		CallerAttributeSet: op.CallerAttributeSet,
	})
	return nil
}

func (d *dispatcher[T, U, Req, Resp]) OnCommandResponse(w *ecs.World, op worker.CommandResponseOp) error {
	if !d.def.HasCommands() {
		return fmt.Errorf("%w: %s", ErrNoCommands, d.def.Name)
	}
	Sender(w, d.def).onResponse(op, d.def.Name, &d.def.Commands, d.log)
	return nil
}

func (d *dispatcher[T, U, Req, Resp]) Replicate(w *ecs.World, conn worker.Connection) error {
	var errs []error

	ids := Entities(w)
	auth := authorities(w, d.def)
	for e, cell := range Storage(w, d.def).All() {
		a, ok := auth.Get(e)
		if !ok || !a.value.HasAuthority() {
			continue
		}
		id, ok := ids.Remote(e)
		if !ok {
			continue
		}
		sent, err := cell.Replicate(conn, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sent {
			observability.RecordComponentUpdate(d.def.Name)
		}
	}

	if d.def.HasCommands() {
		if err := Sender(w, d.def).flushRequests(conn, d.def.ID, d.def.Name, &d.def.Commands); err != nil {
			errs = append(errs, err)
		}
		ledgers := Requests(w, d.def)
		for _, ledger := range ledgers.All() {
			if err := ledger.flushResponses(conn, d.def.ID, d.def.Name, &d.def.Commands); err != nil {
				errs = append(errs, err)
			}
		}
		ledgers.Retain(func(_ ecs.Entity, ledger *CommandRequests[T, Req, Resp]) bool {
			return !ledger.empty()
		})
	}

	return errors.Join(errs...)
}
