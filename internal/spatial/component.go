package spatial

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/worker"
)

// Component is the replication state cell attached to an entity for one
// component type.
//
// Local writes take one of two paths per frame: Mutate marks the whole value
// dirty, SendUpdate applies and accumulates a partial update. The paths are
// mutually exclusive until the Writer flushes the cell. Remote updates always
// merge into the value and never touch replication state.
type Component[T, U any] struct {
	schema  *Schema[T, U]
	value   T
	dirty   bool
	pending *U
}

func newComponent[T, U any](schema *Schema[T, U], value T) *Component[T, U] {
	return &Component[T, U]{schema: schema, value: value}
}

// Get returns a copy of the current value.
func (c *Component[T, U]) Get() T {
	return c.value
}

// Mutate returns a pointer for in-place writes and marks the cell dirty. The
// whole value is sent on the next flush.
func (c *Component[T, U]) Mutate() (*T, error) {
	if c.pending != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpdatePending, c.schema.Name)
	}
	c.dirty = true
	return &c.value, nil
}

// SendUpdate applies update locally and queues it for the next flush. Repeated
// calls within a frame merge into a single outbound update.
func (c *Component[T, U]) SendUpdate(update U) error {
	if c.dirty {
		return fmt.Errorf("%w: %s", ErrAlreadyMutated, c.schema.Name)
	}
	c.schema.Merge(&c.value, update)
	if c.pending == nil {
		c.pending = &update
		return nil
	}
	c.schema.MergeUpdate(c.pending, update)
	return nil
}

// Dirty reports whether the value was mutated since the last flush.
func (c *Component[T, U]) Dirty() bool {
	return c.dirty
}

// PendingUpdate returns the accumulated partial update, if any.
func (c *Component[T, U]) PendingUpdate() (U, bool) {
	if c.pending == nil {
		var zero U
		return zero, false
	}
	return *c.pending, true
}

// Replicate sends at most one component update for the cell and clears its
// replication state. sent is false when there was nothing to send. A failed
// send leaves the cell dirty or pending so the next flush retries it.
func (c *Component[T, U]) Replicate(conn worker.Connection, id worker.EntityID) (sent bool, err error) {
	var update U
	switch {
	case c.dirty:
		update = c.schema.ToUpdate(c.value)
	case c.pending != nil:
		update = *c.pending
	default:
		return false, nil
	}
	if err := conn.SendComponentUpdate(id, c.schema.ID, c.schema.EncodeUpdate(update)); err != nil {
		return false, fmt.Errorf("send %s update for entity %d: %w", c.schema.Name, id, err)
	}
	c.dirty = false
	c.pending = nil
	return true, nil
}

func (c *Component[T, U]) applyUpdate(update U) {
	c.schema.Merge(&c.value, update)
}
