package spatial

import (
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/worker"
)

// EntityIDs maps runtime entity ids to local entities and back. It lives in the
// world as a resource; only the Reader changes it.
type EntityIDs struct {
	local  map[worker.EntityID]ecs.Entity
	remote map[ecs.Entity]worker.EntityID
}

func newEntityIDs() *EntityIDs {
	return &EntityIDs{
		local:  make(map[worker.EntityID]ecs.Entity),
		remote: make(map[ecs.Entity]worker.EntityID),
	}
}

// Entities returns the world's id map, installing an empty one if needed.
func Entities(w *ecs.World) *EntityIDs {
	return ecs.ResourceOrInit(w, newEntityIDs)
}

// Local returns the local entity for a runtime id.
func (m *EntityIDs) Local(id worker.EntityID) (ecs.Entity, bool) {
	e, ok := m.local[id]
	return e, ok
}

// Remote returns the runtime id of a local entity.
func (m *EntityIDs) Remote(e ecs.Entity) (worker.EntityID, bool) {
	id, ok := m.remote[e]
	return id, ok
}

func (m *EntityIDs) Len() int {
	return len(m.local)
}

func (m *EntityIDs) bind(id worker.EntityID, e ecs.Entity) {
	m.local[id] = e
	m.remote[e] = id
}

func (m *EntityIDs) unbind(id worker.EntityID) (ecs.Entity, bool) {
	e, ok := m.local[id]
	if !ok {
		return 0, false
	}
	delete(m.local, id)
	delete(m.remote, e)
	return e, true
}

// authorityOf is stored per component type T so entity teardown drops it with
// the entity's other components.
type authorityOf[T any] struct {
	value worker.Authority
}
