package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNoEntity      = errors.New("ecs: entity does not exist")
	ErrNoResource    = errors.New("ecs: resource not registered")
	ErrStoreMismatch = errors.New("ecs: store type mismatch")
)

// Entity is a local entity handle. Handles are never reused within a world.
type Entity uint64

type World struct {
	next      Entity
	entities  map[Entity]struct{}
	stores    map[reflect.Type]typedStore
	order     []reflect.Type
	resources map[reflect.Type]any
}

func NewWorld() *World {
	return &World{
		entities:  make(map[Entity]struct{}),
		stores:    make(map[reflect.Type]typedStore),
		resources: make(map[reflect.Type]any),
	}
}

// Create allocates a new live entity.
func (w *World) Create() Entity {
	w.next++
	e := w.next
	w.entities[e] = struct{}{}
	return e
}

// Delete removes the entity and every value attached to it.
func (w *World) Delete(e Entity) bool {
	if _, ok := w.entities[e]; !ok {
		return false
	}
	delete(w.entities, e)
	for _, typ := range w.order {
		w.stores[typ].drop(e)
	}
	return true
}

func (w *World) Alive(e Entity) bool {
	_, ok := w.entities[e]
	return ok
}

func (w *World) Len() int {
	return len(w.entities)
}

// Register returns the store for T, creating it on first use.
func Register[T any](w *World) *Store[T] {
	typ := reflect.TypeFor[T]()
	if s, ok := w.stores[typ]; ok {
		return s.(*Store[T])
	}
	s := &Store[T]{
		world:  w,
		sparse: make(map[Entity]int),
	}
	w.stores[typ] = s
	w.order = append(w.order, typ)
	return s
}

// Lookup returns the store for T if it was registered.
func Lookup[T any](w *World) (*Store[T], bool) {
	s, ok := w.stores[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	store, ok := s.(*Store[T])
	return store, ok
}

// SetResource installs v as the singleton resource of type T.
func SetResource[T any](w *World, v *T) {
	w.resources[reflect.TypeFor[T]()] = v
}

// Resource returns the singleton resource of type T.
func Resource[T any](w *World) (*T, bool) {
	v, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	r, ok := v.(*T)
	return r, ok
}

// ResourceOrInit returns the resource of type T, installing init() when absent.
func ResourceOrInit[T any](w *World, init func() *T) *T {
	if r, ok := Resource[T](w); ok {
		return r
	}
	r := init()
	SetResource(w, r)
	return r
}

// MustResource is Resource for setup-time invariants.
func MustResource[T any](w *World) *T {
	r, ok := Resource[T](w)
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrNoResource, reflect.TypeFor[T]()))
	}
	return r
}
