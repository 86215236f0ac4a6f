package spatial

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
)

// Optional is a value that may be absent. Component updates use it for every
// field so that absent fields leave the target untouched on merge.
type Optional[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) IsSome() bool {
	return o.ok
}

// OrElse returns the value when present, otherwise fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// ApplyTo overwrites *dst when the value is present.
func (o Optional[T]) ApplyTo(dst *T) {
	if o.ok {
		*dst = o.value
	}
}

// Or returns o when present, otherwise prev. Merging a newer partial update
// onto an older one is next.Or(prev) per field.
func (o Optional[T]) Or(prev Optional[T]) Optional[T] {
	if o.ok {
		return o
	}
	return prev
}

// LookupOptional decodes an optional field from a schema object.
func LookupOptional[T any](fields []tlv.Field, id uint16, as func(tlv.Field) (T, error)) (Optional[T], error) {
	v, ok, err := tlv.Lookup(fields, id, as)
	if err != nil {
		return Optional[T]{}, fmt.Errorf("field %d: %w", id, err)
	}
	if !ok {
		return Optional[T]{}, nil
	}
	return Some(v), nil
}

// Value decodes a singular field from a schema object. An absent field
// decodes as the zero value.
func Value[T any](fields []tlv.Field, id uint16, as func(tlv.Field) (T, error)) (T, error) {
	v, _, err := tlv.Lookup(fields, id, as)
	if err != nil {
		return v, fmt.Errorf("field %d: %w", id, err)
	}
	return v, nil
}
