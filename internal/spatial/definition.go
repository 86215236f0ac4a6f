package spatial

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
)

// Schema describes one component type: its data type T, its partial update
// type U, and the codecs between them and schema objects.
type Schema[T, U any] struct {
	ID   worker.ComponentID
	Name string

	// Merge applies update onto value. Present fields overwrite, absent fields
	// are left untouched.
	Merge func(value *T, update U)
	// MergeUpdate folds next onto pending with the same field rule.
	MergeUpdate func(pending *U, next U)
	// ToUpdate returns an update with every field of value present.
	ToUpdate func(value T) U

	DecodeData   func(fields []tlv.Field) (T, error)
	EncodeData   func(value T) []tlv.Field
	DecodeUpdate func(fields []tlv.Field) (U, error)
	EncodeUpdate func(update U) []tlv.Field
}

// Commands holds the command codecs of a component. Req and Resp are usually
// interfaces implemented by one struct per command; the codecs route on the
// command index. A component without commands leaves every field nil.
type Commands[Req, Resp any] struct {
	DecodeRequest  func(index worker.CommandIndex, fields []tlv.Field) (Req, error)
	EncodeRequest  func(request Req) (worker.CommandIndex, []tlv.Field, error)
	DecodeResponse func(index worker.CommandIndex, fields []tlv.Field) (Resp, error)
	EncodeResponse func(response Resp) (worker.CommandIndex, []tlv.Field, error)
}

// HasCommands reports whether every command codec is set.
func (c *Commands[Req, Resp]) HasCommands() bool {
	return c.DecodeRequest != nil && c.EncodeRequest != nil &&
		c.DecodeResponse != nil && c.EncodeResponse != nil
}

// NoCommand is the Req and Resp type of components without commands.
type NoCommand struct{}

// Definition is everything the registry needs to handle one component type.
// Generated component packages export one *Definition per component.
type Definition[T, U, Req, Resp any] struct {
	Schema[T, U]
	Commands[Req, Resp]
}

func (d *Definition[T, U, Req, Resp]) validate() error {
	missing := ""
	switch {
	case d.Name == "":
		missing = "Name"
	case d.Merge == nil:
		missing = "Merge"
	case d.MergeUpdate == nil:
		missing = "MergeUpdate"
	case d.ToUpdate == nil:
		missing = "ToUpdate"
	case d.DecodeData == nil:
		missing = "DecodeData"
	case d.DecodeUpdate == nil:
		missing = "DecodeUpdate"
	case d.EncodeUpdate == nil:
		missing = "EncodeUpdate"
	}
	if missing != "" {
		return fmt.Errorf("%w: component %d missing %s", ErrInvalidDefinition, d.ID, missing)
	}
	partial := d.DecodeRequest != nil || d.EncodeRequest != nil ||
		d.DecodeResponse != nil || d.EncodeResponse != nil
	if partial && !d.HasCommands() {
		return fmt.Errorf("%w: component %d has incomplete command codecs", ErrInvalidDefinition, d.ID)
	}
	return nil
}

// UnknownCommandIndex is returned by generated command codecs for an index the
// component does not define.
func UnknownCommandIndex(component string, index worker.CommandIndex) error {
	return fmt.Errorf("%w %d for component %s", ErrUnknownCommand, index, component)
}
