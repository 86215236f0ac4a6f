package spatial

import "errors"

var (
	ErrAlreadyMutated    = errors.New("spatial: component already mutated this frame")
	ErrUpdatePending     = errors.New("spatial: component has a pending update")
	ErrUnknownEntity     = errors.New("spatial: unknown entity id")
	ErrNoComponent       = errors.New("spatial: component not present on entity")
	ErrDecode            = errors.New("spatial: decode failed")
	ErrEncode            = errors.New("spatial: encode failed")
	ErrNoCommands        = errors.New("spatial: component has no commands")
	ErrUnknownCommand    = errors.New("spatial: unrecognised command index")
	ErrInvalidDefinition = errors.New("spatial: invalid component definition")
	ErrComponentConflict = errors.New("spatial: component registration conflicts with an existing id")
	ErrDisconnected      = errors.New("spatial: disconnected by runtime")
)
