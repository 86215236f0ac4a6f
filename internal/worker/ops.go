package worker

import "github.com/danmuck/worldsync/internal/protocol/tlv"

// OpKind discriminates ops in a batch.
type OpKind uint8

const (
	OpDisconnect OpKind = iota + 1
	OpLogMessage
	OpAddEntity
	OpRemoveEntity
	OpAddComponent
	OpRemoveComponent
	OpAuthorityChange
	OpComponentUpdate
	OpCommandRequest
	OpCommandResponse
)

var opKindNames = map[OpKind]string{
	OpDisconnect:      "disconnect",
	OpLogMessage:      "log_message",
	OpAddEntity:       "add_entity",
	OpRemoveEntity:    "remove_entity",
	OpAddComponent:    "add_component",
	OpRemoveComponent: "remove_component",
	OpAuthorityChange: "authority_change",
	OpComponentUpdate: "component_update",
	OpCommandRequest:  "command_request",
	OpCommandResponse: "command_response",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Op is one runtime event. Concrete ops are the *Op structs in this package.
type Op interface {
	Kind() OpKind
}

type DisconnectOp struct {
	Reason string
}

type LogMessageOp struct {
	Level   LogLevel
	Logger  string
	Message string
}

type AddEntityOp struct {
	EntityID EntityID
}

type RemoveEntityOp struct {
	EntityID EntityID
}

// AddComponentOp carries the complete component data as a schema object.
type AddComponentOp struct {
	EntityID    EntityID
	ComponentID ComponentID
	Data        []tlv.Field
}

type RemoveComponentOp struct {
	EntityID    EntityID
	ComponentID ComponentID
}

type AuthorityChangeOp struct {
	EntityID    EntityID
	ComponentID ComponentID
	Authority   Authority
}

// ComponentUpdateOp carries only the fields that changed.
type ComponentUpdateOp struct {
	EntityID    EntityID
	ComponentID ComponentID
	Update      []tlv.Field
}

type CommandRequestOp struct {
	RequestID          RequestID
	EntityID           EntityID
	ComponentID        ComponentID
	CommandIndex       CommandIndex
	Request            []tlv.Field
	CallerWorkerID     string
	CallerAttributeSet []string
}

// CommandResponseOp answers an outbound request. Response is only meaningful
// when Status is StatusSuccess; Message explains any other status.
type CommandResponseOp struct {
	RequestID    RequestID
	EntityID     EntityID
	ComponentID  ComponentID
	CommandIndex CommandIndex
	Status       StatusCode
	Message      string
	Response     []tlv.Field
}

func (DisconnectOp) Kind() OpKind      { return OpDisconnect }
func (LogMessageOp) Kind() OpKind      { return OpLogMessage }
func (AddEntityOp) Kind() OpKind       { return OpAddEntity }
func (RemoveEntityOp) Kind() OpKind    { return OpRemoveEntity }
func (AddComponentOp) Kind() OpKind    { return OpAddComponent }
func (RemoveComponentOp) Kind() OpKind { return OpRemoveComponent }
func (AuthorityChangeOp) Kind() OpKind { return OpAuthorityChange }
func (ComponentUpdateOp) Kind() OpKind { return OpComponentUpdate }
func (CommandRequestOp) Kind() OpKind  { return OpCommandRequest }
func (CommandResponseOp) Kind() OpKind { return OpCommandResponse }
