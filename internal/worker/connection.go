package worker

import (
	"errors"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
)

var ErrConnectionClosed = errors.New("worker: connection closed")

// Connection is the worker's view of the runtime session.
//
// GetOpList drains the ops received since the previous call and must not
// block. Send methods enqueue or write immediately; none of them retry.
type Connection interface {
	GetOpList() ([]Op, error)
	SendComponentUpdate(entityID EntityID, componentID ComponentID, update []tlv.Field) error
	SendCommandRequest(entityID EntityID, componentID ComponentID, index CommandIndex, request []tlv.Field) (RequestID, error)
	SendCommandResponse(requestID RequestID, componentID ComponentID, index CommandIndex, response []tlv.Field) error
}
