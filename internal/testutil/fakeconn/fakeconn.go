// Package fakeconn provides an in-memory worker.Connection for tests.
package fakeconn

import (
	"sync"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
)

type ComponentUpdate struct {
	EntityID    worker.EntityID
	ComponentID worker.ComponentID
	Update      []tlv.Field
}

type CommandRequest struct {
	RequestID    worker.RequestID
	EntityID     worker.EntityID
	ComponentID  worker.ComponentID
	CommandIndex worker.CommandIndex
	Request      []tlv.Field
}

type CommandResponse struct {
	RequestID    worker.RequestID
	ComponentID  worker.ComponentID
	CommandIndex worker.CommandIndex
	Response     []tlv.Field
}

// Conn queues inbound op batches and records every outbound send.
type Conn struct {
	mu sync.Mutex

	batches [][]worker.Op

	Updates   []ComponentUpdate
	Requests  []CommandRequest
	Responses []CommandResponse

	// NextRequestID is returned by the next SendCommandRequest and then
	// incremented.
	NextRequestID worker.RequestID
	// SendErr, when set, fails every send.
	SendErr error
	// ReadErr, when set, fails GetOpList.
	ReadErr error
}

func New() *Conn {
	return &Conn{NextRequestID: 1}
}

// Push queues one batch for a later GetOpList.
func (c *Conn) Push(ops ...worker.Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, ops)
}

func (c *Conn) GetOpList() ([]worker.Op, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	if len(c.batches) == 0 {
		return nil, nil
	}
	batch := c.batches[0]
	c.batches = c.batches[1:]
	return batch, nil
}

func (c *Conn) SendComponentUpdate(entityID worker.EntityID, componentID worker.ComponentID, update []tlv.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Updates = append(c.Updates, ComponentUpdate{EntityID: entityID, ComponentID: componentID, Update: update})
	return nil
}

func (c *Conn) SendCommandRequest(entityID worker.EntityID, componentID worker.ComponentID, index worker.CommandIndex, request []tlv.Field) (worker.RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return 0, c.SendErr
	}
	id := c.NextRequestID
	c.NextRequestID++
	c.Requests = append(c.Requests, CommandRequest{
		RequestID:    id,
		EntityID:     entityID,
		ComponentID:  componentID,
		CommandIndex: index,
		Request:      request,
	})
	return id, nil
}

func (c *Conn) SendCommandResponse(requestID worker.RequestID, componentID worker.ComponentID, index worker.CommandIndex, response []tlv.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Responses = append(c.Responses, CommandResponse{
		RequestID:    requestID,
		ComponentID:  componentID,
		CommandIndex: index,
		Response:     response,
	})
	return nil
}

// Reset clears recorded sends.
func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Updates = nil
	c.Requests = nil
	c.Responses = nil
}
