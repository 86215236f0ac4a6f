package spatial

import (
	"errors"
	"fmt"

	"github.com/danmuck/worldsync/internal/observability"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

// IncomingRequest is a command request received from the runtime and not yet
// answered.
type IncomingRequest[Req any] struct {
	ID                 worker.RequestID
	Request            Req
	CallerWorkerID     string
	CallerAttributeSet []string
}

type queuedResponse[Resp any] struct {
	id       worker.RequestID
	response Resp
}

// CommandRequests is the per-entity ledger of inbound command requests for the
// component type T. Every request is answered at most once: answering moves it
// from the pending list to the response queue, which the Writer drains.
type CommandRequests[T, Req, Resp any] struct {
	requests  []IncomingRequest[Req]
	responses []queuedResponse[Resp]
}

func (r *CommandRequests[T, Req, Resp]) onRequest(in IncomingRequest[Req]) {
	r.requests = append(r.requests, in)
}

// Respond offers every pending request to responder. Requests it answers
// (ok == true) are queued for sending; the rest stay pending for a later
// frame. It returns the number of requests answered.
func (r *CommandRequests[T, Req, Resp]) Respond(responder func(request Req, callerWorkerID string, callerAttributeSet []string) (Resp, bool)) int {
	kept := r.requests[:0]
	answered := 0
	for _, in := range r.requests {
		resp, ok := responder(in.Request, in.CallerWorkerID, in.CallerAttributeSet)
		if !ok {
			kept = append(kept, in)
			continue
		}
		r.responses = append(r.responses, queuedResponse[Resp]{id: in.ID, response: resp})
		answered++
	}
	clear(r.requests[len(kept):])
	r.requests = kept
	return answered
}

// Pending returns a snapshot of the unanswered requests.
func (r *CommandRequests[T, Req, Resp]) Pending() []IncomingRequest[Req] {
	out := make([]IncomingRequest[Req], len(r.requests))
	copy(out, r.requests)
	return out
}

// Responses returns the number of answered requests waiting to be sent.
func (r *CommandRequests[T, Req, Resp]) Responses() int {
	return len(r.responses)
}

func (r *CommandRequests[T, Req, Resp]) empty() bool {
	return len(r.requests) == 0 && len(r.responses) == 0
}

// flushResponses sends every queued response. Responses that fail to encode or
// send are dropped and reported in the joined error.
func (r *CommandRequests[T, Req, Resp]) flushResponses(conn worker.Connection, id worker.ComponentID, name string, commands *Commands[Req, Resp]) error {
	if len(r.responses) == 0 {
		return nil
	}
	responses := r.responses
	r.responses = nil

	var errs []error
	for _, out := range responses {
		index, fields, err := commands.EncodeResponse(out.response)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s response to request %d: %v", ErrEncode, name, out.id, err))
			continue
		}
		if err := conn.SendCommandResponse(out.id, id, index, fields); err != nil {
			errs = append(errs, fmt.Errorf("send %s response to request %d: %w", name, out.id, err))
			continue
		}
		observability.RecordCommandResponse(name)
	}
	return errors.Join(errs...)
}

// CommandResult is delivered to the callback of an outbound command. Response
// is only meaningful when OK reports true.
type CommandResult[Resp any] struct {
	RequestID worker.RequestID
	EntityID  worker.EntityID
	Status    worker.StatusCode
	Message   string
	Response  Resp
}

func (r CommandResult[Resp]) OK() bool {
	return r.Status == worker.StatusSuccess
}

type outboundRequest[Req, Resp any] struct {
	entityID worker.EntityID
	request  Req
	callback func(CommandResult[Resp])
}

type pendingCallback[Resp any] struct {
	entityID worker.EntityID
	callback func(CommandResult[Resp])
}

// CommandSender buffers outbound command requests for the component type T and
// correlates their responses by the request id the transport assigns at send
// time. Callbacks run exactly once, from the Reader when the response arrives
// or from the Writer when the send fails.
type CommandSender[T, Req, Resp any] struct {
	buffered []outboundRequest[Req, Resp]
	inFlight map[worker.RequestID]pendingCallback[Resp]
}

func newCommandSender[T, Req, Resp any]() *CommandSender[T, Req, Resp] {
	return &CommandSender[T, Req, Resp]{inFlight: make(map[worker.RequestID]pendingCallback[Resp])}
}

// SendCommand queues request for entityID. It is sent on the next Writer run;
// callback may be nil when the result is not needed.
func (s *CommandSender[T, Req, Resp]) SendCommand(entityID worker.EntityID, request Req, callback func(CommandResult[Resp])) {
	s.buffered = append(s.buffered, outboundRequest[Req, Resp]{
		entityID: entityID,
		request:  request,
		callback: callback,
	})
}

// Buffered returns the number of requests waiting for the next flush.
func (s *CommandSender[T, Req, Resp]) Buffered() int {
	return len(s.buffered)
}

// InFlight returns the number of sent requests awaiting a response.
func (s *CommandSender[T, Req, Resp]) InFlight() int {
	return len(s.inFlight)
}

func (s *CommandSender[T, Req, Resp]) flushRequests(conn worker.Connection, id worker.ComponentID, name string, commands *Commands[Req, Resp]) error {
	if len(s.buffered) == 0 {
		return nil
	}
	buffered := s.buffered
	s.buffered = nil

	var errs []error
	for _, out := range buffered {
		index, fields, err := commands.EncodeRequest(out.request)
		if err != nil {
			err = fmt.Errorf("%w: %s request for entity %d: %v", ErrEncode, name, out.entityID, err)
			s.fail(out, name, err)
			errs = append(errs, err)
			continue
		}
		requestID, err := conn.SendCommandRequest(out.entityID, id, index, fields)
		if err != nil {
			err = fmt.Errorf("send %s request for entity %d: %w", name, out.entityID, err)
			s.fail(out, name, err)
			errs = append(errs, err)
			continue
		}
		observability.RecordCommandRequest(name)
		s.inFlight[requestID] = pendingCallback[Resp]{entityID: out.entityID, callback: out.callback}
	}
	observability.SetCommandsInFlight(name, len(s.inFlight))
	return errors.Join(errs...)
}

func (s *CommandSender[T, Req, Resp]) fail(out outboundRequest[Req, Resp], name string, err error) {
	deliver(out.callback, name, CommandResult[Resp]{
		EntityID: out.entityID,
		Status:   worker.StatusInternalError,
		Message:  err.Error(),
	})
}

// onResponse resolves the callback registered for op.RequestID. It reports
// false when no callback is waiting for that id.
func (s *CommandSender[T, Req, Resp]) onResponse(op worker.CommandResponseOp, name string, commands *Commands[Req, Resp], log zerolog.Logger) bool {
	pending, ok := s.inFlight[op.RequestID]
	if !ok {
		log.Warn().
			Uint64("request_id", uint64(op.RequestID)).
			Str("component", name).
			Msg("spatial.CommandSender dropped response for unknown request id")
		return false
	}
	delete(s.inFlight, op.RequestID)
	observability.SetCommandsInFlight(name, len(s.inFlight))

	result := CommandResult[Resp]{
		RequestID: op.RequestID,
		EntityID:  pending.entityID,
		Status:    op.Status,
		Message:   op.Message,
	}
	if op.Status == worker.StatusSuccess {
		resp, err := commands.DecodeResponse(op.CommandIndex, op.Response)
		if err != nil {
			result.Status = worker.StatusInternalError
			result.Message = fmt.Sprintf("decode %s response: %v", name, err)
		} else {
			result.Response = resp
		}
	}
	deliver(pending.callback, name, result)
	return true
}

func deliver[Resp any](callback func(CommandResult[Resp]), name string, result CommandResult[Resp]) {
	observability.RecordCommandResult(name, result.Status.String())
	if callback != nil {
		callback(result)
	}
}
