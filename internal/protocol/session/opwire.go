package session

import (
	"errors"
	"fmt"

	"github.com/danmuck/worldsync/internal/protocol/frame"
	"github.com/danmuck/worldsync/internal/protocol/schema"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
)

var ErrUnsupportedOp = errors.New("session: unsupported op")

var opMessageTypes = map[worker.OpKind]uint32{
	worker.OpDisconnect:      schema.MsgDisconnect,
	worker.OpLogMessage:      schema.MsgLogMessage,
	worker.OpAddEntity:       schema.MsgAddEntity,
	worker.OpRemoveEntity:    schema.MsgRemoveEntity,
	worker.OpAddComponent:    schema.MsgAddComponent,
	worker.OpRemoveComponent: schema.MsgRemoveComponent,
	worker.OpAuthorityChange: schema.MsgAuthorityChange,
	worker.OpComponentUpdate: schema.MsgComponentUpdate,
	worker.OpCommandRequest:  schema.MsgCommandRequest,
	worker.OpCommandResponse: schema.MsgCommandResponse,
}

// MessageType returns the frame message type that carries op kind k.
func MessageType(k worker.OpKind) (uint32, bool) {
	t, ok := opMessageTypes[k]
	return t, ok
}

// OpFrame encodes op as one frame. The same encoding is used in both
// directions: outbound sends are expressed as the op the runtime will see.
func OpFrame(messageID uint64, op worker.Op) (frame.Frame, error) {
	if op == nil {
		return frame.Frame{}, fmt.Errorf("%w: nil", ErrUnsupportedOp)
	}
	msgType, ok := opMessageTypes[op.Kind()]
	if !ok {
		return frame.Frame{}, fmt.Errorf("%w: %s", ErrUnsupportedOp, op.Kind())
	}
	fields, err := opFields(op)
	if err != nil {
		return frame.Frame{}, err
	}
	if err := schema.Validate(msgType, fields); err != nil {
		return frame.Frame{}, err
	}
	f := frame.Frame{
		Header:  frame.Header{MessageID: messageID, MessageType: msgType},
		Payload: tlv.EncodeFields(fields),
	}
	if resp, ok := op.(worker.CommandResponseOp); ok {
		f.Header.Flags |= frame.FlagIsResponse
		if resp.Status != worker.StatusSuccess {
			f.Header.Flags |= frame.FlagIsError
		}
	}
	return f, nil
}

// EncodeOpFrame encodes op as frame bytes ready to write.
func EncodeOpFrame(messageID uint64, op worker.Op) ([]byte, error) {
	f, err := OpFrame(messageID, op)
	if err != nil {
		return nil, err
	}
	return writeFrame(f)
}

func opFields(op worker.Op) ([]tlv.Field, error) {
	switch op := op.(type) {
	case worker.DisconnectOp:
		return []tlv.Field{tlv.String(schema.FieldReason, op.Reason)}, nil
	case worker.LogMessageOp:
		return []tlv.Field{
			tlv.U8(schema.FieldLogLevel, uint8(op.Level)),
			tlv.String(schema.FieldLoggerName, op.Logger),
			tlv.String(schema.FieldMessage, op.Message),
		}, nil
	case worker.AddEntityOp:
		return []tlv.Field{entityField(op.EntityID)}, nil
	case worker.RemoveEntityOp:
		return []tlv.Field{entityField(op.EntityID)}, nil
	case worker.AddComponentOp:
		return []tlv.Field{
			entityField(op.EntityID),
			componentField(op.ComponentID),
			tlv.Object(schema.FieldPayload, op.Data),
		}, nil
	case worker.RemoveComponentOp:
		return []tlv.Field{entityField(op.EntityID), componentField(op.ComponentID)}, nil
	case worker.AuthorityChangeOp:
		return []tlv.Field{
			entityField(op.EntityID),
			componentField(op.ComponentID),
			tlv.U8(schema.FieldAuthority, uint8(op.Authority)),
		}, nil
	case worker.ComponentUpdateOp:
		return []tlv.Field{
			entityField(op.EntityID),
			componentField(op.ComponentID),
			tlv.Object(schema.FieldPayload, op.Update),
		}, nil
	case worker.CommandRequestOp:
		fields := []tlv.Field{
			tlv.U64(schema.FieldRequestID, uint64(op.RequestID)),
			entityField(op.EntityID),
			componentField(op.ComponentID),
			tlv.U32(schema.FieldCommandIndex, uint32(op.CommandIndex)),
			tlv.Object(schema.FieldPayload, op.Request),
		}
		if op.CallerWorkerID != "" {
			fields = append(fields, tlv.String(schema.FieldCallerWorkerID, op.CallerWorkerID))
		}
		for _, attr := range op.CallerAttributeSet {
			fields = append(fields, tlv.String(schema.FieldCallerAttribute, attr))
		}
		return fields, nil
	case worker.CommandResponseOp:
		fields := []tlv.Field{
			tlv.U64(schema.FieldRequestID, uint64(op.RequestID)),
			entityField(op.EntityID),
			componentField(op.ComponentID),
			tlv.U32(schema.FieldCommandIndex, uint32(op.CommandIndex)),
			tlv.U8(schema.FieldStatus, uint8(op.Status)),
		}
		if op.Message != "" {
			fields = append(fields, tlv.String(schema.FieldMessage, op.Message))
		}
		if op.Response != nil {
			fields = append(fields, tlv.Object(schema.FieldPayload, op.Response))
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOp, op)
	}
}

// DecodeOp decodes one op frame.
func DecodeOp(f frame.Frame) (worker.Op, error) {
	fields, err := decodeValidated(f)
	if err != nil {
		return nil, err
	}
	d := opDecoder{fields: fields}

	var op worker.Op
	switch f.Header.MessageType {
	case schema.MsgDisconnect:
		op = worker.DisconnectOp{Reason: d.str(schema.FieldReason)}
	case schema.MsgLogMessage:
		op = worker.LogMessageOp{
			Level:   worker.LogLevel(d.u8(schema.FieldLogLevel)),
			Logger:  d.str(schema.FieldLoggerName),
			Message: d.str(schema.FieldMessage),
		}
	case schema.MsgAddEntity:
		op = worker.AddEntityOp{EntityID: d.entity()}
	case schema.MsgRemoveEntity:
		op = worker.RemoveEntityOp{EntityID: d.entity()}
	case schema.MsgAddComponent:
		op = worker.AddComponentOp{
			EntityID:    d.entity(),
			ComponentID: d.component(),
			Data:        d.object(schema.FieldPayload),
		}
	case schema.MsgRemoveComponent:
		op = worker.RemoveComponentOp{EntityID: d.entity(), ComponentID: d.component()}
	case schema.MsgAuthorityChange:
		op = worker.AuthorityChangeOp{
			EntityID:    d.entity(),
			ComponentID: d.component(),
			Authority:   worker.Authority(d.u8(schema.FieldAuthority)),
		}
	case schema.MsgComponentUpdate:
		op = worker.ComponentUpdateOp{
			EntityID:    d.entity(),
			ComponentID: d.component(),
			Update:      d.object(schema.FieldPayload),
		}
	case schema.MsgCommandRequest:
		op = worker.CommandRequestOp{
			RequestID:          worker.RequestID(d.u64(schema.FieldRequestID)),
			EntityID:           d.entity(),
			ComponentID:        d.component(),
			CommandIndex:       worker.CommandIndex(d.u32(schema.FieldCommandIndex)),
			Request:            d.object(schema.FieldPayload),
			CallerWorkerID:     d.str(schema.FieldCallerWorkerID),
			CallerAttributeSet: d.strs(schema.FieldCallerAttribute),
		}
	case schema.MsgCommandResponse:
		op = worker.CommandResponseOp{
			RequestID:    worker.RequestID(d.u64(schema.FieldRequestID)),
			EntityID:     d.entity(),
			ComponentID:  d.component(),
			CommandIndex: worker.CommandIndex(d.u32(schema.FieldCommandIndex)),
			Status:       worker.StatusCode(d.u8(schema.FieldStatus)),
			Message:      d.str(schema.FieldMessage),
			Response:     d.object(schema.FieldPayload),
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	if d.err != nil {
		return nil, fmt.Errorf("session: decode message_type=%d: %w", f.Header.MessageType, d.err)
	}
	return op, nil
}

func entityField(id worker.EntityID) tlv.Field {
	return tlv.I64(schema.FieldEntityID, int64(id))
}

func componentField(id worker.ComponentID) tlv.Field {
	return tlv.U32(schema.FieldComponentID, uint32(id))
}

// opDecoder reads optional fields and keeps the first error.
type opDecoder struct {
	fields []tlv.Field
	err    error
}

func lookup[T any](d *opDecoder, id uint16, as func(tlv.Field) (T, error)) T {
	v, _, err := tlv.Lookup(d.fields, id, as)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("field %d: %w", id, err)
	}
	return v
}

func (d *opDecoder) entity() worker.EntityID {
	return worker.EntityID(lookup(d, schema.FieldEntityID, tlv.Field.AsI64))
}

func (d *opDecoder) component() worker.ComponentID {
	return worker.ComponentID(lookup(d, schema.FieldComponentID, tlv.Field.AsU32))
}

func (d *opDecoder) u8(id uint16) uint8   { return lookup(d, id, tlv.Field.AsU8) }
func (d *opDecoder) u32(id uint16) uint32 { return lookup(d, id, tlv.Field.AsU32) }
func (d *opDecoder) u64(id uint16) uint64 { return lookup(d, id, tlv.Field.AsU64) }
func (d *opDecoder) str(id uint16) string { return lookup(d, id, tlv.Field.AsString) }

func (d *opDecoder) object(id uint16) []tlv.Field {
	return lookup(d, id, tlv.Field.AsObject)
}

func (d *opDecoder) strs(id uint16) []string {
	v, err := tlv.LookupAll(d.fields, id, tlv.Field.AsString)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("field %d: %w", id, err)
	}
	return v
}
