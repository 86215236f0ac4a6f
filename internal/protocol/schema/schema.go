package schema

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Message type IDs carried in frame headers.
const (
	MsgConnect         uint32 = 1
	MsgConnectAck      uint32 = 2
	MsgDisconnect      uint32 = 10
	MsgLogMessage      uint32 = 11
	MsgAddEntity       uint32 = 12
	MsgRemoveEntity    uint32 = 13
	MsgAddComponent    uint32 = 14
	MsgRemoveComponent uint32 = 15
	MsgAuthorityChange uint32 = 16
	MsgComponentUpdate uint32 = 17
	MsgCommandRequest  uint32 = 18
	MsgCommandResponse uint32 = 19
)

// Field IDs shared by every message type.
const (
	FieldEntityID     uint16 = 1
	FieldComponentID  uint16 = 2
	FieldCommandIndex uint16 = 3
	FieldRequestID    uint16 = 4
	FieldPayload      uint16 = 5

	FieldAuthority uint16 = 10
	FieldStatus    uint16 = 11
	FieldMessage   uint16 = 12

	FieldCallerWorkerID  uint16 = 20
	FieldCallerAttribute uint16 = 21

	FieldLogLevel   uint16 = 30
	FieldLoggerName uint16 = 31
	FieldReason     uint16 = 32

	FieldWorkerID    uint16 = 40
	FieldWorkerType  uint16 = 41
	FieldAttribute   uint16 = 42
	FieldAckStatus   uint16 = 43
	FieldAckCode     uint16 = 44
	FieldTimestampMS uint16 = 45
)

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

var requirements = map[uint32][]Requirement{
	MsgConnect: {
		{FieldWorkerID, tlv.TypeString},
		{FieldWorkerType, tlv.TypeString},
	},
	MsgConnectAck: {
		{FieldAckStatus, tlv.TypeString},
		{FieldWorkerID, tlv.TypeString},
		{FieldTimestampMS, tlv.TypeU64},
	},
	MsgDisconnect: {
		{FieldReason, tlv.TypeString},
	},
	MsgLogMessage: {
		{FieldLogLevel, tlv.TypeU8},
		{FieldMessage, tlv.TypeString},
	},
	MsgAddEntity: {
		{FieldEntityID, tlv.TypeI64},
	},
	MsgRemoveEntity: {
		{FieldEntityID, tlv.TypeI64},
	},
	MsgAddComponent: {
		{FieldEntityID, tlv.TypeI64},
		{FieldComponentID, tlv.TypeU32},
		{FieldPayload, tlv.TypeObject},
	},
	MsgRemoveComponent: {
		{FieldEntityID, tlv.TypeI64},
		{FieldComponentID, tlv.TypeU32},
	},
	MsgAuthorityChange: {
		{FieldEntityID, tlv.TypeI64},
		{FieldComponentID, tlv.TypeU32},
		{FieldAuthority, tlv.TypeU8},
	},
	MsgComponentUpdate: {
		{FieldEntityID, tlv.TypeI64},
		{FieldComponentID, tlv.TypeU32},
		{FieldPayload, tlv.TypeObject},
	},
	MsgCommandRequest: {
		{FieldRequestID, tlv.TypeU64},
		{FieldEntityID, tlv.TypeI64},
		{FieldComponentID, tlv.TypeU32},
		{FieldCommandIndex, tlv.TypeU32},
		{FieldPayload, tlv.TypeObject},
	},
	MsgCommandResponse: {
		{FieldRequestID, tlv.TypeU64},
		{FieldComponentID, tlv.TypeU32},
		{FieldCommandIndex, tlv.TypeU32},
		{FieldStatus, tlv.TypeU8},
	},
}

// Validate enforces required fields and required field types for a message type.
// Unknown fields are ignored.
func Validate(messageType uint32, fields []tlv.Field) error {
	log.Trace().Uint32("message_type", messageType).Int("fields", len(fields)).Msg("schema.Validate")
	reqs, ok := requirements[messageType]
	if !ok {
		log.Debug().Uint32("message_type", messageType).Msg("schema.Validate unknown message type")
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Msg("schema.Validate missing field")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema.Validate type mismatch")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	return nil
}

// Known reports whether messageType has a requirement table.
func Known(messageType uint32) bool {
	_, ok := requirements[messageType]
	return ok
}
