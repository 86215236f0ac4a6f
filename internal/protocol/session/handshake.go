package session

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/worldsync/internal/protocol/frame"
	"github.com/danmuck/worldsync/internal/protocol/schema"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
)

const (
	AckStatusAccepted = "accepted"
	AckStatusRejected = "rejected"
)

var (
	ErrInvalidConnect    = errors.New("session: invalid connect")
	ErrInvalidConnectAck = errors.New("session: invalid connect ack")
	ErrUnexpectedMessage = errors.New("session: unexpected message type")
)

// Connect is the worker->runtime session-start message. Token travels in the
// frame auth block.
type Connect struct {
	WorkerID   string
	WorkerType string
	Attributes []string
	Token      string
}

func (c Connect) Validate() error {
	if strings.TrimSpace(c.WorkerID) == "" {
		return fmt.Errorf("%w: missing worker_id", ErrInvalidConnect)
	}
	if strings.TrimSpace(c.WorkerType) == "" {
		return fmt.Errorf("%w: missing worker_type", ErrInvalidConnect)
	}
	return nil
}

// ConnectAck is the runtime->worker handshake response.
type ConnectAck struct {
	Status      string
	Code        uint32
	Message     string
	WorkerID    string
	TimestampMS uint64
}

func (a ConnectAck) Validate() error {
	status := strings.TrimSpace(a.Status)
	if status != AckStatusAccepted && status != AckStatusRejected {
		return fmt.Errorf("%w: invalid status", ErrInvalidConnectAck)
	}
	if strings.TrimSpace(a.WorkerID) == "" {
		return fmt.Errorf("%w: missing worker_id", ErrInvalidConnectAck)
	}
	if a.TimestampMS == 0 {
		return fmt.Errorf("%w: missing timestamp_ms", ErrInvalidConnectAck)
	}
	return nil
}

func (a ConnectAck) Accepted() bool {
	return a.Status == AckStatusAccepted
}

func EncodeConnectFrame(messageID uint64, c Connect) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	fields := []tlv.Field{
		tlv.String(schema.FieldWorkerID, c.WorkerID),
		tlv.String(schema.FieldWorkerType, c.WorkerType),
	}
	for _, attr := range c.Attributes {
		fields = append(fields, tlv.String(schema.FieldAttribute, attr))
	}
	f := frame.Frame{
		Header:  frame.Header{MessageID: messageID, MessageType: schema.MsgConnect},
		Payload: tlv.EncodeFields(fields),
	}
	if c.Token != "" {
		f.Header.Flags |= frame.FlagHasAuth
		f.Auth = []byte(c.Token)
	}
	return writeFrame(f)
}

func DecodeConnectFrame(f frame.Frame) (Connect, error) {
	if f.Header.MessageType != schema.MsgConnect {
		return Connect{}, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	fields, err := decodeValidated(f)
	if err != nil {
		return Connect{}, err
	}
	attrs, err := tlv.LookupAll(fields, schema.FieldAttribute, tlv.Field.AsString)
	if err != nil {
		return Connect{}, err
	}
	c := Connect{
		WorkerID:   requiredString(fields, schema.FieldWorkerID),
		WorkerType: requiredString(fields, schema.FieldWorkerType),
		Attributes: attrs,
		Token:      string(f.Auth),
	}
	if err := c.Validate(); err != nil {
		return Connect{}, err
	}
	return c, nil
}

func EncodeConnectAckFrame(messageID uint64, ack ConnectAck) ([]byte, error) {
	if err := ack.Validate(); err != nil {
		return nil, err
	}
	fields := []tlv.Field{
		tlv.String(schema.FieldAckStatus, ack.Status),
		tlv.U32(schema.FieldAckCode, ack.Code),
		tlv.String(schema.FieldMessage, ack.Message),
		tlv.String(schema.FieldWorkerID, ack.WorkerID),
		tlv.U64(schema.FieldTimestampMS, ack.TimestampMS),
	}
	f := frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: schema.MsgConnectAck,
			Flags:       frame.FlagIsResponse,
		},
		Payload: tlv.EncodeFields(fields),
	}
	if !ack.Accepted() {
		f.Header.Flags |= frame.FlagIsError
	}
	return writeFrame(f)
}

func DecodeConnectAckFrame(f frame.Frame) (ConnectAck, error) {
	if f.Header.MessageType != schema.MsgConnectAck {
		return ConnectAck{}, fmt.Errorf("%w: %d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	fields, err := decodeValidated(f)
	if err != nil {
		return ConnectAck{}, err
	}
	ack := ConnectAck{
		Status:   requiredString(fields, schema.FieldAckStatus),
		Message:  requiredString(fields, schema.FieldMessage),
		WorkerID: requiredString(fields, schema.FieldWorkerID),
	}
	if ack.TimestampMS, _, err = tlv.Lookup(fields, schema.FieldTimestampMS, tlv.Field.AsU64); err != nil {
		return ConnectAck{}, err
	}
	if ack.Code, _, err = tlv.Lookup(fields, schema.FieldAckCode, tlv.Field.AsU32); err != nil {
		return ConnectAck{}, err
	}
	if err := ack.Validate(); err != nil {
		return ConnectAck{}, err
	}
	return ack, nil
}

func decodeValidated(f frame.Frame) ([]tlv.Field, error) {
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(f.Header.MessageType, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func writeFrame(f frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, f, frame.DefaultLimits()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requiredString(fields []tlv.Field, id uint16) string {
	f, _ := tlv.GetField(fields, id)
	return string(f.Value)
}
