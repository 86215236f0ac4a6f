package tlv

import (
	"encoding/binary"
	"math"
)

// U8 creates a uint8 field.
func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

// U32 creates a uint32 field.
func U32(id uint16, v uint32) Field {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Field{ID: id, Type: TypeU32, Value: buf}
}

// U64 creates a uint64 field.
func U64(id uint16, v uint64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Field{ID: id, Type: TypeU64, Value: buf}
}

// I32 creates an int32 field.
func I32(id uint16, v int32) Field {
	f := U32(id, uint32(v))
	f.Type = TypeI32
	return f
}

// I64 creates an int64 field.
func I64(id uint16, v int64) Field {
	f := U64(id, uint64(v))
	f.Type = TypeI64
	return f
}

// F32 creates a float32 field.
func F32(id uint16, v float32) Field {
	f := U32(id, math.Float32bits(v))
	f.Type = TypeF32
	return f
}

// F64 creates a float64 field.
func F64(id uint16, v float64) Field {
	f := U64(id, math.Float64bits(v))
	f.Type = TypeF64
	return f
}

// Bool creates a bool field.
func Bool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

// String creates a string field.
func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

// Bytes creates a bytes field.
func Bytes(id uint16, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

// Object creates a nested schema object field.
func Object(id uint16, fields []Field) Field {
	return Field{ID: id, Type: TypeObject, Value: EncodeFields(fields)}
}

// AsU8 returns the field value as uint8.
func (f Field) AsU8() (uint8, error) {
	if err := MustType(f, TypeU8); err != nil {
		return 0, err
	}
	if len(f.Value) != 1 {
		return 0, ErrInvalidLength
	}
	return f.Value[0], nil
}

// AsU32 returns the field value as uint32.
func (f Field) AsU32() (uint32, error) {
	if err := MustType(f, TypeU32); err != nil {
		return 0, err
	}
	return fixed32(f.Value)
}

// AsU64 returns the field value as uint64.
func (f Field) AsU64() (uint64, error) {
	if err := MustType(f, TypeU64); err != nil {
		return 0, err
	}
	return fixed64(f.Value)
}

// AsI32 returns the field value as int32.
func (f Field) AsI32() (int32, error) {
	if err := MustType(f, TypeI32); err != nil {
		return 0, err
	}
	v, err := fixed32(f.Value)
	return int32(v), err
}

// AsI64 returns the field value as int64.
func (f Field) AsI64() (int64, error) {
	if err := MustType(f, TypeI64); err != nil {
		return 0, err
	}
	v, err := fixed64(f.Value)
	return int64(v), err
}

// AsF32 returns the field value as float32.
func (f Field) AsF32() (float32, error) {
	if err := MustType(f, TypeF32); err != nil {
		return 0, err
	}
	v, err := fixed32(f.Value)
	return math.Float32frombits(v), err
}

// AsF64 returns the field value as float64.
func (f Field) AsF64() (float64, error) {
	if err := MustType(f, TypeF64); err != nil {
		return 0, err
	}
	v, err := fixed64(f.Value)
	return math.Float64frombits(v), err
}

// AsBool returns the field value as bool.
func (f Field) AsBool() (bool, error) {
	if err := MustType(f, TypeBool); err != nil {
		return false, err
	}
	if len(f.Value) != 1 {
		return false, ErrInvalidLength
	}
	switch f.Value[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// AsString returns the field value as string.
func (f Field) AsString() (string, error) {
	if err := MustType(f, TypeString); err != nil {
		return "", err
	}
	return string(f.Value), nil
}

// AsBytes returns a copy of the field value.
func (f Field) AsBytes() ([]byte, error) {
	if err := MustType(f, TypeBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, len(f.Value))
	copy(buf, f.Value)
	return buf, nil
}

// AsObject decodes a nested schema object.
func (f Field) AsObject() ([]Field, error) {
	if err := MustType(f, TypeObject); err != nil {
		return nil, err
	}
	return DecodeFields(f.Value)
}

// Lookup decodes the first field with id. ok is false when the field is absent.
func Lookup[T any](fields []Field, id uint16, as func(Field) (T, error)) (v T, ok bool, err error) {
	f, found := GetField(fields, id)
	if !found {
		return v, false, nil
	}
	v, err = as(f)
	if err != nil {
		return v, true, err
	}
	return v, true, nil
}

// LookupAll decodes every field with id, preserving order.
func LookupAll[T any](fields []Field, id uint16, as func(Field) (T, error)) ([]T, error) {
	matches := GetFields(fields, id)
	out := make([]T, 0, len(matches))
	for _, f := range matches {
		v, err := as(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func fixed32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrInvalidLength
	}
	return binary.BigEndian.Uint32(b), nil
}

func fixed64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, ErrInvalidLength
	}
	return binary.BigEndian.Uint64(b), nil
}
