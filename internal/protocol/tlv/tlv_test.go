package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	in := []Field{
		{ID: 1, Type: TypeString, Value: []byte("intent-1")},
		{ID: 9999, Type: TypeBytes, Value: []byte{0xAA, 0xBB}}, // unknown field id
	}
	b := EncodeFields(in)
	out, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 9999 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[1])
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestScalarFieldsRoundTrip(t *testing.T) {
	fields := []Field{
		U8(1, 7),
		U32(2, 1002),
		U64(3, 1<<40),
		I32(4, -12),
		I64(5, -1<<40),
		F32(6, 1.5),
		F64(7, -2.25),
		Bool(8, true),
		String(9, "player"),
		Bytes(10, []byte{0x01, 0x02}),
	}
	out, err := DecodeFields(EncodeFields(fields))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if v, _ := out[0].AsU8(); v != 7 {
		t.Fatalf("u8 got=%d", v)
	}
	if v, _ := out[1].AsU32(); v != 1002 {
		t.Fatalf("u32 got=%d", v)
	}
	if v, _ := out[2].AsU64(); v != 1<<40 {
		t.Fatalf("u64 got=%d", v)
	}
	if v, _ := out[3].AsI32(); v != -12 {
		t.Fatalf("i32 got=%d", v)
	}
	if v, _ := out[4].AsI64(); v != -1<<40 {
		t.Fatalf("i64 got=%d", v)
	}
	if v, _ := out[5].AsF32(); v != 1.5 {
		t.Fatalf("f32 got=%v", v)
	}
	if v, _ := out[6].AsF64(); v != -2.25 {
		t.Fatalf("f64 got=%v", v)
	}
	if v, _ := out[7].AsBool(); !v {
		t.Fatalf("bool got=%v", v)
	}
	if v, _ := out[8].AsString(); v != "player" {
		t.Fatalf("string got=%q", v)
	}
	if v, _ := out[9].AsBytes(); !bytes.Equal(v, []byte{0x01, 0x02}) {
		t.Fatalf("bytes got=%v", v)
	}
}

func TestAccessorTypeMismatch(t *testing.T) {
	f := String(1, "x")
	if _, err := f.AsU32(); !errors.Is(err, ErrFieldTypeMismatch) {
		t.Fatalf("expected ErrFieldTypeMismatch, got %v", err)
	}
	bad := Field{ID: 2, Type: TypeBool, Value: []byte{9}}
	if _, err := bad.AsBool(); !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
	short := Field{ID: 3, Type: TypeF64, Value: []byte{1, 2}}
	if _, err := short.AsF64(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestNestedObjectAndRepeatedFields(t *testing.T) {
	coords := []Field{F64(1, 1), F64(2, 2), F64(3, 3)}
	fields := []Field{
		Object(1, coords),
		String(2, "a"),
		String(2, "b"),
	}
	out, err := DecodeFields(EncodeFields(fields))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	nested, ok, err := Lookup(out, 1, Field.AsObject)
	if err != nil || !ok {
		t.Fatalf("lookup object ok=%v err=%v", ok, err)
	}
	if z, _ := nested[2].AsF64(); z != 3 {
		t.Fatalf("nested z got=%v", z)
	}
	labels, err := LookupAll(out, 2, Field.AsString)
	if err != nil {
		t.Fatalf("lookup all: %v", err)
	}
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Fatalf("unexpected repeated values: %v", labels)
	}
	if Count(out, 2) != 2 {
		t.Fatalf("count mismatch")
	}
	if _, ok, err := Lookup(out, 42, Field.AsString); ok || err != nil {
		t.Fatalf("expected absent field ok=%v err=%v", ok, err)
	}
}
