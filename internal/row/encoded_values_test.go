package row

import (
	"testing"

	"github.com/reifydb/reifydb/internal/types"
)

func testLayout() Layout {
	return NewLayout([]types.Kind{
		types.KindUint8, // id
		types.KindUtf8,  // name
		types.KindBool,  // active
		types.KindFloat8,
	})
}

func TestSetGetRoundTrip(t *testing.T) {
	l := testLayout()
	v := New(l)
	v.SetUint8(0, 42)
	v.SetUtf8(1, "alice")
	v.SetBool(2, true)
	if err := v.SetFloat8(3, 3.5); err != nil {
		t.Fatal(err)
	}

	if got := v.Uint8(0); got != 42 {
		t.Errorf("id = %d", got)
	}
	if got := v.Utf8(1); got != "alice" {
		t.Errorf("name = %q", got)
	}
	if !v.Bool(2) {
		t.Errorf("active = false")
	}
	if got := v.Float8(3); got != 3.5 {
		t.Errorf("score = %v", got)
	}
}

func TestValidityBitmap(t *testing.T) {
	l := testLayout()
	v := New(l)
	for i := 0; i < l.FieldCount(); i++ {
		if v.IsDefined(i) {
			t.Errorf("field %d should start undefined", i)
		}
	}
	v.SetUint8(0, 1)
	if !v.IsDefined(0) {
		t.Error("field 0 should be defined after Set")
	}
	if v.IsDefined(1) {
		t.Error("field 1 should remain undefined")
	}
	v.SetUndefined(0)
	if v.IsDefined(0) {
		t.Error("field 0 should be undefined after SetUndefined")
	}
}

func TestSerializeDecodeRoundTrip(t *testing.T) {
	l := testLayout()
	v := New(l)
	v.SetUint8(0, 7)
	v.SetUtf8(1, "hello world")
	v.SetBool(2, false)
	if err := v.SetFloat8(3, -1.25); err != nil {
		t.Fatal(err)
	}

	buf := v.Bytes()
	decoded, err := Decode(l, buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Uint8(0) != 7 {
		t.Errorf("id after decode = %d", decoded.Uint8(0))
	}
	if decoded.Utf8(1) != "hello world" {
		t.Errorf("name after decode = %q", decoded.Utf8(1))
	}
	if decoded.Bool(2) {
		t.Errorf("active after decode should be false")
	}
	if decoded.Float8(3) != -1.25 {
		t.Errorf("score after decode = %v", decoded.Float8(3))
	}
}

func TestDecodeTruncatedBufferErrors(t *testing.T) {
	l := testLayout()
	if _, err := Decode(l, nil); err == nil {
		t.Fatal("expected error for nil buffer")
	}
	if _, err := Decode(l, []byte{0, 0, 0, 0}); err == nil {
		t.Fatal("expected error for buffer shorter than static size")
	}
}

func TestMultipleVariableFields(t *testing.T) {
	l := NewLayout([]types.Kind{types.KindUtf8, types.KindUtf8, types.KindBlob})
	v := New(l)
	v.SetUtf8(0, "first")
	v.SetUtf8(1, "second")
	v.SetBlob(2, []byte{1, 2, 3})

	if v.Utf8(0) != "first" || v.Utf8(1) != "second" {
		t.Errorf("tail region fields overlapped: %q %q", v.Utf8(0), v.Utf8(1))
	}
	if string(v.Blob(2)) != "\x01\x02\x03" {
		t.Errorf("blob field corrupted: %v", v.Blob(2))
	}
}

func TestDecimalField(t *testing.T) {
	l := NewLayout([]types.Kind{types.KindDecimal})
	v := New(l)
	d, err := types.NewDecimal("12.345", 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	v.SetDecimal(0, d)
	got, err := v.Decimal(0, 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "12.345" {
		t.Errorf("decimal round-trip = %s", got.String())
	}
}
