package row

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/reifydb/reifydb/internal/errs"
	"github.com/reifydb/reifydb/internal/types"
)

// EncodedValues is a contiguous byte buffer: a validity bitmap, fixed-width
// fields at their layout-assigned offsets, and a variable-length tail
// region referenced by (offset, length) pointers stored in the fixed
// region. A zeroed EncodedValues represents a row whose every field is
// undefined.
type EncodedValues struct {
	layout Layout
	buf    []byte
	tail   []byte
}

// New allocates an all-undefined EncodedValues for the given layout.
func New(layout Layout) *EncodedValues {
	return &EncodedValues{
		layout: layout,
		buf:    make([]byte, layout.StaticSize),
	}
}

// Layout returns the layout this buffer was built from.
func (e *EncodedValues) Layout() Layout { return e.layout }

// IsDefined reports whether field i has a value, consulting only the
// validity bitmap.
func (e *EncodedValues) IsDefined(i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return e.buf[byteIdx]&(1<<bitIdx) != 0
}

func (e *EncodedValues) setValid(i int) {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	e.buf[byteIdx] |= 1 << bitIdx
}

// SetUndefined clears field i's validity bit; its fixed-region bytes are
// left as-is and must not be read.
func (e *EncodedValues) SetUndefined(i int) {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	e.buf[byteIdx] &^= 1 << bitIdx
}

func (e *EncodedValues) fixedSlice(i int) []byte {
	f := e.layout.Fields[i]
	return e.buf[f.FixedOffset : f.FixedOffset+f.FixedWidth]
}

func (e *EncodedValues) appendTail(b []byte) (offset, length uint32) {
	offset = uint32(len(e.tail))
	e.tail = append(e.tail, b...)
	length = uint32(len(b))
	return offset, length
}

func (e *EncodedValues) writeVarPointer(i int, offset, length uint32) {
	s := e.fixedSlice(i)
	binary.BigEndian.PutUint32(s[0:4], offset)
	binary.BigEndian.PutUint32(s[4:8], length)
}

func (e *EncodedValues) readVarPointer(i int) (offset, length uint32) {
	s := e.fixedSlice(i)
	return binary.BigEndian.Uint32(s[0:4]), binary.BigEndian.Uint32(s[4:8])
}

// SetBool writes a Bool field.
func (e *EncodedValues) SetBool(i int, v bool) {
	s := e.fixedSlice(i)
	if v {
		s[0] = 1
	} else {
		s[0] = 0
	}
	e.setValid(i)
}

// Bool reads a Bool field. Caller must check IsDefined first.
func (e *EncodedValues) Bool(i int) bool {
	return e.fixedSlice(i)[0] != 0
}

// SetInt8 writes an Int8 (64-bit signed) field.
func (e *EncodedValues) SetInt8(i int, v int64) {
	binary.BigEndian.PutUint64(e.fixedSlice(i), uint64(v))
	e.setValid(i)
}

// Int8 reads an Int8 field. Caller must check IsDefined first.
func (e *EncodedValues) Int8(i int) int64 {
	return int64(binary.BigEndian.Uint64(e.fixedSlice(i)))
}

// SetUint8 writes a Uint8 (64-bit unsigned) field.
func (e *EncodedValues) SetUint8(i int, v uint64) {
	binary.BigEndian.PutUint64(e.fixedSlice(i), v)
	e.setValid(i)
}

// Uint8 reads a Uint8 field. Caller must check IsDefined first.
func (e *EncodedValues) Uint8(i int) uint64 {
	return binary.BigEndian.Uint64(e.fixedSlice(i))
}

// SetFloat8 writes a Float8 field. NaN is rejected: see types.NewFloat8.
func (e *EncodedValues) SetFloat8(i int, v float64) error {
	if math.IsNaN(v) {
		return errs.New(errs.InvalidData, "ROW_001", "Float8 field cannot be NaN")
	}
	binary.BigEndian.PutUint64(e.fixedSlice(i), math.Float64bits(v))
	e.setValid(i)
	return nil
}

// Float8 reads a Float8 field. Caller must check IsDefined first.
func (e *EncodedValues) Float8(i int) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(e.fixedSlice(i)))
}

// SetUtf8 writes a Utf8 field into the tail region.
func (e *EncodedValues) SetUtf8(i int, v string) {
	offset, length := e.appendTail([]byte(v))
	e.writeVarPointer(i, offset, length)
	e.setValid(i)
}

// Utf8 reads a Utf8 field. Caller must check IsDefined first.
func (e *EncodedValues) Utf8(i int) string {
	offset, length := e.readVarPointer(i)
	return string(e.tail[offset : offset+length])
}

// SetBlob writes a Blob field into the tail region.
func (e *EncodedValues) SetBlob(i int, v []byte) {
	offset, length := e.appendTail(v)
	e.writeVarPointer(i, offset, length)
	e.setValid(i)
}

// Blob reads a Blob field. Caller must check IsDefined first.
func (e *EncodedValues) Blob(i int) []byte {
	offset, length := e.readVarPointer(i)
	return e.tail[offset : offset+length]
}

// SetDecimal writes a Decimal field into the tail region as its base-10
// rational string.
func (e *EncodedValues) SetDecimal(i int, v types.Decimal) {
	offset, length := e.appendTail([]byte(v.Rat().RatString()))
	e.writeVarPointer(i, offset, length)
	e.setValid(i)
}

// Decimal reads a Decimal field. Caller must check IsDefined first.
func (e *EncodedValues) Decimal(i int, precision, scale int) (types.Decimal, error) {
	offset, length := e.readVarPointer(i)
	r := new(big.Rat)
	if _, ok := r.SetString(string(e.tail[offset : offset+length])); !ok {
		return types.Decimal{}, errs.New(errs.InvalidData, "ROW_002", "corrupt decimal field")
	}
	return types.NewDecimal(r.RatString(), precision, scale)
}

// Bytes serializes the full buffer: a 4-byte tail length, the fixed
// region, then the tail region.
func (e *EncodedValues) Bytes() []byte {
	out := make([]byte, 4+len(e.buf)+len(e.tail))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(e.tail)))
	copy(out[4:], e.buf)
	copy(out[4+len(e.buf):], e.tail)
	return out
}

// Decode reconstructs an EncodedValues from Bytes' output, given the same
// layout it was encoded with.
func Decode(layout Layout, buf []byte) (*EncodedValues, error) {
	if len(buf) < 4 {
		return nil, errs.New(errs.InvalidData, "ROW_003", "truncated row buffer")
	}
	tailLen := binary.BigEndian.Uint32(buf[0:4])
	rest := buf[4:]
	if len(rest) < layout.StaticSize+int(tailLen) {
		return nil, errs.New(errs.InvalidData, "ROW_004", "row buffer shorter than layout declares")
	}
	fixed := make([]byte, layout.StaticSize)
	copy(fixed, rest[:layout.StaticSize])
	tail := make([]byte, tailLen)
	copy(tail, rest[layout.StaticSize:layout.StaticSize+int(tailLen)])
	return &EncodedValues{layout: layout, buf: fixed, tail: tail}, nil
}
