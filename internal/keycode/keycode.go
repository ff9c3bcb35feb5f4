// Package keycode implements the order-preserving binary key encoding: the
// scheme that lets lexicographic byte comparison of EncodedKeys agree with
// the natural ordering of the typed values they were built from.
package keycode

import (
	"encoding/binary"
	"math"

	"github.com/reifydb/reifydb/internal/errs"
)

// CodecVersion is the first byte of every EncodedKey.
const CodecVersion byte = 1

const (
	escapeByte      = 0x00
	escapeLiteral   = 0xff
	escapeTerminate = 0x00
)

// EncodedKey is an opaque, order-preserving byte sequence produced by this
// package. The first byte is CodecVersion, the second is a KeyKind.
type EncodedKey []byte

// NewKey builds an EncodedKey from a kind and its already-encoded parts.
func NewKey(kind KeyKind, parts ...[]byte) EncodedKey {
	size := 2
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	out = append(out, CodecVersion, byte(kind))
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Kind extracts the KeyKind from an EncodedKey.
func (k EncodedKey) Kind() (KeyKind, error) {
	if len(k) < 2 {
		return 0, errs.New(errs.InvalidData, "KEY_001", "key shorter than version+kind header")
	}
	return KeyKind(k[1]), nil
}

// KindRangeStart returns the smallest possible EncodedKey of the given
// kind, usable as the inclusive start of a range scan over all keys of
// that kind.
func KindRangeStart(kind KeyKind) EncodedKey {
	return EncodedKey{CodecVersion, byte(kind)}
}

// KindRangeEnd returns the smallest possible EncodedKey strictly greater
// than every key of the given kind, usable as the exclusive end of a range
// scan. Returns nil (meaning "no upper bound") when kind is the maximum
// representable KeyKind value.
func KindRangeEnd(kind KeyKind) EncodedKey {
	if kind == math.MaxUint8 {
		return nil
	}
	return EncodedKey{CodecVersion, byte(kind) + 1}
}

// ── Encoder ────────────────────────────────────────────────────────────────

// Encoder builds a tuple of order-preserving fields. Errors are sticky:
// once set, subsequent calls are no-ops and Bytes reports the first error.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated encoding, or the first error encountered.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Bool appends a 1-byte boolean field: 0x00 for false, 0x01 for true.
func (e *Encoder) Bool(v bool) *Encoder {
	if e.err != nil {
		return e
	}
	if v {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
	return e
}

// Int64 appends a sign-bit-flipped big-endian signed integer.
func (e *Encoder) Int64(v int64) *Encoder {
	if e.err != nil {
		return e
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int32 appends a sign-bit-flipped big-endian signed integer.
func (e *Encoder) Int32(v int32) *Encoder {
	if e.err != nil {
		return e
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int16 appends a sign-bit-flipped big-endian signed integer.
func (e *Encoder) Int16(v int16) *Encoder {
	if e.err != nil {
		return e
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int8 appends a sign-bit-flipped signed byte.
func (e *Encoder) Int8(v int8) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, byte(v)^0x80)
	return e
}

// Uint64 appends a plain big-endian unsigned integer.
func (e *Encoder) Uint64(v uint64) *Encoder {
	if e.err != nil {
		return e
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint32 appends a plain big-endian unsigned integer.
func (e *Encoder) Uint32(v uint32) *Encoder {
	if e.err != nil {
		return e
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint16 appends a plain big-endian unsigned integer.
func (e *Encoder) Uint16(v uint16) *Encoder {
	if e.err != nil {
		return e
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint8 appends a single unsigned byte.
func (e *Encoder) Uint8(v uint8) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, v)
	return e
}

// Float64 appends a sign-aware big-endian float64. NaN is rejected: callers
// are expected to have already rejected NaN at value construction (see
// internal/types), but the codec still refuses to silently miscompare one.
func (e *Encoder) Float64(v float64) *Encoder {
	if e.err != nil {
		return e
	}
	if math.IsNaN(v) {
		e.err = errs.New(errs.InvalidData, "CODEC_001", "NaN is not encodable")
		return e
	}
	bits := math.Float64bits(v)
	if v < 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	e.buf = append(e.buf, b[:]...)
	return e
}

// VarBytes appends a variable-length byte field: 0x00 is escaped as 0x00 0xff
// and the field is terminated with 0x00 0x00, making it self-terminating
// within a concatenated tuple. Because the terminator sorts below every
// payload byte, a value sorts before any longer value it is a prefix of.
func (e *Encoder) VarBytes(v []byte) *Encoder {
	if e.err != nil {
		return e
	}
	out := make([]byte, 0, len(v)+2)
	for _, c := range v {
		if c == escapeByte {
			out = append(out, escapeByte, escapeLiteral)
		} else {
			out = append(out, c)
		}
	}
	out = append(out, escapeByte, escapeTerminate)
	e.buf = append(e.buf, out...)
	return e
}

// String appends a variable-length UTF-8 string field using the same
// escaping scheme as VarBytes.
func (e *Encoder) String(v string) *Encoder {
	return e.VarBytes([]byte(v))
}

// Discriminant appends a 1-byte sum-type discriminant, to be followed by
// the variant's own payload.
func (e *Encoder) Discriminant(tag byte) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, tag)
	return e
}

// Raw appends already-encoded bytes verbatim (e.g. a nested EncodedKey).
func (e *Encoder) Raw(b []byte) *Encoder {
	if e.err != nil {
		return e
	}
	e.buf = append(e.buf, b...)
	return e
}

// ── Decoder ────────────────────────────────────────────────────────────────

// Decoder reads fields sequentially from an encoded tuple. Decode errors
// never panic, even on adversarial input.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for sequential field reads.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the unconsumed tail of the buffer.
func (d *Decoder) Remaining() []byte {
	return d.buf[d.pos:]
}

// Done reports whether all bytes have been consumed.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, errs.New(errs.InvalidData, "CODEC_002", "truncated key encoding")
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Bool reads a 1-byte boolean field.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, errs.New(errs.InvalidData, "CODEC_003", "invalid boolean encoding")
	}
}

// Int64 reads a sign-bit-flipped big-endian signed integer.
func (d *Decoder) Int64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	var tmp [8]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int64(binary.BigEndian.Uint64(tmp[:])), nil
}

// Int32 reads a sign-bit-flipped big-endian signed integer.
func (d *Decoder) Int32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	var tmp [4]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int32(binary.BigEndian.Uint32(tmp[:])), nil
}

// Int16 reads a sign-bit-flipped big-endian signed integer.
func (d *Decoder) Int16() (int16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	var tmp [2]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int16(binary.BigEndian.Uint16(tmp[:])), nil
}

// Int8 reads a sign-bit-flipped signed byte.
func (d *Decoder) Int8() (int8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0] ^ 0x80), nil
}

// Uint64 reads a plain big-endian unsigned integer.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Uint32 reads a plain big-endian unsigned integer.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint16 reads a plain big-endian unsigned integer.
func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint8 reads a single unsigned byte.
func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Float64 reads a sign-aware big-endian float64, inverting the encode-time
// transform.
func (d *Decoder) Float64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

// VarBytes reads an escape-terminated variable-length byte field.
func (d *Decoder) VarBytes() ([]byte, error) {
	var out []byte
	for {
		if d.pos >= len(d.buf) {
			return nil, errs.New(errs.InvalidData, "CODEC_004", "unterminated variable-length field")
		}
		c := d.buf[d.pos]
		if c != escapeByte {
			out = append(out, c)
			d.pos++
			continue
		}
		// c == 0x00: peek the escape/terminator byte.
		if d.pos+1 >= len(d.buf) {
			return nil, errs.New(errs.InvalidData, "CODEC_005", "truncated escape sequence")
		}
		next := d.buf[d.pos+1]
		switch next {
		case escapeLiteral:
			out = append(out, escapeByte)
			d.pos += 2
		case escapeTerminate:
			d.pos += 2
			return out, nil
		default:
			return nil, errs.New(errs.InvalidData, "CODEC_006", "invalid escape sequence")
		}
	}
}

// String reads an escape-terminated variable-length string field.
func (d *Decoder) String() (string, error) {
	b, err := d.VarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Discriminant reads a 1-byte sum-type discriminant.
func (d *Decoder) Discriminant() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ── Descending order ───────────────────────────────────────────────────────

// Desc inverts every bit of an ascending-order encoding, producing a key
// that sorts in the opposite direction under plain lexicographic
// comparison. Self-inverse: Desc(Desc(b)) reproduces b byte-for-byte, so
// decoding a descending field is Desc followed by the normal decoder.
func Desc(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = ^c
	}
	return out
}
