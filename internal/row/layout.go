// Package row implements EncodedValues: a fixed-layout row encoding with a
// validity bitmap, compile-time fixed-field offsets, and a variable-length
// tail region for Utf8/Blob/Int/Uint/Decimal fields.
package row

import "github.com/reifydb/reifydb/internal/types"

// Field describes one column's storage shape within a Layout.
type Field struct {
	Kind        types.Kind
	FixedOffset int // byte offset into the fixed region (after the validity bitmap)
	FixedWidth  int // width in the fixed region: the value itself if IsVariable is false, else 8 (offset+length, 4 bytes each)
	IsVariable  bool
}

// fixedWidth returns the number of bytes a field of kind k occupies in the
// fixed region: its own encoding if fixed-width, or an (offset, length)
// pointer pair if variable-length.
func fixedWidth(k types.Kind) (width int, isVariable bool) {
	switch k {
	case types.KindBool, types.KindInt1, types.KindUint1:
		return 1, false
	case types.KindInt2, types.KindUint2:
		return 2, false
	case types.KindInt4, types.KindUint4, types.KindFloat4, types.KindDate:
		return 4, false
	case types.KindInt8, types.KindUint8, types.KindFloat8, types.KindDateTime, types.KindTime, types.KindRowNumber:
		return 8, false
	case types.KindInterval:
		return 16, false // Months(4) + Days(4) + Nanos(8)
	case types.KindUuid4, types.KindUuid7, types.KindIdentityId:
		return 16, false
	case types.KindUtf8, types.KindBlob, types.KindInt, types.KindUint, types.KindDecimal:
		return 8, true // (offset uint32, length uint32) into the tail region
	default:
		return 0, false
	}
}

// Layout is the compile-time schema a caller must supply to interpret an
// EncodedValues buffer: EncodedValues is not self-describing.
type Layout struct {
	Fields       []Field
	ValidityLen  int // validity bitmap size in bytes
	StaticSize   int // validity bitmap + sum of fixed widths
}

// NewLayout builds a Layout from an ordered list of field kinds.
func NewLayout(kinds []types.Kind) Layout {
	validityLen := (len(kinds) + 7) / 8
	fields := make([]Field, len(kinds))
	offset := validityLen
	for i, k := range kinds {
		width, isVar := fixedWidth(k)
		fields[i] = Field{Kind: k, FixedOffset: offset, FixedWidth: width, IsVariable: isVar}
		offset += width
	}
	return Layout{Fields: fields, ValidityLen: validityLen, StaticSize: offset}
}

// FieldCount returns the number of fields described by the layout.
func (l Layout) FieldCount() int {
	return len(l.Fields)
}
