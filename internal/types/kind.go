// Package types implements the closed scalar value universe: the set of
// types a column, row field, or key component can hold.
package types

// Kind discriminates the scalar value universe. It is the tag byte used
// wherever a value needs to self-describe its type (sum-type encodings,
// EncodedValues layouts).
type Kind uint8

const (
	KindUndefined Kind = iota
	KindBool
	KindInt1
	KindInt2
	KindInt4
	KindInt8
	KindInt16
	KindUint1
	KindUint2
	KindUint4
	KindUint8
	KindUint16
	KindFloat4
	KindFloat8
	KindUtf8
	KindBlob
	KindDate
	KindDateTime
	KindTime
	KindInterval
	KindUuid4
	KindUuid7
	KindIdentityId
	KindRowNumber
	KindInt
	KindUint
	KindDecimal
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindBool:
		return "Bool"
	case KindInt1:
		return "Int1"
	case KindInt2:
		return "Int2"
	case KindInt4:
		return "Int4"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindUint1:
		return "Uint1"
	case KindUint2:
		return "Uint2"
	case KindUint4:
		return "Uint4"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindFloat4:
		return "Float4"
	case KindFloat8:
		return "Float8"
	case KindUtf8:
		return "Utf8"
	case KindBlob:
		return "Blob"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindInterval:
		return "Interval"
	case KindUuid4:
		return "Uuid4"
	case KindUuid7:
		return "Uuid7"
	case KindIdentityId:
		return "IdentityId"
	case KindRowNumber:
		return "RowNumber"
	case KindInt:
		return "Int"
	case KindUint:
		return "Uint"
	case KindDecimal:
		return "Decimal"
	default:
		return "Unknown"
	}
}

// Value is implemented by every scalar in the type universe.
type Value interface {
	Kind() Kind
}
