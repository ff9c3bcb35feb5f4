package types

import (
	"math/big"

	"github.com/reifydb/reifydb/internal/errs"
)

// Int is an arbitrary-precision signed integer, grounded on the same
// *big.Int/*big.Rat approach the teacher's decimal helpers use for
// numeric coercions.
type Int struct {
	v *big.Int
}

func (Int) Kind() Kind { return KindInt }

// NewInt wraps a *big.Int. A nil value is treated as zero.
func NewInt(v *big.Int) Int {
	if v == nil {
		return Int{v: new(big.Int)}
	}
	return Int{v: new(big.Int).Set(v)}
}

// NewIntFromInt64 wraps an int64.
func NewIntFromInt64(v int64) Int {
	return Int{v: big.NewInt(v)}
}

// BigInt returns the underlying *big.Int, owned by the caller (a copy).
func (i Int) BigInt() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// String returns the base-10 representation.
func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

// Add returns i + other as a new Int.
func (i Int) Add(other Int) Int {
	return Int{v: new(big.Int).Add(i.BigInt(), other.BigInt())}
}

// Cmp compares i to other: -1, 0, or 1.
func (i Int) Cmp(other Int) int {
	return i.BigInt().Cmp(other.BigInt())
}

// Uint is an arbitrary-precision unsigned integer.
type Uint struct {
	v *big.Int
}

func (Uint) Kind() Kind { return KindUint }

// NewUint wraps a non-negative *big.Int.
func NewUint(v *big.Int) (Uint, error) {
	if v == nil {
		return Uint{v: new(big.Int)}, nil
	}
	if v.Sign() < 0 {
		return Uint{}, errs.New(errs.OutOfRange, "TYPE_003", "Uint cannot hold a negative value")
	}
	return Uint{v: new(big.Int).Set(v)}, nil
}

// BigInt returns the underlying *big.Int, owned by the caller (a copy).
func (u Uint) BigInt() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.v)
}

func (u Uint) String() string {
	if u.v == nil {
		return "0"
	}
	return u.v.String()
}

// int16Min/int16Max/uint16Max bound the 128-bit fixed-width integer kinds.
// Int16 and Uint16 reuse the Int/Uint big.Int backing rather than a fixed
// [16]byte layout; the 128-bit range is enforced only at construction.
var (
	int16Min, int16Max = new(big.Int), new(big.Int)
	uint16Max          = new(big.Int)
)

func init() {
	// [-2^127, 2^127-1] and [0, 2^128-1].
	int16Max.Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	int16Min.Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	uint16Max.Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
}

// Int16 is a bounds-checked 128-bit signed integer.
type Int16 struct{ Int }

func (Int16) Kind() Kind { return KindInt16 }

// NewInt16 wraps v, rejecting values outside [-2^127, 2^127-1].
func NewInt16(v *big.Int) (Int16, error) {
	if v != nil && (v.Cmp(int16Min) < 0 || v.Cmp(int16Max) > 0) {
		return Int16{}, errs.New(errs.OutOfRange, "TYPE_006", "value does not fit in a 128-bit signed integer")
	}
	return Int16{Int: NewInt(v)}, nil
}

// Uint16 is a bounds-checked 128-bit unsigned integer.
type Uint16 struct{ Uint }

func (Uint16) Kind() Kind { return KindUint16 }

// NewUint16 wraps v, rejecting negative values or values above 2^128-1.
func NewUint16(v *big.Int) (Uint16, error) {
	if v != nil && v.Sign() < 0 {
		return Uint16{}, errs.New(errs.OutOfRange, "TYPE_007", "Uint16 cannot hold a negative value")
	}
	if v != nil && v.Cmp(uint16Max) > 0 {
		return Uint16{}, errs.New(errs.OutOfRange, "TYPE_007", "value does not fit in a 128-bit unsigned integer")
	}
	u, _ := NewUint(v)
	return Uint16{Uint: u}, nil
}

// Decimal is a fixed precision/scale arbitrary-precision number, stored as
// a *big.Rat the way the teacher's decimal.go holds numeric values for
// coercion and arithmetic.
type Decimal struct {
	v         *big.Rat
	precision int
	scale     int
}

func (Decimal) Kind() Kind { return KindDecimal }

// NewDecimal parses a plain decimal string (e.g. "123.450") into a Decimal
// with the given declared precision and scale.
func NewDecimal(s string, precision, scale int) (Decimal, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return Decimal{}, errs.New(errs.InvalidData, "TYPE_004", "invalid decimal literal: "+s)
	}
	return Decimal{v: r, precision: precision, scale: scale}, nil
}

// Precision and Scale return the declared precision/scale.
func (d Decimal) Precision() int { return d.precision }
func (d Decimal) Scale() int     { return d.scale }

// Rat returns the underlying *big.Rat, owned by the caller (a copy).
func (d Decimal) Rat() *big.Rat {
	if d.v == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(d.v)
}

// String returns a plain decimal string at the declared scale.
func (d Decimal) String() string {
	if d.v == nil {
		return "0"
	}
	return d.v.FloatString(d.scale)
}

// Add returns d + other, keeping d's declared precision/scale.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{
		v:         new(big.Rat).Add(d.Rat(), other.Rat()),
		precision: d.precision,
		scale:     d.scale,
	}
}

// Cmp compares d to other: -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.Rat().Cmp(other.Rat())
}
