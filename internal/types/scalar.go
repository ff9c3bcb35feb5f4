package types

import (
	"math"
	"time"

	"github.com/reifydb/reifydb/internal/errs"
)

// Undefined is the universal "no value" scalar, distinct from any
// zero-valued typed scalar and from a tombstone.
type Undefined struct{}

func (Undefined) Kind() Kind { return KindUndefined }

// Bool is the boolean scalar.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Int1, Int2, Int4, Int8 are signed integers of the named byte widths.
type (
	Int1 int8
	Int2 int16
	Int4 int32
	Int8 int64
)

func (Int1) Kind() Kind { return KindInt1 }
func (Int2) Kind() Kind { return KindInt2 }
func (Int4) Kind() Kind { return KindInt4 }
func (Int8) Kind() Kind { return KindInt8 }

// Uint1, Uint2, Uint4, Uint8 are unsigned integers of the named byte widths.
type (
	Uint1 uint8
	Uint2 uint16
	Uint4 uint32
	Uint8 uint64
)

func (Uint1) Kind() Kind { return KindUint1 }
func (Uint2) Kind() Kind { return KindUint2 }
func (Uint4) Kind() Kind { return KindUint4 }
func (Uint8) Kind() Kind { return KindUint8 }

// Float4 is a 32-bit float. NaN is rejected at construction.
type Float4 float32

// NewFloat4 rejects NaN, matching the codec's refusal to encode one.
func NewFloat4(v float32) (Float4, error) {
	if math.IsNaN(float64(v)) {
		return 0, errs.New(errs.InvalidData, "TYPE_001", "Float4 cannot be NaN")
	}
	return Float4(v), nil
}

func (Float4) Kind() Kind { return KindFloat4 }

// Float8 is a 64-bit float. NaN is rejected at construction.
type Float8 float64

// NewFloat8 rejects NaN, matching the codec's refusal to encode one.
func NewFloat8(v float64) (Float8, error) {
	if math.IsNaN(v) {
		return 0, errs.New(errs.InvalidData, "TYPE_002", "Float8 cannot be NaN")
	}
	return Float8(v), nil
}

func (Float8) Kind() Kind { return KindFloat8 }

// Utf8 is a UTF-8 text scalar.
type Utf8 string

func (Utf8) Kind() Kind { return KindUtf8 }

// Blob is an opaque byte-sequence scalar.
type Blob []byte

func (Blob) Kind() Kind { return KindBlob }

// Date is a calendar date with no time-of-day component, stored as days
// since the Unix epoch.
type Date struct {
	Days int32
}

func (Date) Kind() Kind { return KindDate }

// NewDate constructs a Date from a calendar (year, month, day), truncating
// any time-of-day component.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	epoch := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	return Date{Days: int32(t.Sub(epoch).Hours() / 24)}
}

// Time converts Date back to a time.Time at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(d.Days))
}

// DateTime is a calendar date and time, stored as nanoseconds since the
// Unix epoch (UTC).
type DateTime struct {
	UnixNano int64
}

func (DateTime) Kind() Kind { return KindDateTime }

// NewDateTime constructs a DateTime from a time.Time.
func NewDateTime(t time.Time) DateTime {
	return DateTime{UnixNano: t.UnixNano()}
}

// Time returns the wrapped time.Time in UTC.
func (dt DateTime) Time() time.Time {
	return time.Unix(0, dt.UnixNano).UTC()
}

// Time is a time-of-day value with no date component, stored as
// nanoseconds since midnight.
type Time struct {
	NanosSinceMidnight int64
}

func (Time) Kind() Kind { return KindTime }

// Interval is a calendar-approximate duration: months, days, and
// nanoseconds held separately because a month is not a fixed number of
// days. ApproxNanos counts a month as 30 days rather than resolving against
// a real calendar. Interval has no year unit, so there is no 365-day year:
// 12 months count as 360 days.
type Interval struct {
	Months int32
	Days   int32
	Nanos  int64
}

func (Interval) Kind() Kind { return KindInterval }

const (
	approxDaysPerMonth = 30
	nanosPerDay        = int64(24 * time.Hour)
)

// ApproxNanos collapses the interval to a single nanosecond count using
// the 30-day month approximation. Used for ordering and for adding an
// interval to a timestamp when calendar-accurate month arithmetic is not
// required.
func (iv Interval) ApproxNanos() int64 {
	return int64(iv.Months)*approxDaysPerMonth*nanosPerDay + int64(iv.Days)*nanosPerDay + iv.Nanos
}

// AddTo adds the interval to t, applying Months as calendar months and
// Days/Nanos as exact durations. Month-end overflow is not clamped: it
// normalizes as time.Time.AddDate does (Jan 31 2024 + 1 month is Mar 2).
func (iv Interval) AddTo(t time.Time) time.Time {
	return t.AddDate(0, int(iv.Months), int(iv.Days)).Add(time.Duration(iv.Nanos))
}

// Uuid4 is a random (version 4) UUID.
type Uuid4 [16]byte

func (Uuid4) Kind() Kind { return KindUuid4 }

// Uuid7 is a time-ordered (version 7) UUID: a 48-bit millisecond timestamp
// followed by random bits, so lexicographic byte order agrees with
// creation order.
type Uuid7 [16]byte

func (Uuid7) Kind() Kind { return KindUuid7 }

// IdentityId is a Uuid7 newtype used to identify a long-lived entity
// (distinct from a row's incidental Uuid7 value) across versions.
type IdentityId Uuid7

func (IdentityId) Kind() Kind { return KindIdentityId }

// RowNumber is a dense, per-table row identifier.
type RowNumber uint64

func (RowNumber) Kind() Kind { return KindRowNumber }
