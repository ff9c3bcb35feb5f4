package types

import (
	"math"
	"math/big"
	"testing"
	"time"
)

func TestFloatConstructorsRejectNaN(t *testing.T) {
	if _, err := NewFloat8(math.NaN()); err == nil {
		t.Fatal("expected error constructing Float8 from NaN")
	}
	if _, err := NewFloat4(float32(math.NaN())); err == nil {
		t.Fatal("expected error constructing Float4 from NaN")
	}
	if _, err := NewFloat8(1.5); err != nil {
		t.Fatalf("unexpected error for valid float: %v", err)
	}
}

func TestKindTags(t *testing.T) {
	cases := []Value{
		Bool(true), Int1(1), Int2(1), Int4(1), Int8(1),
		Uint1(1), Uint2(1), Uint4(1), Uint8(1),
		Float4(1), Float8(1), Utf8("x"), Blob("x"),
		Date{}, DateTime{}, Time{}, Interval{},
		Uuid4{}, Uuid7{}, IdentityId{}, RowNumber(1),
		Int{}, Uint{}, Decimal{},
	}
	seen := map[Kind]bool{}
	for _, v := range cases {
		if seen[v.Kind()] {
			t.Errorf("duplicate Kind tag %v for %T", v.Kind(), v)
		}
		seen[v.Kind()] = true
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := NewDate(2024, time.March, 15)
	got := d.Time()
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 {
		t.Errorf("date round-trip: got %v", got)
	}
}

func TestIntervalApproxNanos(t *testing.T) {
	iv := Interval{Months: 1, Days: 0, Nanos: 0}
	wantDays := int64(30)
	if got := iv.ApproxNanos() / int64(24*time.Hour); got != wantDays {
		t.Errorf("1 month ~= 30 days, got %d days", got)
	}
	year := Interval{Months: 12}
	if got := year.ApproxNanos() / int64(24*time.Hour); got != 360 {
		t.Errorf("12 months via approximation should be 360 days, got %d", got)
	}
}

func TestIntervalAddTo(t *testing.T) {
	base := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	iv := Interval{Months: 1}
	got := iv.AddTo(base)
	// time.AddDate normalizes Jan 31 + 1 month to Mar 2 (2024 is a leap year).
	if got.Month() != time.March && got.Month() != time.February {
		t.Errorf("unexpected month after adding interval: %v", got)
	}
}

func TestUuid7IsTimeOrdered(t *testing.T) {
	a := NewUuid7()
	time.Sleep(2 * time.Millisecond)
	b := NewUuid7()
	if !(a[0] < b[0] || (a[0] == b[0] && a[1] <= b[1])) {
		// Compare the full 16 bytes lexicographically as that's the
		// actual sort key used by range scans.
		less := false
		for i := 0; i < 16; i++ {
			if a[i] != b[i] {
				less = a[i] < b[i]
				break
			}
		}
		if !less {
			t.Errorf("expected a < b lexicographically: a=%x b=%x", a, b)
		}
	}
}

func TestUuid7VersionAndVariantBits(t *testing.T) {
	u := NewUuid7()
	if u[6]>>4 != 0x7 {
		t.Errorf("expected version nibble 7, got %x", u[6]>>4)
	}
	if u[8]>>6 != 0b10 {
		t.Errorf("expected RFC 4122 variant bits, got %b", u[8]>>6)
	}
}

func TestIntAddAndCmp(t *testing.T) {
	a := NewIntFromInt64(5)
	b := NewIntFromInt64(7)
	sum := a.Add(b)
	if sum.String() != "12" {
		t.Errorf("5+7 = %s", sum.String())
	}
	if a.Cmp(b) >= 0 {
		t.Errorf("expected 5 < 7")
	}
}

func TestUintRejectsNegative(t *testing.T) {
	neg := NewIntFromInt64(-1).BigInt()
	if _, err := NewUint(neg); err == nil {
		t.Fatal("expected error for negative Uint")
	}
}

func TestInt16RoundTripsWithinBounds(t *testing.T) {
	v, err := NewInt16(big.NewInt(-12345))
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "-12345" {
		t.Errorf("expected -12345, got %s", v.String())
	}
	if v.Kind() != KindInt16 {
		t.Errorf("expected KindInt16, got %s", v.Kind())
	}
}

func TestInt16RejectsOutOfRange(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 127) // 2^127, one past the max
	if _, err := NewInt16(tooBig); err == nil {
		t.Fatal("expected an error for a value exceeding 128-bit signed range")
	}
}

func TestUint16RejectsNegativeAndOutOfRange(t *testing.T) {
	if _, err := NewUint16(big.NewInt(-1)); err == nil {
		t.Fatal("expected an error for a negative Uint16")
	}
	tooBig := new(big.Int).Lsh(big.NewInt(1), 128) // 2^128, one past the max
	if _, err := NewUint16(tooBig); err == nil {
		t.Fatal("expected an error for a value exceeding 128-bit unsigned range")
	}
}

func TestDecimalArithmetic(t *testing.T) {
	a, err := NewDecimal("10.50", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewDecimal("0.25", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	sum := a.Add(b)
	if sum.String() != "10.75" {
		t.Errorf("10.50+0.25 = %s", sum.String())
	}
	if a.Cmp(b) <= 0 {
		t.Errorf("expected 10.50 > 0.25")
	}
}

func TestDecimalRejectsInvalidLiteral(t *testing.T) {
	if _, err := NewDecimal("not-a-number", 10, 2); err == nil {
		t.Fatal("expected error for invalid decimal literal")
	}
}
