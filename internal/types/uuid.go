package types

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reifydb/reifydb/internal/errs"
)

// ParseUuid4 parses a UUID string into a Uuid4.
func ParseUuid4(s string) (Uuid4, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Uuid4{}, errs.Wrap(errs.InvalidData, "TYPE_005", "invalid uuid4 literal", err)
	}
	return Uuid4(u), nil
}

// NewUuid4 generates a random (version 4) UUID.
func NewUuid4() Uuid4 {
	return Uuid4(uuid.New())
}

// String returns the canonical hyphenated representation.
func (u Uuid4) String() string {
	return uuid.UUID(u).String()
}

// Bytes returns the 16-byte representation.
func (u Uuid4) Bytes() []byte {
	b := [16]byte(u)
	return b[:]
}

// uuid7Gen produces time-ordered UUIDs: a 48-bit millisecond timestamp in
// the first 6 bytes, the version and variant bits in bytes 6-8 (their other
// bits zero), a per-millisecond monotonic counter in bytes 9-10, and random
// bytes from uuid.New in bytes 11-15, so that UUIDs minted within the same
// millisecond still sort by creation order.
// This layers RFC 9562 ordering on top of the teacher's plain uuid.New
// rather than switching dependencies.
type uuid7Gen struct {
	mu       sync.Mutex
	lastMs   int64
	counter  uint16
}

var globalUuid7Gen uuid7Gen

// NewUuid7 generates a time-ordered (version 7) UUID.
func NewUuid7() Uuid7 {
	return globalUuid7Gen.next()
}

func (g *uuid7Gen) next() Uuid7 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := time.Now().UnixMilli()
	if ms == g.lastMs {
		g.counter++
	} else {
		g.lastMs = ms
		g.counter = 0
	}
	counter := g.counter

	base := uuid.New() // supplies random low-order bytes
	var out Uuid7
	out[0] = byte(ms >> 40)
	out[1] = byte(ms >> 32)
	out[2] = byte(ms >> 24)
	out[3] = byte(ms >> 16)
	out[4] = byte(ms >> 8)
	out[5] = byte(ms)
	out[6] = 0x70 // version 7
	out[7] = 0
	out[8] = 0x80 // RFC 4122 variant
	out[9] = byte(counter >> 8)
	out[10] = byte(counter)
	copy(out[11:], base[11:16])
	return out
}

// ParseUuid7 parses a UUID string into a Uuid7.
func ParseUuid7(s string) (Uuid7, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Uuid7{}, errs.Wrap(errs.InvalidData, "TYPE_006", "invalid uuid7 literal", err)
	}
	return Uuid7(u), nil
}

// String returns the canonical hyphenated representation.
func (u Uuid7) String() string {
	return uuid.UUID(u).String()
}

// NewIdentityId generates a fresh identity id from a new Uuid7.
func NewIdentityId() IdentityId {
	return IdentityId(NewUuid7())
}

// String returns the canonical hyphenated representation.
func (id IdentityId) String() string {
	return uuid.UUID(id).String()
}
