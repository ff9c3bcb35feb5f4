// Package cdc implements the append-only change-data-capture log: one
// record per non-excluded key written by a committed CommandTransaction,
// in strict (version, seq_in_version) order, plus per-consumer checkpoint
// tracking so a consumer can resume after a restart.
package cdc

import (
	"sync"

	"github.com/reifydb/reifydb/internal/errs"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/store"
)

// Op classifies a Record by which of Pre/Post is present.
type Op uint8

const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "Insert"
	case OpUpdate:
		return "Update"
	case OpDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Record is one before/after image tuple describing a single key's change
// at one version.
type Record struct {
	Version      uint64
	SeqInVersion uint32
	Kind         keycode.KeyKind
	Key          []byte
	Pre          []byte // nil for Insert
	Post         []byte // nil for Delete
}

// Op classifies the record: Insert (Pre nil), Delete (Post nil), or Update
// otherwise (both present, or both nil as for a removal of a key that had
// no visible value).
func (r Record) Op() Op {
	switch {
	case r.Pre == nil && r.Post != nil:
		return OpInsert
	case r.Pre != nil && r.Post == nil:
		return OpDelete
	default:
		return OpUpdate
	}
}

// Log is the append-only CDC log, indexed by commit version. Append is
// called from exactly one place: CommandTransaction.Commit's AppendCDC
// hook, itself invoked under the per-keyspace commit serializer, so
// versions always arrive here in increasing order.
type Log struct {
	mu          sync.RWMutex
	byVersion   map[uint64][]Record
	versionsAsc []uint64
}

// NewLog returns an empty CDC log.
func NewLog() *Log {
	return &Log{byVersion: make(map[uint64][]Record)}
}

// Append builds and stores the CDC records for one commit. Writes whose key
// kind is in the CDC-exclusion set (per keycode.ExcludedFromCDC) are
// filtered out here as the final, authoritative check — callers may have
// already filtered, but this is the sole arbiter spec.md §4.7 describes.
func (l *Log) Append(version uint64, writes []store.Write, preImage map[string][]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byVersion[version]; exists {
		return errs.New(errs.Internal, "CDC_001", "CDC records already appended for this commit version")
	}

	records := make([]Record, 0, len(writes))
	var seq uint32
	for _, w := range writes {
		kind, err := keycode.EncodedKey(w.Key).Kind()
		if err != nil {
			return errs.Wrap(errs.InvalidData, "CDC_002", "cannot determine key kind for CDC record", err)
		}
		if keycode.ExcludedFromCDC(kind) {
			continue
		}
		var pre []byte
		if p, ok := preImage[string(w.Key)]; ok {
			pre = p
		}
		records = append(records, Record{
			Version:      version,
			SeqInVersion: seq,
			Kind:         kind,
			Key:          append([]byte(nil), w.Key...),
			Pre:          pre,
			Post:         w.Value,
		})
		seq++
	}

	l.byVersion[version] = records
	l.versionsAsc = append(l.versionsAsc, version)
	return nil
}

// Fetch returns the records committed at version, in seq_in_version order.
func (l *Log) Fetch(version uint64) ([]Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.byVersion[version]
	return r, ok
}

// FetchRange returns every record for versions in (afterVersion,
// upToVersion], in ascending (version, seq_in_version) order.
func (l *Log) FetchRange(afterVersion, upToVersion uint64) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Record
	for _, v := range l.versionsAsc {
		if v <= afterVersion {
			continue
		}
		if v > upToVersion {
			break
		}
		out = append(out, l.byVersion[v]...)
	}
	return out
}

// LatestVersion returns the highest version with recorded CDC entries.
func (l *Log) LatestVersion() (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.versionsAsc) == 0 {
		return 0, false
	}
	return l.versionsAsc[len(l.versionsAsc)-1], true
}

// CheckpointStore holds each consumer's last_processed_version in memory,
// keyed by consumer id; it does not survive a restart.
type CheckpointStore struct {
	mu          sync.Mutex
	checkpoints map[string]uint64
}

// NewCheckpointStore returns an empty checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{checkpoints: make(map[string]uint64)}
}

// Save records consumerID's last processed version.
func (c *CheckpointStore) Save(consumerID string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpoints[consumerID] = version
}

// Load returns consumerID's last saved checkpoint, or found=false if the
// consumer has never checkpointed.
func (c *CheckpointStore) Load(consumerID string) (version uint64, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version, found = c.checkpoints[consumerID]
	return version, found
}

// ResumeFrom returns the version after which consumerID should resume
// fetching: its last checkpoint, or 0 if it has never checkpointed (so
// FetchRange's exclusive lower bound includes every version from the
// beginning of the log).
func (c *CheckpointStore) ResumeFrom(consumerID string) uint64 {
	v, ok := c.Load(consumerID)
	if !ok {
		return 0
	}
	return v
}
