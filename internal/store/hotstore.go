// Package store implements HotStore: the concurrent, ordered, multi-version
// in-memory map keyed by (key, version) that backs every read and write in
// the engine.
package store

import (
	"bytes"
	"sort"
	"sync"

	"github.com/reifydb/reifydb/internal/errs"
)

// versionedEntry is one physical version of a key. A nil Value denotes a
// tombstone (logical deletion at Version).
type versionedEntry struct {
	Version uint64
	Value   []byte
}

// chain holds every physical version of one key, ascending by Version.
// Commit versions only ever increase, so new entries always append.
type chain struct {
	key      []byte
	versions []versionedEntry
}

// visibleAt returns the entry with the greatest Version <= readVersion, or
// false if no such entry exists.
func (c *chain) visibleAt(readVersion uint64) (versionedEntry, bool) {
	versions := c.versions
	i := sort.Search(len(versions), func(i int) bool { return versions[i].Version > readVersion })
	if i == 0 {
		return versionedEntry{}, false
	}
	return versions[i-1], true
}

// Write is one key's new value (or tombstone, if Value is nil) within a
// commit batch.
type Write struct {
	Key   []byte
	Value []byte // nil = tombstone
}

// HotStore is an RWMutex-guarded sorted index: a slice of per-key version
// chains, binary-searched by key. Readers take the read lock and never
// block each other; a single serialized writer (the transaction commit
// path) takes the write lock to install a batch atomically.
type HotStore struct {
	mu     sync.RWMutex
	chains []*chain // sorted ascending by chains[i].key
}

// New returns an empty HotStore.
func New() *HotStore {
	return &HotStore{}
}

func (s *HotStore) find(key []byte) (idx int, found bool) {
	idx = sort.Search(len(s.chains), func(i int) bool {
		return bytes.Compare(s.chains[i].key, key) >= 0
	})
	found = idx < len(s.chains) && bytes.Equal(s.chains[idx].key, key)
	return idx, found
}

// Get returns the value visible at readVersion for key, or found=false if
// the key has no entry at or before readVersion, or its visible entry is a
// tombstone.
func (s *HotStore) Get(key []byte, readVersion uint64) (value []byte, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.find(key)
	if !ok {
		return nil, false
	}
	entry, ok := s.chains[idx].visibleAt(readVersion)
	if !ok || entry.Value == nil {
		return nil, false
	}
	return entry.Value, true
}

// ScanRange iterates the latest visible entry per key in [start, end)
// (lexicographic key order), at readVersion. A nil end scans to the end
// of the keyspace. Stops early if fn returns false. Tombstoned keys are
// skipped.
func (s *HotStore) ScanRange(start, end []byte, readVersion uint64, fn func(key, value []byte) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := sort.Search(len(s.chains), func(i int) bool {
		return bytes.Compare(s.chains[i].key, start) >= 0
	})
	for i := startIdx; i < len(s.chains); i++ {
		c := s.chains[i]
		if end != nil && bytes.Compare(c.key, end) >= 0 {
			break
		}
		entry, ok := c.visibleAt(readVersion)
		if !ok || entry.Value == nil {
			continue
		}
		if !fn(c.key, entry.Value) {
			return
		}
	}
}

// ScanStableAtOrBelow iterates keys in [start, end) whose most recent
// physical version is at or below floor — i.e. nothing has written the key
// since floor — calling fn with the key and its current value. Used by the
// retention engine to find keys eligible for cleanup; already-tombstoned
// keys are skipped since there is nothing left to clean up logically.
func (s *HotStore) ScanStableAtOrBelow(start, end []byte, floor uint64, fn func(key, value []byte) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := sort.Search(len(s.chains), func(i int) bool {
		return bytes.Compare(s.chains[i].key, start) >= 0
	})
	for i := startIdx; i < len(s.chains); i++ {
		c := s.chains[i]
		if end != nil && bytes.Compare(c.key, end) >= 0 {
			break
		}
		n := len(c.versions)
		if n == 0 {
			continue
		}
		last := c.versions[n-1]
		if last.Version > floor || last.Value == nil {
			continue
		}
		if !fn(c.key, last.Value) {
			return
		}
	}
}

// ApplyBatch atomically installs writes at commitVersion: all keys become
// visible at commitVersion or none do. preImages is accepted for callers
// that have already computed it (CDC/statistics need it) but is not
// otherwise consulted by HotStore itself.
func (s *HotStore) ApplyBatch(commitVersion uint64, writes []Write, preImages map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before installing anything, so a rejected
	// batch leaves no partial writes behind.
	seen := make(map[string]struct{}, len(writes))
	for _, w := range writes {
		if _, dup := seen[string(w.Key)]; dup {
			return errs.New(errs.Internal, "STORE_001", "commit version must exceed every prior version for this key")
		}
		seen[string(w.Key)] = struct{}{}
		if idx, ok := s.find(w.Key); ok {
			if c := s.chains[idx]; len(c.versions) > 0 && c.versions[len(c.versions)-1].Version >= commitVersion {
				return errs.New(errs.Internal, "STORE_001", "commit version must exceed every prior version for this key")
			}
		}
	}

	for _, w := range writes {
		idx, ok := s.find(w.Key)
		var c *chain
		if ok {
			c = s.chains[idx]
		} else {
			c = &chain{key: append([]byte(nil), w.Key...)}
			s.chains = append(s.chains, nil)
			copy(s.chains[idx+1:], s.chains[idx:])
			s.chains[idx] = c
		}
		c.versions = append(c.versions, versionedEntry{Version: commitVersion, Value: w.Value})
	}
	return nil
}

// DropAtOrBelow physically removes every version of key at or below
// version. Used only by the retention engine's drop phase, after the
// cleanup floor has advanced past the versions in question.
func (s *HotStore) DropAtOrBelow(key []byte, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.find(key)
	if !ok {
		return
	}
	c := s.chains[idx]
	cut := sort.Search(len(c.versions), func(i int) bool { return c.versions[i].Version > version })
	c.versions = c.versions[cut:]
	if len(c.versions) == 0 {
		s.chains = append(s.chains[:idx], s.chains[idx+1:]...)
	}
}

// KeyCount returns the number of distinct keys currently tracked (for
// tests and diagnostics).
func (s *HotStore) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chains)
}
