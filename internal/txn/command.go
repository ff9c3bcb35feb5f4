package txn

import (
	"bytes"
	"sort"
	"sync"

	"github.com/reifydb/reifydb/internal/errs"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/store"
)

// Hooks lets the surrounding engine observe a commit without this package
// importing the cdc or eventbus packages directly.
type Hooks struct {
	// AppendCDC is called once per commit, after the HotStore batch is
	// applied, with the non-excluded writes in buffer insertion order.
	AppendCDC func(commitVersion uint64, writes []store.Write, preImage map[string][]byte) error
	// Broadcast is called after AppendCDC succeeds.
	Broadcast func(commitVersion uint64)
}

type bufferedWrite struct {
	key     []byte
	value   []byte
	removed bool
}

// CommandTransaction buffers writes against a fixed read snapshot, serves
// reads with read-your-writes semantics, and performs optimistic conflict
// detection at commit.
type CommandTransaction struct {
	mgr      *Manager
	hot      *store.HotStore
	snapshot uint64
	hooks    Hooks

	mu       sync.Mutex
	order    []string // insertion order of buffer keys, for CDC sequencing
	buffer   map[string]bufferedWrite
	observed map[string]struct{}
	done     bool
}

// BeginCommand starts a CommandTransaction with its read snapshot fixed at
// the manager's latest committed version.
func (m *Manager) BeginCommand(hot *store.HotStore, hooks Hooks) *CommandTransaction {
	snapshot := m.LatestVersion()
	m.RegisterWatermark(snapshot)
	return &CommandTransaction{
		mgr:      m,
		hot:      hot,
		snapshot: snapshot,
		hooks:    hooks,
		buffer:   make(map[string]bufferedWrite),
		observed: make(map[string]struct{}),
	}
}

// Version returns the transaction's fixed read snapshot.
func (tx *CommandTransaction) Version() uint64 { return tx.snapshot }

// Get returns key's value: a buffer hit wins outright; otherwise the key is
// read from HotStore at the snapshot version and added to the observed set
// for conflict detection.
func (tx *CommandTransaction) Get(key []byte) ([]byte, bool) {
	tx.mu.Lock()
	if w, ok := tx.buffer[string(key)]; ok {
		tx.mu.Unlock()
		if w.removed {
			return nil, false
		}
		return w.value, true
	}
	tx.observed[string(key)] = struct{}{}
	tx.mu.Unlock()
	return tx.hot.Get(key, tx.snapshot)
}

// Set buffers key=value for commit.
func (tx *CommandTransaction) Set(key, value []byte) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	k := string(key)
	if _, exists := tx.buffer[k]; !exists {
		tx.order = append(tx.order, k)
	}
	tx.buffer[k] = bufferedWrite{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	}
}

// Remove buffers a tombstone for key.
func (tx *CommandTransaction) Remove(key []byte) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	k := string(key)
	if _, exists := tx.buffer[k]; !exists {
		tx.order = append(tx.order, k)
	}
	tx.buffer[k] = bufferedWrite{key: append([]byte(nil), key...), removed: true}
}

type overlayEntry struct {
	key     []byte
	value   []byte
	removed bool
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

// ScanRange merges the buffered writes over a HotStore snapshot scan,
// preserving lexicographic key order. Stops early if fn returns false.
func (tx *CommandTransaction) ScanRange(start, end []byte, fn func(key, value []byte) bool) {
	tx.mu.Lock()
	var overlay []overlayEntry
	for k, w := range tx.buffer {
		kb := []byte(k)
		if !inRange(kb, start, end) {
			continue
		}
		overlay = append(overlay, overlayEntry{key: kb, value: w.value, removed: w.removed})
	}
	snapshot := tx.snapshot
	tx.mu.Unlock()

	sort.Slice(overlay, func(i, j int) bool { return bytes.Compare(overlay[i].key, overlay[j].key) < 0 })

	var hotEntries []overlayEntry
	tx.hot.ScanRange(start, end, snapshot, func(key, value []byte) bool {
		hotEntries = append(hotEntries, overlayEntry{key: append([]byte(nil), key...), value: value})
		return true
	})

	i, j := 0, 0
	for i < len(hotEntries) || j < len(overlay) {
		switch {
		case j >= len(overlay):
			e := hotEntries[i]
			i++
			if !fn(e.key, e.value) {
				return
			}
		case i >= len(hotEntries):
			o := overlay[j]
			j++
			if o.removed {
				continue
			}
			if !fn(o.key, o.value) {
				return
			}
		default:
			cmp := bytes.Compare(hotEntries[i].key, overlay[j].key)
			switch {
			case cmp < 0:
				e := hotEntries[i]
				i++
				if !fn(e.key, e.value) {
					return
				}
			case cmp > 0:
				o := overlay[j]
				j++
				if o.removed {
					continue
				}
				if !fn(o.key, o.value) {
					return
				}
			default:
				o := overlay[j]
				i++
				j++
				if o.removed {
					continue
				}
				if !fn(o.key, o.value) {
					return
				}
			}
		}
	}
}

func isExcludedFromCDC(key []byte) bool {
	kind, err := keycode.EncodedKey(key).Kind()
	if err != nil {
		return false
	}
	return keycode.ExcludedFromCDC(kind)
}

// Commit runs the six-step protocol described in §4.5: check for conflicts
// against the recent-writes index, acquire a commit version, compute the
// pre-image map, apply the batch to HotStore, append a CDC record, and
// broadcast the commit.
func (tx *CommandTransaction) Commit() error {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return errs.New(errs.Precondition, "TXN_001", "transaction already committed or rolled back")
	}
	order := append([]string(nil), tx.order...)
	buffer := make(map[string]bufferedWrite, len(tx.buffer))
	for k, v := range tx.buffer {
		buffer[k] = v
	}
	observed := make(map[string]struct{}, len(tx.observed))
	for k := range tx.observed {
		observed[k] = struct{}{}
	}
	snapshot := tx.snapshot
	tx.mu.Unlock()

	if len(order) == 0 {
		tx.finish()
		return nil
	}

	tx.mgr.commitMu.Lock()
	defer tx.mgr.commitMu.Unlock()

	if tx.mgr.HasConflict(observed, snapshot) {
		return errs.New(errs.Conflict, "TXN_002", "a concurrently committed transaction wrote a key this transaction read")
	}

	commitVersion, err := tx.mgr.NextCommitVersion()
	if err != nil {
		return err
	}

	preImage := make(map[string][]byte, len(order))
	writes := make([]store.Write, 0, len(order))
	writtenKeys := make([][]byte, 0, len(order))
	for _, k := range order {
		w := buffer[k]
		if pre, ok := tx.hot.Get(w.key, snapshot); ok {
			preImage[k] = pre
		}
		value := w.value
		if w.removed {
			value = nil
		}
		writes = append(writes, store.Write{Key: w.key, Value: value})
		writtenKeys = append(writtenKeys, w.key)
	}

	if err := tx.hot.ApplyBatch(commitVersion, writes, preImage); err != nil {
		return err
	}
	tx.mgr.RecordWrites(commitVersion, writtenKeys)

	if tx.hooks.AppendCDC != nil {
		cdcWrites := make([]store.Write, 0, len(writes))
		for _, w := range writes {
			if isExcludedFromCDC(w.Key) {
				continue
			}
			cdcWrites = append(cdcWrites, w)
		}
		if err := tx.hooks.AppendCDC(commitVersion, cdcWrites, preImage); err != nil {
			return err
		}
	}
	if tx.hooks.Broadcast != nil {
		tx.hooks.Broadcast(commitVersion)
	}

	tx.finish()
	return nil
}

// Rollback discards the write buffer. Equivalent to letting the transaction
// go out of scope without calling Commit.
func (tx *CommandTransaction) Rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return
	}
	tx.done = true
	tx.buffer = nil
	tx.order = nil
	tx.mgr.DeregisterWatermark(tx.snapshot)
}

func (tx *CommandTransaction) finish() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return
	}
	tx.done = true
	tx.mgr.DeregisterWatermark(tx.snapshot)
}
