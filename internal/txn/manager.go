// Package txn implements the transaction layer: a Manager that allocates
// monotonic commit versions and tracks active read watermarks, plus the
// CommandTransaction and QueryTransaction handles built on top of it.
package txn

import (
	"sync"
	"sync/atomic"
)

const blockSize = 100_000

// VersionPersister persists the end of the most recently reserved version
// block. A crash between reservations loses at most one block's worth of
// version numbers, which is acceptable because commit versions are sparse
// identifiers rather than a dense sequence.
type VersionPersister interface {
	LoadBlockEnd() (uint64, error)
	SaveBlockEnd(end uint64) error
}

// memoryPersister is the default VersionPersister for an engine run without
// a configured block ledger: the block boundary does not survive a restart.
type memoryPersister struct {
	mu  sync.Mutex
	end uint64
}

func (p *memoryPersister) LoadBlockEnd() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.end, nil
}

func (p *memoryPersister) SaveBlockEnd(end uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.end = end
	return nil
}

type recentWrite struct {
	key     string
	version uint64
}

// Manager allocates commit versions from a monotonic counter reserved in
// blocks of 100,000, tracks the set of active read watermarks (exposed to
// the retention engine as the cleanup floor), and maintains a bounded
// recent-writes index used for optimistic conflict detection.
type Manager struct {
	persister VersionPersister

	current  atomic.Uint64
	blockEnd atomic.Uint64
	blockMu  sync.Mutex

	// commitMu serializes CommandTransaction.Commit, from the conflict check
	// through the broadcast, across every CommandTransaction sharing this
	// Manager.
	commitMu sync.Mutex

	watermarkMu sync.Mutex
	watermarks  map[uint64]int

	recentMu     sync.Mutex
	recentWrites []recentWrite
	recentCap    int
}

// NewManager constructs a Manager. A nil persister uses an in-memory block
// ledger (fine for a single process that does not need version numbering to
// survive a restart).
func NewManager(persister VersionPersister) (*Manager, error) {
	if persister == nil {
		persister = &memoryPersister{}
	}
	m := &Manager{
		persister:  persister,
		watermarks: make(map[uint64]int),
		recentCap:  10_000,
	}
	end, err := persister.LoadBlockEnd()
	if err != nil {
		return nil, err
	}
	m.current.Store(end)
	m.blockEnd.Store(end)
	if err := m.reserveBlock(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) reserveBlock() error {
	m.blockMu.Lock()
	defer m.blockMu.Unlock()
	// Another goroutine may have already advanced the block while we
	// waited for the lock.
	if m.current.Load() < m.blockEnd.Load() {
		return nil
	}
	newEnd := m.blockEnd.Load() + blockSize
	if err := m.persister.SaveBlockEnd(newEnd); err != nil {
		return err
	}
	m.blockEnd.Store(newEnd)
	return nil
}

// NextCommitVersion returns the next monotonic commit version, reserving a
// new block transparently when the current one is exhausted.
func (m *Manager) NextCommitVersion() (uint64, error) {
	for {
		cur := m.current.Load()
		if cur >= m.blockEnd.Load() {
			if err := m.reserveBlock(); err != nil {
				return 0, err
			}
			continue
		}
		if m.current.CompareAndSwap(cur, cur+1) {
			return cur + 1, nil
		}
	}
}

// LatestVersion returns the most recently allocated commit version, used as
// the read snapshot for a newly begun transaction.
func (m *Manager) LatestVersion() uint64 {
	return m.current.Load()
}

// RegisterWatermark marks read_version as an active snapshot.
func (m *Manager) RegisterWatermark(version uint64) {
	m.watermarkMu.Lock()
	defer m.watermarkMu.Unlock()
	m.watermarks[version]++
}

// DeregisterWatermark releases one reference to read_version.
func (m *Manager) DeregisterWatermark(version uint64) {
	m.watermarkMu.Lock()
	defer m.watermarkMu.Unlock()
	m.watermarks[version]--
	if m.watermarks[version] <= 0 {
		delete(m.watermarks, version)
	}
}

// MinActiveWatermark returns the lowest currently active read watermark.
// found is false if there are no active readers, in which case the cleanup
// floor is unconstrained by snapshot isolation.
func (m *Manager) MinActiveWatermark() (version uint64, found bool) {
	m.watermarkMu.Lock()
	defer m.watermarkMu.Unlock()
	for v := range m.watermarks {
		if !found || v < version {
			version, found = v, true
		}
	}
	return version, found
}

// RecordWrites appends commitVersion's written keys to the recent-writes
// index, evicting the oldest entries once the bounded capacity is exceeded.
func (m *Manager) RecordWrites(version uint64, keys [][]byte) {
	m.recentMu.Lock()
	defer m.recentMu.Unlock()
	for _, k := range keys {
		m.recentWrites = append(m.recentWrites, recentWrite{key: string(k), version: version})
	}
	if over := len(m.recentWrites) - m.recentCap; over > 0 {
		m.recentWrites = m.recentWrites[over:]
	}
}

// HasConflict reports whether any key in observed was written at a version
// strictly greater than sinceVersion, per the bounded recent-writes index.
// A write older than the index's retained window is, by construction, no
// longer visible here; callers rely on the index capacity comfortably
// outliving the longest transaction the workload produces.
func (m *Manager) HasConflict(observed map[string]struct{}, sinceVersion uint64) bool {
	if len(observed) == 0 {
		return false
	}
	m.recentMu.Lock()
	defer m.recentMu.Unlock()
	for _, w := range m.recentWrites {
		if w.version <= sinceVersion {
			continue
		}
		if _, ok := observed[w.key]; ok {
			return true
		}
	}
	return false
}
