package txn

import (
	"sync"

	"github.com/reifydb/reifydb/internal/store"
)

// QueryTransaction is a read-only snapshot at a fixed version. It registers
// its watermark with the Manager on begin and deregisters on Close so
// retention never removes a version this snapshot can still see.
type QueryTransaction struct {
	mgr     *Manager
	hot     *store.HotStore
	version uint64

	mu     sync.Mutex
	closed bool
}

// BeginQuery starts a QueryTransaction at the manager's latest committed
// version.
func (m *Manager) BeginQuery(hot *store.HotStore) *QueryTransaction {
	v := m.LatestVersion()
	m.RegisterWatermark(v)
	return &QueryTransaction{mgr: m, hot: hot, version: v}
}

// Version returns the fixed read version.
func (q *QueryTransaction) Version() uint64 { return q.version }

// Get reads key at the snapshot version.
func (q *QueryTransaction) Get(key []byte) ([]byte, bool) {
	return q.hot.Get(key, q.version)
}

// ScanRange iterates [start, end) at the snapshot version.
func (q *QueryTransaction) ScanRange(start, end []byte, fn func(key, value []byte) bool) {
	q.hot.ScanRange(start, end, q.version, fn)
}

// Close deregisters the snapshot's watermark. Safe to call more than once.
func (q *QueryTransaction) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.mgr.DeregisterWatermark(q.version)
}
