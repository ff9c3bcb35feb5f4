// Package retention implements the RetentionManager: per-source and
// per-operator cleanup policies evaluated on a cron-driven cadence, ground
// on spec.md §4.8.
package retention

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/reifydb/reifydb/internal/store"
	"github.com/reifydb/reifydb/internal/txn"
)

// Mode selects how KeepVersions enforces its limit.
type Mode uint8

const (
	// ModeDelete writes a logical tombstone (still CDC-visible as a
	// Delete) once a key's newest version falls below the cleanup floor.
	ModeDelete Mode = iota
	// ModeDrop marks old versions eligible, then physically removes them
	// from HotStore once the cleanup floor advances past the drop-mark
	// version, in a two-stage process.
	ModeDrop
)

// Policy is a closed sum type: KeepForever or KeepVersions.
type Policy interface{ isPolicy() }

// KeepForever disables cleanup for a scope.
type KeepForever struct{}

func (KeepForever) isPolicy() {}

// KeepVersions retains Count versions (or the active read watermark,
// whichever is lower) per key, enforced in the given Mode.
type KeepVersions struct {
	Count int
	Mode  Mode
}

func (KeepVersions) isPolicy() {}

// Scope identifies the key range a policy applies to: a source table/view
// or an operator's own state keyspace.
type Scope struct {
	Name  string
	Start []byte
	End   []byte
}

type binding struct {
	scope  Scope
	policy Policy
}

type dropMark struct {
	scopeName string
	key       []byte
	version   uint64
}

// Manager evaluates retention policies against a HotStore, using a
// txn.Manager's active watermark as the floor below which retention must
// never remove a version.
type Manager struct {
	hot *store.HotStore
	txm *txn.Manager

	mu       sync.Mutex
	policies map[string]binding
	pending  []dropMark

	cron *cron.Cron
}

// NewManager constructs a Manager with no policies and no schedule running.
func NewManager(hot *store.HotStore, txm *txn.Manager) *Manager {
	return &Manager{
		hot:      hot,
		txm:      txm,
		policies: make(map[string]binding),
		cron:     cron.New(),
	}
}

// SetPolicy installs or replaces the policy for scope.
func (m *Manager) SetPolicy(scope Scope, policy Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[scope.Name] = binding{scope: scope, policy: policy}
}

// RemovePolicy drops the policy for the named scope; any drop-marks already
// pending for it are left to decay naturally (they simply never advance).
func (m *Manager) RemovePolicy(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.policies, name)
}

// Start registers a cron schedule (e.g. "@every 30s") that calls Sweep at
// the transaction manager's latest version on each tick, the way the
// teacher's job scheduler drives CRON-scheduled SQL jobs.
func (m *Manager) Start(schedule string) error {
	_, err := m.cron.AddFunc(schedule, func() {
		m.Sweep(m.txm.LatestVersion())
	})
	if err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop halts the cron schedule and waits for any in-flight sweep to finish.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}

// Sweep runs one retention pass at version v, returning any per-scope
// failures. Sweep failures never abort commits; the caller is expected to
// log them and let the next scheduled sweep retry.
func (m *Manager) Sweep(v uint64) map[string]error {
	m.mu.Lock()
	bindings := make([]binding, 0, len(m.policies))
	for _, b := range m.policies {
		bindings = append(bindings, b)
	}
	m.mu.Unlock()

	failures := make(map[string]error)
	for _, b := range bindings {
		if err := m.sweepOne(b, v); err != nil {
			failures[b.scope.Name] = err
		}
	}
	m.advanceDrops(v)
	return failures
}

func (m *Manager) cleanupFloor(v uint64, count int) uint64 {
	floor := uint64(0)
	if v > uint64(count) {
		floor = v - uint64(count)
	}
	if watermark, found := m.txm.MinActiveWatermark(); found && watermark < floor {
		floor = watermark
	}
	return floor
}

func (m *Manager) sweepOne(b binding, v uint64) error {
	kv, ok := b.policy.(KeepVersions)
	if !ok {
		return nil // KeepForever
	}
	floor := m.cleanupFloor(v, kv.Count)

	switch kv.Mode {
	case ModeDelete:
		return m.sweepDelete(b.scope, floor, v)
	case ModeDrop:
		m.sweepMark(b.scope, floor)
		return nil
	default:
		return nil
	}
}

// sweepDelete tombstones, at version v, every key in scope whose newest
// physical version has not changed since floor — logically removing it
// while leaving it CDC-visible as a Delete.
func (m *Manager) sweepDelete(scope Scope, floor, v uint64) error {
	var stale [][]byte
	m.hot.ScanStableAtOrBelow(scope.Start, scope.End, floor, func(key, value []byte) bool {
		stale = append(stale, append([]byte(nil), key...))
		return true
	})
	if len(stale) == 0 {
		return nil
	}

	tx := m.txm.BeginCommand(m.hot, txn.Hooks{})
	for _, k := range stale {
		tx.Remove(k)
	}
	return tx.Commit()
}

// sweepMark records the drop-eligible keys for scope without touching
// HotStore; advanceDrops performs the actual physical removal once it is
// safe to do so.
func (m *Manager) sweepMark(scope Scope, floor uint64) {
	var stable [][]byte
	m.hot.ScanStableAtOrBelow(scope.Start, scope.End, floor, func(key, value []byte) bool {
		stable = append(stable, append([]byte(nil), key...))
		return true
	})
	if len(stable) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]bool, len(m.pending))
	for _, d := range m.pending {
		if d.scopeName == scope.Name {
			existing[string(d.key)] = true
		}
	}
	for _, k := range stable {
		if existing[string(k)] {
			continue
		}
		m.pending = append(m.pending, dropMark{scopeName: scope.Name, key: k, version: floor})
	}
}

// advanceDrops physically removes any pending drop-mark whose scope's
// cleanup floor, recomputed at the current version, has advanced strictly
// past the mark's version. This guarantees no reader at an older watermark
// ever observes the key disappear.
func (m *Manager) advanceDrops(v uint64) {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	policies := make(map[string]binding, len(m.policies))
	for k, b := range m.policies {
		policies[k] = b
	}
	m.mu.Unlock()

	var remaining []dropMark
	for _, d := range pending {
		b, ok := policies[d.scopeName]
		var floor uint64
		if ok {
			if kv, ok2 := b.policy.(KeepVersions); ok2 {
				floor = m.cleanupFloor(v, kv.Count)
			}
		}
		if floor > d.version {
			m.hot.DropAtOrBelow(d.key, d.version)
		} else {
			remaining = append(remaining, d)
		}
	}

	m.mu.Lock()
	m.pending = append(m.pending, remaining...)
	m.mu.Unlock()
}

// PendingDrops returns the number of drop-marks awaiting physical removal,
// for tests and diagnostics.
func (m *Manager) PendingDrops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
