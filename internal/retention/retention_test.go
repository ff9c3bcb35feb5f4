package retention

import (
	"testing"

	"github.com/reifydb/reifydb/internal/store"
	"github.com/reifydb/reifydb/internal/txn"
)

func newTestRig(t *testing.T) (*Manager, *store.HotStore, *txn.Manager) {
	t.Helper()
	hot := store.New()
	tm, err := txn.NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(hot, tm), hot, tm
}

func seedKey(t *testing.T, tm *txn.Manager, hot *store.HotStore, key, value string) {
	t.Helper()
	tx := tm.BeginCommand(hot, txn.Hooks{})
	tx.Set([]byte(key), []byte(value))
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestKeepForeverNeverRemovesAnything(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")
	m.SetPolicy(Scope{Name: "s"}, KeepForever{})

	for i := 0; i < 5; i++ {
		m.Sweep(tm.LatestVersion())
	}

	q := tm.BeginQuery(hot)
	defer q.Close()
	if _, ok := q.Get([]byte("k")); !ok {
		t.Error("KeepForever must never remove a key")
	}
}

func TestDeleteModeTombstonesStaleKeys(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")
	m.SetPolicy(Scope{Name: "s"}, KeepVersions{Count: 0, Mode: ModeDelete})

	m.Sweep(tm.LatestVersion())

	q := tm.BeginQuery(hot)
	defer q.Close()
	if _, ok := q.Get([]byte("k")); ok {
		t.Error("expected stale key to be tombstoned by delete-mode retention")
	}
}

func TestDeleteModeSkipsRecentlyWrittenKeys(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")
	m.SetPolicy(Scope{Name: "s"}, KeepVersions{Count: 1000, Mode: ModeDelete})

	m.Sweep(tm.LatestVersion())

	q := tm.BeginQuery(hot)
	defer q.Close()
	if _, ok := q.Get([]byte("k")); !ok {
		t.Error("expected a recently written key to survive a high-count retention policy")
	}
}

func TestDropModeDoesNotRemoveWhileReaderIsActive(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")

	// An active reader at the seed version must block the drop from
	// ever becoming physically safe.
	q := tm.BeginQuery(hot)
	defer q.Close()

	m.SetPolicy(Scope{Name: "s"}, KeepVersions{Count: 0, Mode: ModeDrop})
	m.Sweep(tm.LatestVersion())
	m.Sweep(tm.LatestVersion())

	if hot.KeyCount() == 0 {
		t.Error("drop-mode retention must not physically remove a version an active reader still needs")
	}
	if m.PendingDrops() == 0 {
		t.Error("expected the stale key to be marked pending while a reader is active")
	}
}

func TestDropModeRemovesOnceNoReaderIsActive(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")
	// Scope restricted to "k" so the second commit below ("other") is
	// never itself swept, keeping this test focused on one key's drop.
	m.SetPolicy(Scope{Name: "s", Start: []byte("k"), End: []byte("l")}, KeepVersions{Count: 0, Mode: ModeDrop})

	// First sweep marks the key eligible.
	m.Sweep(tm.LatestVersion())
	if m.PendingDrops() == 0 {
		t.Fatal("expected key to be marked pending on first sweep")
	}

	// Advance the version so the floor moves strictly past the mark,
	// with no active readers holding it back.
	seedKey(t, tm, hot, "other", "v1")
	m.Sweep(tm.LatestVersion())

	if m.PendingDrops() != 0 {
		t.Error("expected the pending drop to clear once it became safe")
	}
}

func TestRemovePolicyStopsFurtherCleanup(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "k", "v1")
	m.SetPolicy(Scope{Name: "s"}, KeepVersions{Count: 0, Mode: ModeDelete})
	m.RemovePolicy("s")

	m.Sweep(tm.LatestVersion())

	q := tm.BeginQuery(hot)
	defer q.Close()
	if _, ok := q.Get([]byte("k")); !ok {
		t.Error("removing the policy before any sweep ran must leave the key untouched")
	}
}

func TestScopeRestrictsWhichKeysAreSwept(t *testing.T) {
	m, hot, tm := newTestRig(t)
	seedKey(t, tm, hot, "a1", "v1")
	seedKey(t, tm, hot, "b1", "v1")
	m.SetPolicy(Scope{Name: "a-only", Start: []byte("a"), End: []byte("b")}, KeepVersions{Count: 0, Mode: ModeDelete})

	m.Sweep(tm.LatestVersion())

	q := tm.BeginQuery(hot)
	defer q.Close()
	if _, ok := q.Get([]byte("a1")); ok {
		t.Error("expected a1 to be cleaned up by its scope's policy")
	}
	if _, ok := q.Get([]byte("b1")); !ok {
		t.Error("expected b1 to survive since it is outside the policy's scope")
	}
}
