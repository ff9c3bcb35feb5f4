package txn

import "testing"

func TestQueryTransactionReadsCommittedSnapshot(t *testing.T) {
	m, hot := newTestManager(t)
	tx := m.BeginCommand(hot, Hooks{})
	tx.Set([]byte("k"), []byte("v1"))
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	q := m.BeginQuery(hot)
	defer q.Close()
	v, ok := q.Get([]byte("k"))
	if !ok || string(v) != "v1" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
}

func TestQueryTransactionRegistersAndDeregistersWatermark(t *testing.T) {
	m, hot := newTestManager(t)
	q := m.BeginQuery(hot)
	if v, found := m.MinActiveWatermark(); !found || v != q.Version() {
		t.Fatalf("expected watermark %d to be active, got %d found=%v", q.Version(), v, found)
	}
	q.Close()
	if _, found := m.MinActiveWatermark(); found {
		t.Fatal("expected watermark to be released after Close")
	}
}

func TestQueryTransactionCloseIsIdempotent(t *testing.T) {
	m, hot := newTestManager(t)
	q := m.BeginQuery(hot)
	q.Close()
	q.Close() // must not panic or double-decrement the watermark refcount
}

func TestQueryTransactionScanRange(t *testing.T) {
	m, hot := newTestManager(t)
	tx := m.BeginCommand(hot, Hooks{})
	tx.Set([]byte("a"), []byte("1"))
	tx.Set([]byte("b"), []byte("2"))
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	q := m.BeginQuery(hot)
	defer q.Close()
	var keys []string
	q.ScanRange(nil, nil, func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected [a b], got %v", keys)
	}
}
