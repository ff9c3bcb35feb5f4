package operator

import (
	"testing"

	"github.com/reifydb/reifydb/internal/flow"
)

func identityHash(r *flow.Row) ([]byte, bool) {
	if r == nil {
		return nil, false
	}
	return r.Values, true
}

func row(s string) *flow.Row { return &flow.Row{Values: []byte(s)} }

func TestDistinctFirstInsertEmits(t *testing.T) {
	d := &Distinct{Hash: identityHash}
	state := newMemState()

	out := d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	if len(out) != 1 || out[0].Op != flow.DiffInsert {
		t.Fatalf("expected the first insert to emit, got %v", out)
	}
}

func TestDistinctSubsequentInsertSuppressed(t *testing.T) {
	d := &Distinct{Hash: identityHash}
	state := newMemState()

	d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	out := d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	if len(out) != 0 {
		t.Errorf("expected a duplicate insert to be suppressed, got %v", out)
	}
}

func TestDistinctRemoveOnlyEmitsAtZero(t *testing.T) {
	d := &Distinct{Hash: identityHash}
	state := newMemState()

	d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})

	out := d.Apply(state, flow.Diff{Op: flow.DiffRemove, Pre: row("a")})
	if len(out) != 0 {
		t.Errorf("expected refcount 1 to suppress the retraction, got %v", out)
	}

	out = d.Apply(state, flow.Diff{Op: flow.DiffRemove, Pre: row("a")})
	if len(out) != 1 || out[0].Op != flow.DiffRemove {
		t.Fatalf("expected the last remove to emit a retraction, got %v", out)
	}
}

func TestDistinctUpdateWithIdenticalHashIsNoOp(t *testing.T) {
	d := &Distinct{Hash: func(r *flow.Row) ([]byte, bool) { return []byte("samekey"), true }}
	state := newMemState()

	d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	out := d.Apply(state, flow.Diff{Op: flow.DiffUpdate, Pre: row("a"), Post: row("b")})
	if len(out) != 0 {
		t.Errorf("expected identical-hash update to short-circuit, got %v", out)
	}
}

func TestDistinctUpdateWithChangedHashRemovesThenInserts(t *testing.T) {
	d := &Distinct{Hash: identityHash}
	state := newMemState()

	d.Apply(state, flow.Diff{Op: flow.DiffInsert, Post: row("a")})
	out := d.Apply(state, flow.Diff{Op: flow.DiffUpdate, Pre: row("a"), Post: row("b")})
	if len(out) != 2 || out[0].Op != flow.DiffRemove || out[1].Op != flow.DiffInsert {
		t.Fatalf("expected remove-then-insert for a changed hash, got %v", out)
	}
}
