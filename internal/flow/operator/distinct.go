package operator

import (
	"bytes"
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/flow"
)

// Distinct implements spec.md §4.14's refcounted distinct operator,
// grounded on original_source's distinct.rs: state maps a row's hash to
// {count, canonical row bytes}. The first insert for a hash emits; later
// inserts only bump the refcount. A remove decrements the count and emits
// a retraction once it reaches zero.
type Distinct struct {
	Hash KeyFn
}

type distinctState struct {
	count     uint64
	canonical []byte
}

func encodeDistinctState(s distinctState) []byte {
	buf := make([]byte, 8+len(s.canonical))
	binary.BigEndian.PutUint64(buf[:8], s.count)
	copy(buf[8:], s.canonical)
	return buf
}

func decodeDistinctState(data []byte) (distinctState, bool) {
	if len(data) < 8 {
		return distinctState{}, false
	}
	return distinctState{count: binary.BigEndian.Uint64(data[:8]), canonical: data[8:]}, true
}

// Apply implements flow.Operator.
func (d *Distinct) Apply(state flow.StateStore, diff flow.Diff) []flow.Diff {
	switch diff.Op {
	case flow.DiffInsert:
		return d.insert(state, diff.Post)
	case flow.DiffRemove:
		return d.remove(state, diff.Pre)
	case flow.DiffUpdate:
		preHash, preOK := d.Hash(diff.Pre)
		postHash, postOK := d.Hash(diff.Post)
		if preOK && postOK && bytes.Equal(preHash, postHash) {
			// Short-circuit: distinct collapses to the same key, the
			// underlying row identity for this operator hasn't changed.
			return nil
		}
		var out []flow.Diff
		out = append(out, d.remove(state, diff.Pre)...)
		out = append(out, d.insert(state, diff.Post)...)
		return out
	}
	return nil
}

func (d *Distinct) insert(state flow.StateStore, row *flow.Row) []flow.Diff {
	key, ok := d.Hash(row)
	if !ok {
		return nil
	}
	existing, found := decodeDistinctState(rawGet(state, key))
	if !found {
		existing = distinctState{count: 0, canonical: row.Values}
	}
	existing.count++
	state.Set(key, encodeDistinctState(existing))
	if existing.count == 1 {
		return []flow.Diff{{Op: flow.DiffInsert, Post: &flow.Row{Values: existing.canonical}}}
	}
	return nil
}

func (d *Distinct) remove(state flow.StateStore, row *flow.Row) []flow.Diff {
	key, ok := d.Hash(row)
	if !ok {
		return nil
	}
	existing, found := decodeDistinctState(rawGet(state, key))
	if !found || existing.count == 0 {
		return nil
	}
	existing.count--
	if existing.count == 0 {
		state.Remove(key)
		return []flow.Diff{{Op: flow.DiffRemove, Pre: &flow.Row{Values: existing.canonical}}}
	}
	state.Set(key, encodeDistinctState(existing))
	return nil
}

func rawGet(state flow.StateStore, key []byte) []byte {
	v, _ := state.Get(key)
	return v
}
