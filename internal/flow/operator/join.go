// Package operator implements the stateful flow.Operator kinds: Join,
// Distinct, and Aggregate, grounded on spec.md §4.13/§4.14 and
// original_source's equivalent Rust operators.
package operator

import (
	"bytes"
	"encoding/binary"

	"github.com/reifydb/reifydb/internal/flow"
)

// KeyFn computes a row's join/group key. ok is false for an Undefined key,
// which per spec.md §4.13 never joins to anything.
type KeyFn func(r *flow.Row) (key []byte, ok bool)

// JoinMode selects inner or left-outer semantics.
type JoinMode uint8

const (
	JoinInner JoinMode = iota
	JoinLeft
)

// Join implements spec.md §4.13's two-sided hash join, grounded line-for-
// line in control flow on original_source's left-join strategy: own-side
// state is a key -> row-list map; an insert on one side joins against
// every row currently stored for that key on the other side. A left join
// also emits a left row with no right-side match as "unmatched" and
// retracts that emission once a right-side match appears; whether a key is
// unmatched is read from the right side's stored rows, not kept separately.
type Join struct {
	Mode       JoinMode
	LeftInput  string // node id of the left upstream input
	RightInput string
	LeftKey    KeyFn
	RightKey   KeyFn
}

const (
	sideLeft  = "L"
	sideRight = "R"
)

// rowList is the per-key state stored for one side: a length-prefixed list
// of serialized rows, in insertion order (spec.md §4.13's "left-iter x
// right-iter insertion order" determinism requirement).
type rowList [][]byte

func encodeRowList(rows rowList) []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(rows)))
	buf.Write(lenBuf[:])
	for _, r := range rows {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(r)))
		buf.Write(lenBuf[:])
		buf.Write(r)
	}
	return buf.Bytes()
}

func decodeRowList(data []byte) rowList {
	if len(data) < 4 {
		return nil
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	rows := make(rowList, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(data) < 4 {
			break
		}
		l := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		rows = append(rows, data[:l])
		data = data[l:]
	}
	return rows
}

func appendRow(rows rowList, row []byte) rowList {
	cp := make([]byte, len(row))
	copy(cp, row)
	return append(rows, cp)
}

func removeRow(rows rowList, row []byte) rowList {
	for i, r := range rows {
		if bytes.Equal(r, row) {
			out := make(rowList, 0, len(rows)-1)
			out = append(out, rows[:i]...)
			out = append(out, rows[i+1:]...)
			return out
		}
	}
	return rows
}

func ownKey(side string, key []byte) []byte { return append([]byte(side+":"), key...) }

// unmatchedKey builds a "U:"-prefixed per-key state key. Join does not
// read or write it: unmatched left rows are recognised by the
// absence of stored right-side rows for their key.
func unmatchedKey(key []byte) []byte { return append([]byte("U:"), key...) }

func (j *Join) loadSide(state flow.StateStore, side string, key []byte) rowList {
	v, ok := state.Get(ownKey(side, key))
	if !ok {
		return nil
	}
	return decodeRowList(v)
}

func (j *Join) saveSide(state flow.StateStore, side string, key []byte, rows rowList) {
	if len(rows) == 0 {
		state.Remove(ownKey(side, key))
		return
	}
	state.Set(ownKey(side, key), encodeRowList(rows))
}

func joinedRow(left, right []byte) *flow.Row {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(left)))
	buf.Write(lenBuf[:])
	buf.Write(left)
	buf.Write(right)
	return &flow.Row{Values: buf.Bytes()}
}

// Apply implements flow.Operator.
func (j *Join) Apply(state flow.StateStore, diff flow.Diff) []flow.Diff {
	var side string
	var keyFn, otherKeyFn KeyFn
	switch diff.Origin {
	case j.LeftInput:
		side, keyFn, otherKeyFn = sideLeft, j.LeftKey, j.RightKey
	case j.RightInput:
		side, keyFn, otherKeyFn = sideRight, j.RightKey, j.LeftKey
	default:
		return nil
	}
	otherSide := sideRight
	if side == sideRight {
		otherSide = sideLeft
	}

	switch diff.Op {
	case flow.DiffInsert:
		return j.applyInsert(state, side, otherSide, keyFn, otherKeyFn, diff.Post)
	case flow.DiffRemove:
		return j.applyRemove(state, side, otherSide, keyFn, otherKeyFn, diff.Pre)
	case flow.DiffUpdate:
		preKey, preOK := keyFn(diff.Pre)
		postKey, postOK := keyFn(diff.Post)
		if preOK && postOK && bytes.Equal(preKey, postKey) {
			return j.applyUpdateSameKey(state, side, otherSide, otherKeyFn, diff.Pre, diff.Post, postKey)
		}
		var out []flow.Diff
		out = append(out, j.applyRemove(state, side, otherSide, keyFn, otherKeyFn, diff.Pre)...)
		out = append(out, j.applyInsert(state, side, otherSide, keyFn, otherKeyFn, diff.Post)...)
		return out
	}
	return nil
}

func (j *Join) applyInsert(state flow.StateStore, side, otherSide string, keyFn, otherKeyFn KeyFn, row *flow.Row) []flow.Diff {
	key, ok := keyFn(row)
	if !ok {
		return nil
	}
	rows := j.loadSide(state, side, key)
	wasEmpty := len(rows) == 0
	rows = appendRow(rows, row.Values)
	j.saveSide(state, side, key, rows)

	others := j.loadSide(state, otherSide, key)

	var out []flow.Diff
	if j.Mode == JoinLeft && side == sideLeft {
		if len(others) == 0 {
			out = append(out, flow.Diff{Op: flow.DiffInsert, Post: &flow.Row{Values: row.Values}})
			return out
		}
	}
	if j.Mode == JoinLeft && side == sideRight && wasEmpty && len(others) > 0 {
		// First right row for this key: retract every left row's
		// previously emitted unmatched form, then re-emit matched pairs.
		for _, l := range others {
			out = append(out, flow.Diff{Op: flow.DiffRemove, Pre: &flow.Row{Values: l}})
		}
	}

	if side == sideLeft {
		for _, r := range others {
			out = append(out, flow.Diff{Op: flow.DiffInsert, Post: joinedRow(row.Values, r)})
		}
	} else {
		for _, l := range others {
			out = append(out, flow.Diff{Op: flow.DiffInsert, Post: joinedRow(l, row.Values)})
		}
	}
	return out
}

func (j *Join) applyRemove(state flow.StateStore, side, otherSide string, keyFn, otherKeyFn KeyFn, row *flow.Row) []flow.Diff {
	key, ok := keyFn(row)
	if !ok {
		return nil
	}
	rows := j.loadSide(state, side, key)
	rows = removeRow(rows, row.Values)
	j.saveSide(state, side, key, rows)

	others := j.loadSide(state, otherSide, key)

	var out []flow.Diff
	if j.Mode == JoinLeft && side == sideLeft {
		if len(others) == 0 {
			out = append(out, flow.Diff{Op: flow.DiffRemove, Pre: &flow.Row{Values: row.Values}})
			return out
		}
	}

	if side == sideLeft {
		for _, r := range others {
			out = append(out, flow.Diff{Op: flow.DiffRemove, Pre: joinedRow(row.Values, r)})
		}
	} else {
		for _, l := range others {
			out = append(out, flow.Diff{Op: flow.DiffRemove, Pre: joinedRow(l, row.Values)})
		}
		if j.Mode == JoinLeft && len(rows) == 0 {
			// Removed the last right row for this key: every left row
			// becomes unmatched again.
			left := j.loadSide(state, sideLeft, key)
			for _, l := range left {
				out = append(out, flow.Diff{Op: flow.DiffInsert, Post: &flow.Row{Values: l}})
			}
		}
	}
	return out
}

func (j *Join) applyUpdateSameKey(state flow.StateStore, side, otherSide string, otherKeyFn KeyFn, pre, post *flow.Row, key []byte) []flow.Diff {
	rows := j.loadSide(state, side, key)
	rows = removeRow(rows, pre.Values)
	rows = appendRow(rows, post.Values)
	j.saveSide(state, side, key, rows)

	others := j.loadSide(state, otherSide, key)
	var out []flow.Diff
	if side == sideLeft {
		if len(others) == 0 {
			if j.Mode == JoinLeft {
				out = append(out, flow.Diff{Op: flow.DiffUpdate, Pre: &flow.Row{Values: pre.Values}, Post: &flow.Row{Values: post.Values}})
			}
			return out
		}
		for _, r := range others {
			out = append(out, flow.Diff{Op: flow.DiffUpdate, Pre: joinedRow(pre.Values, r), Post: joinedRow(post.Values, r)})
		}
	} else {
		for _, l := range others {
			out = append(out, flow.Diff{Op: flow.DiffUpdate, Pre: joinedRow(l, pre.Values), Post: joinedRow(l, post.Values)})
		}
	}
	return out
}
