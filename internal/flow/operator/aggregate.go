package operator

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/reifydb/reifydb/internal/flow"
)

// AggKind selects which aggregate an Aggregate operator computes.
type AggKind uint8

const (
	AggSum AggKind = iota
	AggCount
	AggAvg
	AggMin
	AggMax
)

// ValueFn extracts the numeric value being aggregated from a row.
type ValueFn func(r *flow.Row) float64

// Aggregate implements spec.md §4.14's incremental aggregates: per-group
// state keyed by the grouping tuple's hash, updated by every incoming diff
// and emitting an Update diff from the previous aggregate row to the new
// one. Min/Max keep the full multiset of current values so a removal can
// recompute the extremum without rescanning the source.
type Aggregate struct {
	GroupKey KeyFn
	Value    ValueFn
	Kind     AggKind
}

// aggState is the per-group multiset; count and sum are computed from it on
// demand rather than stored. Keeping every value means Min/Max
// survive arbitrary removals (spec.md §4.14: "auxiliary multisets to
// tolerate removals").
type aggState struct {
	values []float64 // sorted ascending
}

func encodeAggState(s aggState) []byte {
	buf := make([]byte, 4+8*len(s.values))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(s.values)))
	for i, v := range s.values {
		binary.BigEndian.PutUint64(buf[4+i*8:4+i*8+8], math.Float64bits(v))
	}
	return buf
}

func decodeAggState(data []byte) (aggState, bool) {
	if len(data) < 4 {
		return aggState{}, false
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	values := make([]float64, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(data) < 8 {
			break
		}
		values = append(values, math.Float64frombits(binary.BigEndian.Uint64(data[:8])))
		data = data[8:]
	}
	return aggState{values: values}, true
}

func insertSorted(values []float64, v float64) []float64 {
	i := sort.SearchFloat64s(values, v)
	values = append(values, 0)
	copy(values[i+1:], values[i:])
	values[i] = v
	return values
}

func removeSorted(values []float64, v float64) []float64 {
	i := sort.SearchFloat64s(values, v)
	if i < len(values) && values[i] == v {
		return append(values[:i], values[i+1:]...)
	}
	return values
}

func (a *Aggregate) compute(s aggState) (result float64, ok bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	switch a.Kind {
	case AggCount:
		return float64(len(s.values)), true
	case AggSum:
		var sum float64
		for _, v := range s.values {
			sum += v
		}
		return sum, true
	case AggAvg:
		var sum float64
		for _, v := range s.values {
			sum += v
		}
		return sum / float64(len(s.values)), true
	case AggMin:
		return s.values[0], true
	case AggMax:
		return s.values[len(s.values)-1], true
	}
	return 0, false
}

func encodeAggRow(groupKey []byte, result float64) []byte {
	buf := make([]byte, 4+len(groupKey)+8)
	binary.BigEndian.PutUint32(buf[:4], uint32(len(groupKey)))
	copy(buf[4:], groupKey)
	binary.BigEndian.PutUint64(buf[4+len(groupKey):], math.Float64bits(result))
	return buf
}

// Apply implements flow.Operator.
func (a *Aggregate) Apply(state flow.StateStore, diff flow.Diff) []flow.Diff {
	switch diff.Op {
	case flow.DiffInsert:
		return a.update(state, diff.Post, true)
	case flow.DiffRemove:
		return a.update(state, diff.Pre, false)
	case flow.DiffUpdate:
		preKey, preOK := a.GroupKey(diff.Pre)
		postKey, postOK := a.GroupKey(diff.Post)
		if preOK && postOK && string(preKey) == string(postKey) {
			var out []flow.Diff
			out = append(out, a.mutateGroup(state, preKey, func(s aggState) aggState {
				s.values = removeSorted(s.values, a.Value(diff.Pre))
				s.values = insertSorted(s.values, a.Value(diff.Post))
				return s
			})...)
			return out
		}
		var out []flow.Diff
		out = append(out, a.update(state, diff.Pre, false)...)
		out = append(out, a.update(state, diff.Post, true)...)
		return out
	}
	return nil
}

func (a *Aggregate) update(state flow.StateStore, row *flow.Row, add bool) []flow.Diff {
	key, ok := a.GroupKey(row)
	if !ok {
		return nil
	}
	v := a.Value(row)
	return a.mutateGroup(state, key, func(s aggState) aggState {
		if add {
			s.values = insertSorted(s.values, v)
		} else {
			s.values = removeSorted(s.values, v)
		}
		return s
	})
}

// mutateGroup loads the group's current state, computes the previous
// aggregate result, applies mutate, computes the new result, and emits the
// Insert/Update/Remove diff implied by the before/after transition.
func (a *Aggregate) mutateGroup(state flow.StateStore, key []byte, mutate func(aggState) aggState) []flow.Diff {
	before, found := decodeAggState(rawGet(state, key))
	if !found {
		before = aggState{}
	}
	prevResult, prevOK := a.compute(before)

	after := mutate(before)
	newResult, newOK := a.compute(after)

	if len(after.values) == 0 {
		state.Remove(key)
	} else {
		state.Set(key, encodeAggState(after))
	}

	switch {
	case !prevOK && newOK:
		return []flow.Diff{{Op: flow.DiffInsert, Post: &flow.Row{Values: encodeAggRow(key, newResult)}}}
	case prevOK && !newOK:
		return []flow.Diff{{Op: flow.DiffRemove, Pre: &flow.Row{Values: encodeAggRow(key, prevResult)}}}
	case prevOK && newOK:
		if prevResult == newResult {
			return nil
		}
		return []flow.Diff{{Op: flow.DiffUpdate,
			Pre:  &flow.Row{Values: encodeAggRow(key, prevResult)},
			Post: &flow.Row{Values: encodeAggRow(key, newResult)},
		}}
	}
	return nil
}
