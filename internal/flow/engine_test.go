package flow

import "testing"

type memState struct {
	m map[string][]byte
}

func newMemState() *memState { return &memState{m: make(map[string][]byte)} }

func (s *memState) Get(key []byte) ([]byte, bool) {
	v, ok := s.m[string(key)]
	return v, ok
}
func (s *memState) Set(key, value []byte) { s.m[string(key)] = value }
func (s *memState) Remove(key []byte)     { delete(s.m, string(key)) }

func row(s string) *Row { return &Row{Values: []byte(s)} }

func TestEngineFilterThenSink(t *testing.T) {
	e := NewEngine()
	err := e.Register("f1", []Node{
		{ID: "src", Kind: NodeSourceTable, Source: "orders"},
		{ID: "filt", Kind: NodeFilter, Inputs: []string{"src"}, Filter: func(r *Row) bool {
			return len(r.Values) > 1
		}},
		{ID: "sink", Kind: NodeSink, Inputs: []string{"filt"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	change := FlowChange{Version: 1, Diffs: []Diff{
		{Op: DiffInsert, Post: row("ab")},
		{Op: DiffInsert, Post: row("x")},
	}}
	out, err := e.Process("f1", change, newMemState())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || string(out[0].Post.Values) != "ab" {
		t.Errorf("expected only the 2-char row to survive the filter, got %v", out)
	}
}

func TestEngineMapTransformsRows(t *testing.T) {
	e := NewEngine()
	err := e.Register("f1", []Node{
		{ID: "src", Kind: NodeSourceTable, Source: "orders"},
		{ID: "m", Kind: NodeMap, Inputs: []string{"src"}, Mapper: func(r *Row) *Row {
			return &Row{Values: append(r.Values, '!')}
		}},
		{ID: "sink", Kind: NodeSink, Inputs: []string{"m"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.Process("f1", FlowChange{Version: 1, Diffs: []Diff{{Op: DiffInsert, Post: row("hi")}}}, newMemState())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || string(out[0].Post.Values) != "hi!" {
		t.Errorf("expected mapped row 'hi!', got %v", out)
	}
}

func TestRegisterRejectsCycle(t *testing.T) {
	e := NewEngine()
	err := e.Register("f1", []Node{
		{ID: "a", Kind: NodeFilter, Inputs: []string{"b"}, Filter: func(*Row) bool { return true }},
		{ID: "b", Kind: NodeFilter, Inputs: []string{"a"}, Filter: func(*Row) bool { return true }},
	})
	if err == nil {
		t.Fatal("expected an error registering a cyclic graph")
	}
}

func TestRegisterRejectsUnknownInput(t *testing.T) {
	e := NewEngine()
	err := e.Register("f1", []Node{
		{ID: "sink", Kind: NodeSink, Inputs: []string{"missing"}},
	})
	if err == nil {
		t.Fatal("expected an error for a node referencing an unknown input")
	}
}

func TestProcessUnknownFlowReturnsNotFound(t *testing.T) {
	e := NewEngine()
	_, err := e.Process("nope", FlowChange{}, newMemState())
	if err == nil {
		t.Fatal("expected an error processing an unregistered flow")
	}
}

type countingOperator struct{ calls int }

func (c *countingOperator) Apply(state StateStore, diff Diff) []Diff {
	c.calls++
	key := []byte("calls")
	v, _ := state.Get(key)
	n := len(v) // just to exercise state access
	_ = n
	state.Set(key, []byte{byte(c.calls)})
	return []Diff{diff}
}

func TestOperatorNodeGetsScopedState(t *testing.T) {
	e := NewEngine()
	op := &countingOperator{}
	err := e.Register("f1", []Node{
		{ID: "src", Kind: NodeSourceTable, Source: "orders"},
		{ID: "op", Kind: NodeDistinct, Inputs: []string{"src"}, Operator: op},
		{ID: "sink", Kind: NodeSink, Inputs: []string{"op"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	state := newMemState()
	_, err = e.Process("f1", FlowChange{Version: 1, Diffs: []Diff{{Op: DiffInsert, Post: row("a")}}}, state)
	if err != nil {
		t.Fatal(err)
	}
	if op.calls != 1 {
		t.Errorf("expected the operator to be invoked once, got %d", op.calls)
	}
	// State should be stored under a key scoped to (flow, node), not a bare "calls".
	if _, ok := state.Get([]byte("calls")); ok {
		t.Error("expected operator state to be scoped, not stored under its raw key")
	}
}
