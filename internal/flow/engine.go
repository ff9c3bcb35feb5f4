package flow

import (
	"fmt"
	"sort"

	"github.com/reifydb/reifydb/internal/errs"
	"github.com/reifydb/reifydb/internal/keycode"
)

// Flow is one registered flow graph: a DAG of Node keyed by ID, with edges
// implied by each node's Inputs list.
type Flow struct {
	ID    string
	nodes map[string]Node
	order []string // topologically sorted node ids, computed once at registration
}

// Engine holds every registered Flow and drives FlowChange processing
// through each one's node graph, per spec.md §4.11.
type Engine struct {
	flows map[string]*Flow
}

func NewEngine() *Engine {
	return &Engine{flows: make(map[string]*Flow)}
}

// Register validates nodes, topologically orders them, and adds the flow
// to the engine. Returns an error if the graph is invalid or cyclic.
func (e *Engine) Register(flowID string, nodes []Node) error {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if err := n.validate(); err != nil {
			return err
		}
		if _, dup := byID[n.ID]; dup {
			return errs.New(errs.InvalidData, "FLOW_010", fmt.Sprintf("duplicate node id %q in flow %q", n.ID, flowID))
		}
		byID[n.ID] = n
	}
	for _, n := range nodes {
		for _, in := range n.Inputs {
			if _, ok := byID[in]; !ok {
				return errs.New(errs.InvalidData, "FLOW_011", fmt.Sprintf("node %q references unknown input %q", n.ID, in))
			}
		}
	}

	order, err := topoSort(byID)
	if err != nil {
		return err
	}

	e.flows[flowID] = &Flow{ID: flowID, nodes: byID, order: order}
	return nil
}

// Unregister removes a flow from the engine.
func (e *Engine) Unregister(flowID string) {
	delete(e.flows, flowID)
}

func topoSort(nodes map[string]Node) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))

	// Deterministic traversal order: sort node ids rather than range over
	// the map, so the resulting topological order is stable across runs.
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var order []string
	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return errs.New(errs.InvalidData, "FLOW_012", fmt.Sprintf("cycle detected at node %q", id))
		}
		color[id] = gray
		ins := append([]string(nil), nodes[id].Inputs...)
		sort.Strings(ins)
		for _, in := range ins {
			if err := visit(in); err != nil {
				return err
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// scopedState prefixes every key with (flow id, node id) via
// keycode.KindFlowNodeState, so operators never need to know about other
// nodes' state and two nodes can never collide on a key, per spec.md §4.11
// ("operator-scoped keys").
type scopedState struct {
	base           StateStore
	flowID, nodeID string
}

func newScopedState(base StateStore, flowID, nodeID string) *scopedState {
	return &scopedState{base: base, flowID: flowID, nodeID: nodeID}
}

func (s *scopedState) scopedKey(key []byte) []byte {
	return keycode.NewKey(keycode.KindFlowNodeState, []byte(s.flowID), []byte(s.nodeID), key)
}

func (s *scopedState) Get(key []byte) ([]byte, bool) { return s.base.Get(s.scopedKey(key)) }
func (s *scopedState) Set(key, value []byte)         { s.base.Set(s.scopedKey(key), value) }
func (s *scopedState) Remove(key []byte)             { s.base.Remove(s.scopedKey(key)) }

// Process runs change through flowID's node graph in topological order. The
// diffs a Source* node contributes are change.Diffs as-is (the coordinator
// has already filtered them down to this flow's sources before calling
// Process); every other node consumes the concatenated outputs of its
// Inputs. The Sink node's output is returned to the caller.
func (e *Engine) Process(flowID string, change FlowChange, state StateStore) ([]Diff, error) {
	f, ok := e.flows[flowID]
	if !ok {
		return nil, errs.New(errs.NotFound, "FLOW_020", fmt.Sprintf("unknown flow %q", flowID))
	}

	outputs := make(map[string][]Diff, len(f.nodes))
	var sinkOutput []Diff

	for _, id := range f.order {
		n := f.nodes[id]
		var in []Diff
		for _, up := range n.Inputs {
			in = append(in, outputs[up]...)
		}

		switch n.Kind {
		case NodeSourceTable, NodeSourceView, NodeSourceFlow:
			outputs[id] = stampOrigin(change.Diffs, id)
		case NodeFilter:
			outputs[id] = stampOrigin(applyFilter(n.Filter, in), id)
		case NodeMap:
			outputs[id] = stampOrigin(applyMap(n.Mapper, in), id)
		case NodeProject:
			outputs[id] = stampOrigin(applyMap(MapFunc(n.Projector), in), id)
		case NodeDistinct, NodeAggregate, NodeJoin:
			ns := newScopedState(state, flowID, id)
			var out []Diff
			for _, d := range in {
				out = append(out, n.Operator.Apply(ns, d)...)
			}
			outputs[id] = stampOrigin(out, id)
		case NodeSink:
			outputs[id] = in
			sinkOutput = append(sinkOutput, in...)
		}
	}

	return sinkOutput, nil
}

// stampOrigin returns a copy of diffs with Origin set to id, so the next
// node downstream can tell which upstream node produced each diff (needed
// by multi-input operators like Join).
func stampOrigin(diffs []Diff, id string) []Diff {
	out := make([]Diff, len(diffs))
	for i, d := range diffs {
		d.Origin = id
		out[i] = d
	}
	return out
}

func applyFilter(f FilterFunc, in []Diff) []Diff {
	var out []Diff
	for _, d := range in {
		if d.Post != nil && !f(d.Post) {
			continue
		}
		if d.Post == nil && d.Pre != nil && !f(d.Pre) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func applyMap(m MapFunc, in []Diff) []Diff {
	out := make([]Diff, len(in))
	for i, d := range in {
		nd := d
		if d.Pre != nil {
			nd.Pre = m(d.Pre)
		}
		if d.Post != nil {
			nd.Post = m(d.Post)
		}
		out[i] = nd
	}
	return out
}
