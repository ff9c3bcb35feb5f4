package catalog

import "sync"

// Op classifies a Change recorded against a catalog object within a single
// transaction.
type Op uint8

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

// NameKey identifies an object by its human-visible name within a parent
// scope (e.g. a table name within a namespace).
type NameKey struct {
	ParentScope string
	Name        string
}

// Change is one catalog mutation staged by a transaction: a before/after
// pair plus the operation that produced it. Pre is nil for OpCreate, Post
// is nil for OpDelete.
type Change struct {
	Kind        Kind
	ID          ID
	ParentScope string
	Name        string
	Pre         Def
	Post        Def
	Op          Op
}

type changeKey struct {
	kind Kind
	id   ID
}

// TransactionalChanges is the per-transaction overlay consulted before the
// MaterializedCatalog: an ordered, per-id "latest wins" record of every
// catalog mutation staged so far, plus a deletion tombstone set keyed by
// name so a transaction that deletes an object never resolves its old name
// back to the MaterializedCatalog's last-known binding.
type TransactionalChanges struct {
	mu sync.Mutex

	latest map[Kind]map[ID]Change
	order  []changeKey

	nameBindings map[Kind]map[NameKey]ID
	deletedNames map[Kind]map[NameKey]bool
}

func NewTransactionalChanges() *TransactionalChanges {
	return &TransactionalChanges{
		latest:       make(map[Kind]map[ID]Change),
		nameBindings: make(map[Kind]map[NameKey]ID),
		deletedNames: make(map[Kind]map[NameKey]bool),
	}
}

// Record stages ch, overwriting any earlier change this transaction made to
// the same id. Later Record calls for the same id fully supersede earlier
// ones: only the net effect is ever applied at commit.
func (t *TransactionalChanges) Record(ch Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest[ch.Kind] == nil {
		t.latest[ch.Kind] = make(map[ID]Change)
	}
	k := changeKey{ch.Kind, ch.ID}
	prev, exists := t.latest[ch.Kind][ch.ID]
	if !exists {
		t.order = append(t.order, k)
	}
	t.latest[ch.Kind][ch.ID] = ch

	if t.nameBindings[ch.Kind] == nil {
		t.nameBindings[ch.Kind] = make(map[NameKey]ID)
	}
	if t.deletedNames[ch.Kind] == nil {
		t.deletedNames[ch.Kind] = make(map[NameKey]bool)
	}
	nk := NameKey{ch.ParentScope, ch.Name}
	if exists {
		pk := NameKey{prev.ParentScope, prev.Name}
		if pk != nk && t.nameBindings[ch.Kind][pk] == ch.ID {
			delete(t.nameBindings[ch.Kind], pk)
		}
	}
	if ch.Op == OpDelete {
		delete(t.nameBindings[ch.Kind], nk)
		t.deletedNames[ch.Kind][nk] = true
	} else {
		t.nameBindings[ch.Kind][nk] = ch.ID
		delete(t.deletedNames[ch.Kind], nk)
	}
}

// LatestChange returns the most recent Change this transaction staged for
// id, if any.
func (t *TransactionalChanges) LatestChange(kind Kind, id ID) (Change, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.latest[kind][id]
	return ch, ok
}

// LookupName resolves a name binding staged by this transaction. deleted
// reports that the transaction deleted whatever previously held this name,
// which must shadow the MaterializedCatalog regardless of bound/id.
func (t *TransactionalChanges) LookupName(kind Kind, parentScope, name string) (id ID, bound bool, deleted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	nk := NameKey{parentScope, name}
	if t.deletedNames[kind][nk] {
		return "", false, true
	}
	id, bound = t.nameBindings[kind][nk]
	return id, bound, false
}

// OrderedChanges returns every staged change in first-touch order, for
// MaterializedCatalog.ApplyCommit to replay at commit time.
func (t *TransactionalChanges) OrderedChanges() []Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Change, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.latest[k.kind][k.id])
	}
	return out
}
