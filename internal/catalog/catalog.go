// Package catalog implements the MaterializedCatalog: the versioned store
// of schema objects (namespaces, tables, views, flows, ring buffers,
// dictionaries, primary keys, retention policies, subscriptions, and
// virtual tables) that both CommandTransaction and QueryTransaction resolve
// against, per spec.md §4.9.
package catalog

import "sync"

// MaterializedCatalog holds every catalog object's full version history,
// indexed both by id (by_id) and by (parent scope, name) (by_name).
type MaterializedCatalog struct {
	mu     sync.RWMutex
	byID   map[Kind]map[ID]*MultiVersionContainer
	byName map[Kind]map[NameKey]ID
}

func NewMaterializedCatalog() *MaterializedCatalog {
	m := &MaterializedCatalog{
		byID:   make(map[Kind]map[ID]*MultiVersionContainer),
		byName: make(map[Kind]map[NameKey]ID),
	}
	for _, k := range allKinds {
		m.byID[k] = make(map[ID]*MultiVersionContainer)
		m.byName[k] = make(map[NameKey]ID)
	}
	return m
}

func (m *MaterializedCatalog) containerFor(kind Kind, id ID) *MultiVersionContainer {
	c, ok := m.byID[kind][id]
	if !ok {
		c = newContainer()
		m.byID[kind][id] = c
	}
	return c
}

// ApplyCommit is the commit-time hook: it replays a transaction's staged
// Change list into the materialized catalog at commitVersion. Called once,
// inside the same commit that advances the MVCC store, so the catalog and
// the store never observe a commit at different versions.
func (m *MaterializedCatalog) ApplyCommit(commitVersion uint64, changes []Change) {
	if len(changes) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range changes {
		c := m.containerFor(ch.Kind, ch.ID)
		nk := NameKey{ch.ParentScope, ch.Name}
		switch ch.Op {
		case OpCreate, OpUpdate:
			c.Put(commitVersion, ch.Post)
			m.byName[ch.Kind][nk] = ch.ID
		case OpDelete:
			c.Put(commitVersion, nil)
			delete(m.byName[ch.Kind], nk)
		}
	}
}

// FindAt resolves id's definition as of version directly from the
// materialized catalog — resolution step 3 of spec.md §4.9.
func (m *MaterializedCatalog) FindAt(kind Kind, id ID, version uint64) (Def, bool) {
	m.mu.RLock()
	c, ok := m.byID[kind][id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.FindAt(version)
}

// ResolveName resolves (parentScope, name) to its current id and then to
// that id's definition as of version. The name index is not itself
// versioned — it always reflects the most recent binding — matching the
// contract that by_name maps a name to an id, not to a point in time.
func (m *MaterializedCatalog) ResolveName(kind Kind, parentScope, name string, version uint64) (Def, bool) {
	m.mu.RLock()
	id, ok := m.byName[kind][NameKey{parentScope, name}]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return m.FindAt(kind, id, version)
}

// Reader resolves catalog lookups for one transaction, implementing
// spec.md §4.9's resolution order. A Reader built via NewCommandReader
// consults the transaction's overlay first (steps 1-2) before falling
// through to the materialized catalog (step 3); a Reader built via
// NewQueryReader has no overlay and goes straight to step 3, since a
// read-only transaction never stages changes of its own.
//
// Step 4 of the resolution order (storage fallback) is intentionally not
// implemented here: MaterializedCatalog.ApplyCommit keeps every committed
// object in sync at the moment of commit, so there is no catalog state
// reachable from a transaction's version that storage would know about and
// the materialized catalog would not. See DESIGN.md.
type Reader struct {
	catalog *MaterializedCatalog
	changes *TransactionalChanges // nil for a query reader
	version uint64
}

func NewCommandReader(catalog *MaterializedCatalog, changes *TransactionalChanges, version uint64) *Reader {
	return &Reader{catalog: catalog, changes: changes, version: version}
}

func NewQueryReader(catalog *MaterializedCatalog, version uint64) *Reader {
	return &Reader{catalog: catalog, version: version}
}

// Resolve looks up id's definition, consulting this transaction's staged
// changes before falling through to the materialized catalog.
func (r *Reader) Resolve(kind Kind, id ID) (Def, bool) {
	if r.changes != nil {
		if ch, ok := r.changes.LatestChange(kind, id); ok {
			if ch.Op == OpDelete {
				return nil, false
			}
			return ch.Post, true
		}
	}
	return r.catalog.FindAt(kind, id, r.version)
}

// ResolveName looks up (parentScope, name), consulting this transaction's
// staged name bindings and deletion tombstones before the materialized
// catalog.
func (r *Reader) ResolveName(kind Kind, parentScope, name string) (Def, bool) {
	if r.changes != nil {
		id, bound, deleted := r.changes.LookupName(kind, parentScope, name)
		if deleted {
			return nil, false
		}
		if bound {
			return r.Resolve(kind, id)
		}
	}
	return r.catalog.ResolveName(kind, parentScope, name, r.version)
}
