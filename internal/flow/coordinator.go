package flow

import (
	"sync"

	"github.com/reifydb/reifydb/internal/cdc"
	"github.com/reifydb/reifydb/internal/eventbus"
)

// Txn is the surface a Coordinator needs from a command transaction: state
// access plus commit/rollback. *txn.CommandTransaction satisfies this
// directly.
type Txn interface {
	StateStore
	Commit() error
	Rollback()
}

// TxnFactory begins a new transaction scoped to the HotStore the
// coordinator's checkpoints and operator state live in.
type TxnFactory func() Txn

// SourceResolver extracts the source primitive id (table/view/flow id) a
// CDC record belongs to, so the coordinator can route it only to flows
// that actually read that source. Records the resolver can't place (ok
// == false) are dropped from flow processing.
type SourceResolver func(rec cdc.Record) (sourceID string, ok bool)

const defaultBatchVersions = 100

// Coordinator is the per-database component that turns committed CDC
// records into FlowChange batches for the Engine, per spec.md §4.12.
type Coordinator struct {
	engine      *Engine
	log         *cdc.Log
	checkpoints *cdc.CheckpointStore
	txnFactory  TxnFactory
	resolve     SourceResolver
	batchSize   int

	mu          sync.Mutex
	flowSources map[string]map[string]bool // flowID -> set of source ids it reads

	notify chan struct{} // coalescing wake signal; capacity 1
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewCoordinator constructs a Coordinator. batchSize <= 0 defaults to 100,
// matching spec.md §4.12's "currently up to 100 versions per batch".
func NewCoordinator(engine *Engine, log *cdc.Log, checkpoints *cdc.CheckpointStore, txnFactory TxnFactory, resolve SourceResolver, batchSize int) *Coordinator {
	if batchSize <= 0 {
		batchSize = defaultBatchVersions
	}
	return &Coordinator{
		engine:      engine,
		log:         log,
		checkpoints: checkpoints,
		txnFactory:  txnFactory,
		resolve:     resolve,
		batchSize:   batchSize,
		flowSources: make(map[string]map[string]bool),
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// RegisterFlowSources tells the coordinator which source ids flowID reads
// from. Every wake-up still scans every registered flow; the sources only
// decide which CDC records are handed to this flow.
func (c *Coordinator) RegisterFlowSources(flowID string, sources []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := make(map[string]bool, len(sources))
	for _, s := range sources {
		set[s] = true
	}
	c.flowSources[flowID] = set
}

// Subscribe registers the coordinator as a listener for PostCommit events.
// Call Start separately to launch the processing goroutine.
func (c *Coordinator) Subscribe(bus *eventbus.Bus) {
	bus.Register(eventbus.EventPostCommit, func(eventbus.Event) {
		select {
		case c.notify <- struct{}{}:
		default:
			// Coalesced: a catch-up scan is already pending or running,
			// and a scan always reads forward from the checkpoint, so a
			// dropped notification here never loses a version — this is
			// the forced catch-up behavior spec.md §9 asks for.
		}
	})
}

// Start launches the coordinator's processing goroutine.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop signals the processing goroutine to exit after its current pass.
func (c *Coordinator) Stop() {
	close(c.done)
	c.wg.Wait()
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.notify:
			c.catchUpAll()
		case <-c.done:
			return
		}
	}
}

// catchUpAll scans every registered flow forward from its last checkpoint,
// regardless of what triggered the wake-up — this is what makes a dropped
// broadcast harmless: the scan always starts from durable state, never
// from the (possibly incomplete) set of notifications received.
func (c *Coordinator) catchUpAll() {
	c.mu.Lock()
	flowIDs := make([]string, 0, len(c.flowSources))
	for id := range c.flowSources {
		flowIDs = append(flowIDs, id)
	}
	c.mu.Unlock()

	for _, flowID := range flowIDs {
		c.catchUpFlow(flowID)
	}
}

func (c *Coordinator) catchUpFlow(flowID string) {
	latest, ok := c.log.LatestVersion()
	if !ok {
		return
	}
	from := c.checkpoints.ResumeFrom(flowID)
	if from >= latest {
		return
	}

	c.mu.Lock()
	sources := c.flowSources[flowID]
	c.mu.Unlock()

	for batchStart := from; batchStart < latest; {
		batchEnd := batchStart + uint64(c.batchSize)
		if batchEnd > latest {
			batchEnd = latest
		}
		if !c.processBatch(flowID, sources, batchStart, batchEnd) {
			return
		}
		batchStart = batchEnd
	}
}

// processBatch replays every version in (from, to] for flowID inside a
// single transaction, persisting one checkpoint update at the end — "split
// CDC by source id, hand each consumer only the records touching its
// sources, persist checkpoints through a single parent transaction per
// batch" per spec.md §4.12. It reports whether the batch committed;
// catchUpFlow stops at the first batch that did not, so no later batch can
// move the checkpoint past it.
func (c *Coordinator) processBatch(flowID string, sources map[string]bool, from, to uint64) bool {
	txn := c.txnFactory()

	for v := from + 1; v <= to; v++ {
		records, ok := c.log.Fetch(v)
		if !ok {
			continue
		}
		var diffs []Diff
		for _, rec := range records {
			if c.resolve != nil {
				sourceID, ok := c.resolve(rec)
				if !ok || (sources != nil && !sources[sourceID]) {
					continue
				}
			}
			diffs = append(diffs, recordToDiff(rec))
		}
		if len(diffs) == 0 {
			continue
		}
		if _, err := c.engine.Process(flowID, FlowChange{Version: v, Diffs: diffs}, txn); err != nil {
			txn.Rollback()
			return false
		}
	}

	if err := txn.Commit(); err != nil {
		// The checkpoint is only saved after a successful commit; if the
		// transaction fails to commit, the next catch-up pass reprocesses
		// this range, which is safe since flow processing is idempotent
		// per version (spec.md §4.11's exactly-once-per-version argument).
		return false
	}
	c.checkpoints.Save(flowID, to)
	return true
}

func recordToDiff(rec cdc.Record) Diff {
	d := Diff{}
	switch rec.Op() {
	case cdc.OpInsert:
		d.Op = DiffInsert
		d.Post = &Row{Values: rec.Post}
	case cdc.OpUpdate:
		d.Op = DiffUpdate
		d.Pre = &Row{Values: rec.Pre}
		d.Post = &Row{Values: rec.Post}
	case cdc.OpDelete:
		d.Op = DiffRemove
		d.Pre = &Row{Values: rec.Pre}
	}
	return d
}
