// Command reifydb runs a minimal standalone instance: it wires the storage,
// transaction, catalog, CDC, retention, stats and flow layers together and
// drives a handful of demo commands against them, in the spirit of the
// teacher's tinysql CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/cdc"
	"github.com/reifydb/reifydb/internal/config"
	"github.com/reifydb/reifydb/internal/eventbus"
	"github.com/reifydb/reifydb/internal/flow"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/logging"
	"github.com/reifydb/reifydb/internal/retention"
	"github.com/reifydb/reifydb/internal/stats"
	"github.com/reifydb/reifydb/internal/store"
	"github.com/reifydb/reifydb/internal/store/pager"
	"github.com/reifydb/reifydb/internal/txn"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("reifydb", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: reifydb [OPTIONS]\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Path to a reifydb.yaml config file (optional)")
	batch := fs.Bool("batch", false, "Run the built-in demo and exit instead of reading stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logging.Init(cfg.Logging.ToLoggingConfig())

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.shutdown()

	if *batch {
		return eng.runDemo()
	}
	return eng.repl(os.Stdin, os.Stdout)
}

// engine bundles every layer main.go needs to drive: the hot store, the
// transaction manager, the CDC log and checkpoints, the materialized
// catalog, the stats worker, and the flow engine/coordinator pair.
type engine struct {
	hot         *store.HotStore
	txm         *txn.Manager
	log         *cdc.Log
	checkpoints *cdc.CheckpointStore
	catalog     *catalog.MaterializedCatalog
	bus         *eventbus.Bus
	statsWorker *stats.Worker
	retention   *retention.Manager
	flowEngine  *flow.Engine
	coordinator *flow.Coordinator
	cfg         config.Config
}

func newEngine(cfg config.Config) (*engine, error) {
	hot := store.New()

	var persister txn.VersionPersister
	if cfg.Txn.BlockPersistPath != "" {
		pg, err := pager.OpenPager(pager.PagerConfig{DBPath: cfg.Txn.BlockPersistPath})
		if err != nil {
			return nil, err
		}
		persister = txn.NewPagerPersister(pg)
	}
	txm, err := txn.NewManager(persister)
	if err != nil {
		return nil, err
	}
	log := cdc.NewLog()
	checkpoints := cdc.NewCheckpointStore()
	cat := catalog.NewMaterializedCatalog()
	bus := eventbus.NewBus(64)

	sw := stats.NewWorker(cfg.Stats.ChannelCapacity, cfg.Stats.FlushInterval, stats.NopCheckpointer{}, bus)
	sw.Start()

	rm := retention.NewManager(hot, txm)
	for _, entry := range cfg.Retention {
		rm.SetPolicy(entry.ToScope(), entry.ToPolicy())
		if entry.Schedule != "" {
			if err := rm.Start(entry.Schedule); err != nil {
				return nil, err
			}
		}
	}

	fe := flow.NewEngine()
	fc := flow.NewCoordinator(fe, log, checkpoints, func() flow.Txn {
		return txm.BeginCommand(hot, txn.Hooks{})
	}, defaultSourceResolver, cfg.Flow.BatchVersions)
	fc.Subscribe(bus)
	fc.Start()

	return &engine{
		hot: hot, txm: txm, log: log, checkpoints: checkpoints,
		catalog: cat, bus: bus, statsWorker: sw, retention: rm,
		flowEngine: fe, coordinator: fc, cfg: cfg,
	}, nil
}

// defaultSourceResolver maps a CDC record's key back to the table/view id
// its key was encoded under. Row keys are built as KindRow followed by a
// VarBytes-encoded source id, the same encoding rowKey/runDemo use, so the
// first decoded field recovers the source.
func defaultSourceResolver(rec cdc.Record) (string, bool) {
	kind, err := keycode.EncodedKey(rec.Key).Kind()
	if err != nil || kind != keycode.KindRow {
		return "", false
	}
	dec := keycode.NewDecoder(rec.Key[2:])
	sourceID, err := dec.String()
	if err != nil {
		return "", false
	}
	return sourceID, true
}

// rowKey builds a KindRow key as sourceID and rowID VarBytes fields, so
// defaultSourceResolver can recover the source from the raw CDC key.
func rowKey(sourceID, rowID string) keycode.EncodedKey {
	enc := keycode.NewEncoder().String(sourceID).String(rowID)
	b, err := enc.Bytes()
	if err != nil {
		panic(err) // VarBytes string encoding never fails
	}
	return keycode.NewKey(keycode.KindRow, b)
}

func (e *engine) shutdown() {
	e.coordinator.Stop()
	e.statsWorker.Shutdown()
}

// beginCommand opens a CommandTransaction wired to emit CDC records and
// broadcast PostCommit events, matching the Hooks contract txn.CommandTransaction
// expects from its owning engine.
func (e *engine) beginCommand() *txn.CommandTransaction {
	return e.txm.BeginCommand(e.hot, txn.Hooks{
		AppendCDC: func(commitVersion uint64, writes []store.Write, preImage map[string][]byte) error {
			return e.log.Append(commitVersion, writes, preImage)
		},
		Broadcast: func(commitVersion uint64) {
			e.bus.Emit(eventbus.PostCommit{Version: commitVersion}, true)
		},
	})
}

// runDemo exercises the write path, the catalog, and a tiny filter flow so
// the wiring above can be sanity-checked without a REPL.
func (e *engine) runDemo() error {
	tableID := uuid.NewString()

	tx := e.beginCommand()
	tx.Set(rowKey(tableID, "1"), []byte("hello"))
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := e.flowEngine.Register("demo-flow", []flow.Node{
		{ID: "src", Kind: flow.NodeSourceTable, Source: tableID},
		{ID: "sink", Kind: flow.NodeSink, Inputs: []string{"src"}},
	}); err != nil {
		return err
	}
	e.coordinator.RegisterFlowSources("demo-flow", []string{tableID})

	// give the coordinator's goroutine a moment to catch up the demo write
	time.Sleep(50 * time.Millisecond)

	fmt.Printf("committed version, checkpoint now at %d\n", e.checkpoints.ResumeFrom("demo-flow"))
	return nil
}

// repl is a minimal line-oriented shell: each line is treated as a
// "key=value" write against a fixed demo table, or "get key" to read it
// back at the latest snapshot.
func (e *engine) repl(in *os.File, out *os.File) error {
	const demoTable = "repl"
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "reifydb> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "reifydb> ")
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, "get ") {
			key := rowKey(demoTable, strings.TrimPrefix(line, "get "))
			q := e.txm.BeginQuery(e.hot)
			val, found := q.Get(key)
			q.Close()
			if !found {
				fmt.Fprintln(out, "(nil)")
			} else {
				fmt.Fprintln(out, string(val))
			}
			fmt.Fprint(out, "reifydb> ")
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			tx := e.beginCommand()
			tx.Set(rowKey(demoTable, strings.TrimSpace(k)), []byte(v))
			if err := tx.Commit(); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		} else {
			fmt.Fprintln(out, "expected \"key=value\" or \"get key\"")
		}
		fmt.Fprint(out, "reifydb> ")
	}
	return scanner.Err()
}
