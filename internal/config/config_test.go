package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reifydb/reifydb/internal/retention"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reifydb.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesLoggingAndFlowFields(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: debug
  json: true
flow:
  batch_versions: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Flow.BatchVersions != 50 {
		t.Errorf("expected batch_versions 50, got %d", cfg.Flow.BatchVersions)
	}
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTempConfig(t, `logging:
  level: warn
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Flow.BatchVersions != 100 {
		t.Errorf("expected the default batch size to survive partial YAML, got %d", cfg.Flow.BatchVersions)
	}
	if cfg.Stats.ChannelCapacity != 1024 {
		t.Errorf("expected the default stats channel capacity to survive partial YAML, got %d", cfg.Stats.ChannelCapacity)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestRetentionEntryToPolicyForever(t *testing.T) {
	e := RetentionEntry{Scope: "orders", Forever: true}
	if _, ok := e.ToPolicy().(retention.KeepForever); !ok {
		t.Errorf("expected forever=true to produce KeepForever, got %#v", e.ToPolicy())
	}
}

func TestRetentionEntryToPolicyKeepVersionsDrop(t *testing.T) {
	e := RetentionEntry{Scope: "orders", Count: 3, Mode: "drop"}
	kv, ok := e.ToPolicy().(retention.KeepVersions)
	if !ok {
		t.Fatalf("expected a KeepVersions policy, got %#v", e.ToPolicy())
	}
	if kv.Count != 3 || kv.Mode != retention.ModeDrop {
		t.Errorf("unexpected policy: %+v", kv)
	}
}

func TestRetentionEntryToScopeDecodesHexBounds(t *testing.T) {
	e := RetentionEntry{Scope: "orders", Start: "0a", End: "ff"}
	scope := e.ToScope()
	if scope.Name != "orders" || len(scope.Start) != 1 || scope.Start[0] != 0x0a || scope.End[0] != 0xff {
		t.Errorf("unexpected scope: %+v", scope)
	}
}

func TestLoggingConfigAdapter(t *testing.T) {
	l := LoggingConfig{Level: "error", JSON: true}
	lc := l.ToLoggingConfig()
	if string(lc.Level) != "error" || !lc.JSONOutput {
		t.Errorf("unexpected adapted logging config: %+v", lc)
	}
}
