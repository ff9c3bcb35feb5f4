// Package config loads the engine's YAML configuration file, following the
// same gopkg.in/yaml.v3 struct-tag style the teacher uses to decode its
// examples.yml fixtures in internal/testhelper.
package config

import (
	"encoding/hex"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reifydb/reifydb/internal/errs"
	"github.com/reifydb/reifydb/internal/logging"
	"github.com/reifydb/reifydb/internal/retention"
)

// Config is the root of reifydb.yaml.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	Txn       TxnConfig        `yaml:"txn"`
	Retention []RetentionEntry `yaml:"retention"`
	Stats     StatsConfig      `yaml:"stats"`
	Flow      FlowConfig       `yaml:"flow"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
	JSON  bool   `yaml:"json"`
}

// ToLoggingConfig adapts the YAML fields to logging.Config. Output is left
// nil, which logging.Init treats as stdout.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{Level: logging.Level(l.Level), JSONOutput: l.JSON}
}

type TxnConfig struct {
	BlockPersistPath string `yaml:"block_persist_path"`
}

// RetentionEntry configures one named scope's retention policy, matching
// spec.md §4.8's KeepForever / KeepVersions{Count, Mode} shape.
type RetentionEntry struct {
	Scope    string `yaml:"scope"`
	Start    string `yaml:"start"` // hex-encoded scan start key, empty = unbounded
	End      string `yaml:"end"`   // hex-encoded scan end key, empty = unbounded
	Forever  bool   `yaml:"forever"`
	Count    int    `yaml:"keep_versions"`
	Mode     string `yaml:"mode"`     // "delete" | "drop"
	Schedule string `yaml:"schedule"` // cron expression
}

// ToPolicy converts the YAML representation to a retention.Policy. Forever
// takes precedence over Count/Mode when both are set.
func (r RetentionEntry) ToPolicy() retention.Policy {
	if r.Forever {
		return retention.KeepForever{}
	}
	mode := retention.ModeDelete
	if r.Mode == "drop" {
		mode = retention.ModeDrop
	}
	return retention.KeepVersions{Count: r.Count, Mode: mode}
}

// ToScope decodes the entry's hex-encoded Start/End bounds into a
// retention.Scope. A malformed bound decodes to nil, which retention.Manager
// treats as unbounded on that side.
func (r RetentionEntry) ToScope() retention.Scope {
	start, err := hex.DecodeString(r.Start)
	if err != nil {
		start = nil
	}
	end, err := hex.DecodeString(r.End)
	if err != nil {
		end = nil
	}
	return retention.Scope{Name: r.Scope, Start: start, End: end}
}

type StatsConfig struct {
	FlushInterval   time.Duration `yaml:"flush_interval"`
	ChannelCapacity int           `yaml:"channel_capacity"`
}

type FlowConfig struct {
	BatchVersions int `yaml:"batch_versions"`
}

// Default returns the configuration cmd/reifydb falls back to when no file
// is supplied.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Stats:   StatsConfig{FlushInterval: 10 * time.Second, ChannelCapacity: 1024},
		Flow:    FlowConfig{BatchVersions: 100},
	}
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Wrap(errs.Io, "CONFIG_001", "reading config file", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errs.Wrap(errs.InvalidData, "CONFIG_002", "parsing config file", err)
	}
	return cfg, nil
}
