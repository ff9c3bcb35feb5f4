package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitJSONOutputIncludesComponentField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})
	defer Init(Config{Level: InfoLevel, JSONOutput: true, Output: &bytes.Buffer{}})

	WithComponent("retention").Info().Msg("sweep complete")

	out := buf.String()
	if !strings.Contains(out, `"component":"retention"`) {
		t.Errorf("expected JSON output to tag the component field, got %q", out)
	}
	if !strings.Contains(out, "sweep complete") {
		t.Errorf("expected the log message to appear in output, got %q", out)
	}
}

func TestInitDefaultsToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{JSONOutput: true, Output: &buf})

	Logger.Debug().Msg("should be suppressed")
	Logger.Info().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be suppressed") {
		t.Error("expected debug-level messages to be suppressed at the default info level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("expected info-level messages to appear")
	}
}
