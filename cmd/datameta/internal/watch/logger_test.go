package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	logger.Ready(12, "/repo/data")

	output := buf.String()
	if !strings.Contains(output, "12 files") {
		t.Errorf("expected file count in output: %s", output)
	}
	if !strings.Contains(output, "/repo/data") {
		t.Errorf("expected path in output: %s", output)
	}
	if !strings.Contains(output, "ready") {
		t.Errorf("expected 'ready' in output: %s", output)
	}
}

func TestLogger_FileChanged(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggerConfig{Writer: &buf, Verbose: true, NoColor: true}).
		FileChanged("data/a.json", ChangeModified)

	if !strings.Contains(buf.String(), "~ data/a.json") {
		t.Errorf("expected change line, got: %s", buf.String())
	}

	buf.Reset()
	NewLogger(LoggerConfig{Writer: &buf}).FileChanged("data/a.json", ChangeModified)
	if buf.Len() != 0 {
		t.Errorf("non-verbose logger should not print file changes, got: %s", buf.String())
	}
}

func TestLogger_UpdatedSkippedErrorStats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	logger.Updating(3)
	logger.Updated("metadata.json", 7)
	logger.Skipped("no matching files")
	logger.Error(errors.New("boom"))

	output := buf.String()
	for _, want := range []string{
		"updating manifest (3 changed)",
		"✓ metadata.json updated (7 files)",
		"manifest not written: no matching files",
		"✗ error: boom",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}

	stats := logger.Stats()
	if stats.UpdateCount != 1 || stats.SkipCount != 1 || stats.ErrorCount != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	buf.Reset()
	logger.Shutdown()
	if !strings.Contains(buf.String(), "shutting down (1 updates, 1 errors)") {
		t.Errorf("unexpected shutdown line: %s", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	logger.Ready(2, "/repo/data")
	logger.Updated("metadata.json", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %s", len(lines), buf.String())
	}

	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("invalid JSON line %q: %v", lines[1], err)
	}
	if ev["event"] != "updated" || ev["manifest"] != "metadata.json" {
		t.Errorf("unexpected event %v", ev)
	}
	if ev["files"].(float64) != 2 {
		t.Errorf("files = %v, want 2", ev["files"])
	}
}

func TestLogger_NoColorOnBuffer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Writer: &buf})

	if got := logger.colorize("+", ChangeAdded); got != "+" {
		t.Errorf("non-TTY output should not be colored, got %q", got)
	}
}
