package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  slog.Level
	}{
		{-1, slog.LevelError},
		{0, slog.LevelError},
		{1, slog.LevelWarn},
		{2, slog.LevelInfo},
		{3, slog.LevelDebug},
		{4, LevelTrace},
		{9, LevelTrace},
	}

	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.expected {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.expected)
		}
	}
}

func TestLevelToVerbosity(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected int
	}{
		{slog.LevelError, VerbosityError},
		{slog.LevelWarn, VerbosityWarn},
		{slog.LevelInfo, VerbosityInfo},
		{slog.LevelDebug, VerbosityDebug},
		{LevelTrace, VerbosityTrace},
	}

	for _, tt := range tests {
		if got := LevelToVerbosity(tt.level); got != tt.expected {
			t.Errorf("LevelToVerbosity(%v) = %d, want %d", tt.level, got, tt.expected)
		}
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{LevelTrace, "TRACE"},
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
	}

	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.expected {
			t.Errorf("LevelName(%v) = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestInitAndSetVerbosity(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "text", &buf)

	if Verbosity() != 2 {
		t.Errorf("Verbosity() = %d, want 2", Verbosity())
	}
	if Format() != "text" {
		t.Errorf("Format() = %q, want text", Format())
	}

	SetVerbosity(0)
	if Verbosity() != 0 {
		t.Errorf("Verbosity() = %d, want 0", Verbosity())
	}

	Info("hidden at v=0")
	if strings.Contains(buf.String(), "hidden at v=0") {
		t.Errorf("info should be filtered at v=0, got: %s", buf.String())
	}
}

func TestV(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "text", &buf)

	V(2).Info("should appear", "key", "value")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("V(2) should log when verbosity is 2, got: %s", buf.String())
	}

	buf.Reset()
	V(3).Info("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Errorf("V(3) should not log when verbosity is 2, got: %s", buf.String())
	}
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(4, "text", &buf)

	Trace("deep")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE level name, got: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, "text", &buf)

	Component("updater").Info("run finished")
	if !strings.Contains(buf.String(), "component=updater") {
		t.Errorf("Component should add component context, got: %s", buf.String())
	}

	buf.Reset()
	With("root", "/srv").Info("resolved")
	if !strings.Contains(buf.String(), "root=/srv") {
		t.Errorf("With should add context, got: %s", buf.String())
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(HandlerOptions{
		Level:  slog.LevelInfo,
		Format: "json",
		Output: &buf,
	}))
	l.Info("test", "key", "value")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec["key"] != "value" {
		t.Errorf("key = %v, want value", rec["key"])
	}
}

func TestNewHandler_DefaultOutput(t *testing.T) {
	if NewHandler(HandlerOptions{Level: slog.LevelInfo}) == nil {
		t.Error("NewHandler should not return nil")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"yaml", FormatText, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) = (%q, %v), want (%q, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewHandler_TrimsRoot(t *testing.T) {
	var buf bytes.Buffer
	root := filepath.Join(string(filepath.Separator)+"srv", "repo")
	l := slog.New(NewHandler(HandlerOptions{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
		Root:   root,
	}))

	l.Info("changed", "path", filepath.Join(root, "data", "a.json"))
	l.Info("outside", "path", "/tmp/x.json")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["path"] != "data/a.json" {
		t.Errorf("path = %v, want data/a.json", rec["path"])
	}

	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["path"] != "/tmp/x.json" {
		t.Errorf("path outside root should be untouched, got %v", rec["path"])
	}
}

func TestSetRoot(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(2, FormatText, &buf)
	t.Cleanup(func() { SetRoot("") })

	root := filepath.Join(t.TempDir(), "repo")
	SetRoot(root)
	Info("hashed", "path", filepath.Join(root, "data", "a.json"))

	if !strings.Contains(buf.String(), "path=data/a.json") {
		t.Errorf("expected root-relative path, got: %s", buf.String())
	}
}
