package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log formats accepted by --log-format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseFormat normalizes a --log-format value. Empty means text; an
// unknown value returns FormatText along with the error.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q (want %s or %s)", s, FormatText, FormatJSON)
}

// HandlerOptions configures the diagnostic handler.
type HandlerOptions struct {
	Level  slog.Leveler
	Format string
	Output io.Writer // nil means stderr; stdout carries the report

	// Root is stripped from "path" attributes so records show paths
	// relative to the working root.
	Root string
}

// NewHandler creates a text or JSON handler.
func NewHandler(opts HandlerOptions) slog.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: rewriteAttr(opts.Root),
	}

	if opts.Format == FormatJSON {
		return slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.NewTextHandler(out, handlerOpts)
}

func rewriteAttr(root string) func([]string, slog.Attr) slog.Attr {
	prefix := ""
	if root != "" {
		prefix = filepath.Clean(root) + string(filepath.Separator)
	}

	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			if level, ok := a.Value.Any().(slog.Level); ok {
				a.Value = slog.StringValue(LevelName(level))
			}
		case "path":
			if prefix != "" && a.Value.Kind() == slog.KindString {
				if rel, ok := strings.CutPrefix(a.Value.String(), prefix); ok {
					a.Value = slog.StringValue(filepath.ToSlash(rel))
				}
			}
		}
		return a
	}
}
