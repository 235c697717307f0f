package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	logger    atomic.Pointer[slog.Logger]
	level     *slog.LevelVar
	verbosity atomic.Int32

	// mu guards the handler settings below; rebuilds swap logger.
	mu     sync.Mutex
	format string
	output io.Writer
	root   string
)

func init() {
	// Warnings only until the CLI applies -v.
	level = new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	format = FormatText
	output = os.Stderr
	verbosity.Store(VerbosityWarn)
	rebuildLocked()
}

// Init configures the global logger. Call once at startup.
func Init(v int, logFormat string) {
	InitWithOutput(v, logFormat, os.Stderr)
}

// InitWithOutput is Init with an explicit destination, used by tests.
func InitWithOutput(v int, logFormat string, out io.Writer) {
	logFormat, _ = ParseFormat(logFormat)
	SetVerbosity(v)

	mu.Lock()
	defer mu.Unlock()
	format = logFormat
	output = out
	rebuildLocked()
	slog.SetDefault(logger.Load())
}

// SetRoot makes "path" attributes under root print relative to it.
func SetRoot(dir string) {
	mu.Lock()
	defer mu.Unlock()
	root = dir
	rebuildLocked()
}

func rebuildLocked() {
	logger.Store(slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: format,
		Output: output,
		Root:   root,
	})))
}

// SetVerbosity changes verbosity at runtime without replacing the handler.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	level.Set(VerbosityToLevel(v))
}

// Verbosity returns the current verbosity level.
func Verbosity() int {
	return int(verbosity.Load())
}

// Format returns the active log format.
func Format() string {
	mu.Lock()
	defer mu.Unlock()
	return format
}

// Logger returns the current logger instance.
func Logger() *slog.Logger {
	return logger.Load()
}

func Error(msg string, args ...any) { logger.Load().Error(msg, args...) }
func Warn(msg string, args ...any)  { logger.Load().Warn(msg, args...) }
func Info(msg string, args ...any)  { logger.Load().Info(msg, args...) }
func Debug(msg string, args ...any) { logger.Load().Debug(msg, args...) }

// Trace logs at trace level (v=4).
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// V returns a logger that only logs if verbosity >= v.
//
//	log.V(3).Info("hashed", "path", p)
func V(v int) *slog.Logger {
	if int(verbosity.Load()) >= v {
		return logger.Load()
	}
	return slog.New(slog.DiscardHandler)
}

// With returns a logger with additional context.
func With(args ...any) *slog.Logger {
	return logger.Load().With(args...)
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}
