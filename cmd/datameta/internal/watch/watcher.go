package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/updater"
	"github.com/albertocavalcante/datameta/internal/log"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// Runner performs one full manifest update.
type Runner interface {
	Run(ctx context.Context) (*updater.Result, error)
}

// Config configures the watcher.
type Config struct {
	Root         string // OS path of the working root
	DataDir      string // slash path relative to Root
	Pattern      string // doublestar glob relative to DataDir
	ManifestPath string // slash path relative to Root, never treated as data
	Debounce     time.Duration
	Verbose      bool
	NoColor      bool
	JSON         bool
	Writer       io.Writer
}

// Watcher watches the data directory and re-runs the update after changes.
type Watcher struct {
	config    Config
	dataDir   string // OS path
	fsWatcher *fsnotify.Watcher
	runner    Runner
	debouncer *Debouncer
	logger    *Logger
	ctx       context.Context

	// runMu serializes updates
	runMu sync.Mutex
}

// New creates a watcher. The data directory must exist.
func New(cfg Config, runner Runner) (*Watcher, error) {
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", cfg.Pattern)
	}

	dataDir := filepath.Join(cfg.Root, filepath.FromSlash(cfg.DataDir))
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dataDir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    cfg,
		dataDir:   dataDir,
		fsWatcher: fsWatcher,
		runner:    runner,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Logger returns the watch output logger.
func (w *Watcher) Logger() *Logger {
	return w.logger
}

// Run performs an initial update, then watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.ctx = ctx

	window := w.config.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, w.handleChanges)
	defer w.debouncer.Stop()

	if err := w.addRecursive(w.dataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}

	fileCount := w.update(0)
	w.logger.Ready(fileCount, w.dataDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	if root == w.dataDir {
		if info, err := os.Lstat(root); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return w.addLinkedDataDir()
		}
	}
	return w.walkAndWatch(root)
}

// addLinkedDataDir watches a data directory that is a symlink. WalkDir
// does not descend through a linked root, so its entries are walked one
// by one and events keep the link's path.
func (w *Watcher) addLinkedDataDir() error {
	if err := w.watchDir(w.dataDir); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.dataDir)
	if err != nil {
		w.logger.Error(fmt.Errorf("failed to read %s: %w", w.dataDir, err))
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.walkAndWatch(filepath.Join(w.dataDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) walkAndWatch(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", p))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", p, err))
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		return w.watchDir(p)
	})
}

// watchDir adds one directory. Only the OS watch limit is fatal.
func (w *Watcher) watchDir(p string) error {
	if err := w.fsWatcher.Add(p); err != nil {
		if isWatchLimitError(err) {
			return fmt.Errorf("%w at %s: %v\n"+
				"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288",
				ErrWatchLimitReached, p, err)
		}
		if w.config.Verbose {
			w.logger.Error(fmt.Errorf("failed to watch %s: %w", p, err))
		}
	}
	return nil
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// handleEvent filters one fsnotify event and feeds the debouncer.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	log.Trace("fs event", "op", event.Op.String(), "path", event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", event.Name, err))
			}
			// Files may have landed before the watch was added.
			if rel := w.rootRel(event.Name); rel != "" {
				w.debouncer.Add(rel, ChangeAdded)
			}
			return
		}
	}

	rel, ok := w.relevant(event.Name)
	if !ok {
		// A removed or renamed directory takes its files with it, and
		// inotify does not report them one by one.
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			if r := w.rootRel(event.Name); r != "" && filepath.Ext(r) == "" && w.inDataDir(r) {
				w.debouncer.Add(r, ChangeDeleted)
			}
		}
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return // chmod
	}

	w.logger.FileChanged(rel, change)
	w.debouncer.Add(rel, change)
}

// relevant reports whether an OS path is a tracked data file and returns
// its root-relative slash path.
func (w *Watcher) relevant(osPath string) (string, bool) {
	rel := w.rootRel(osPath)
	if rel == "" {
		return "", false
	}
	if rel == w.config.ManifestPath || rel == w.config.ManifestPath+".tmp" {
		return "", false
	}

	if !w.inDataDir(rel) {
		return "", false
	}

	matched, err := doublestar.Match(w.config.Pattern, w.dataRel(rel))
	if err != nil || !matched {
		return "", false
	}
	return rel, true
}

func (w *Watcher) inDataDir(rel string) bool {
	dataDir := path.Clean(w.config.DataDir)
	return dataDir == "." || strings.HasPrefix(rel, dataDir+"/")
}

func (w *Watcher) dataRel(rel string) string {
	dataDir := path.Clean(w.config.DataDir)
	if dataDir == "." {
		return rel
	}
	return strings.TrimPrefix(rel, dataDir+"/")
}

func (w *Watcher) rootRel(osPath string) string {
	rel, err := filepath.Rel(w.config.Root, osPath)
	if err != nil || !filepath.IsLocal(rel) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// handleChanges is called when the debouncer flushes.
func (w *Watcher) handleChanges(changes []Change) {
	w.update(len(changes))
}

// update runs the updater once and returns the tracked file count.
func (w *Watcher) update(changes int) int {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return 0
	}

	if changes > 0 {
		w.logger.Updating(changes)
	}

	res, err := w.runner.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error(err)
		}
		return 0
	}

	switch res.Outcome {
	case updater.OutcomeWritten, updater.OutcomeDryRun:
		w.logger.Updated(w.config.ManifestPath, len(res.Files))
	case updater.OutcomeNoFiles:
		w.logger.Skipped("no matching files")
	case updater.OutcomeNoDataDir:
		w.logger.Skipped("data directory missing")
	}
	return len(res.Files)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
