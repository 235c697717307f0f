// Package updater rebuilds the metadata manifest from the data directory.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/mod/semver"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/manifest"
	"github.com/albertocavalcante/datameta/cmd/datameta/internal/scan"
	"github.com/albertocavalcante/datameta/internal/log"
)

// Outcome tells how a run ended.
type Outcome int

const (
	// OutcomeWritten means the manifest was rewritten.
	OutcomeWritten Outcome = iota
	// OutcomeNoDataDir means the data directory was missing; nothing written.
	OutcomeNoDataDir
	// OutcomeNoFiles means no file matched; nothing written.
	OutcomeNoFiles
	// OutcomeDryRun means the scan succeeded but writing was disabled.
	OutcomeDryRun
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeNoDataDir:
		return "no-data-dir"
	case OutcomeNoFiles:
		return "no-files"
	case OutcomeDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Options configures an Updater. Zero values fall back to defaults.
type Options struct {
	Root            string // shown in the report only; fs is already rooted
	DataDir         string
	Manifest        string
	Pattern         string
	DefaultVersion  string
	TimestampFormat manifest.TimestampFormat
	DryRun          bool
	Now             func() time.Time
}

func (o *Options) applyDefaults() {
	if o.DataDir == "" {
		o.DataDir = "data"
	}
	if o.Manifest == "" {
		o.Manifest = "metadata.json"
	}
	if o.Pattern == "" {
		o.Pattern = scan.DefaultPattern
	}
	if o.DefaultVersion == "" {
		o.DefaultVersion = manifest.DefaultVersion
	}
	if o.TimestampFormat == "" {
		o.TimestampFormat = manifest.TimestampLegacy
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Result describes a finished run.
type Result struct {
	Outcome       Outcome
	ManifestFound bool
	Manifest      *manifest.Manifest // nil when the run stopped before loading
	Files         []scan.File        // traversal order
}

// Updater rebuilds one manifest from one data directory.
type Updater struct {
	opts     Options
	store    manifest.Store
	scanner  *scan.Scanner
	quiet    *scan.Scanner
	reporter *Reporter
}

// New creates an updater over fs, which must be rooted at the working root.
func New(fs billy.Filesystem, opts Options, reporter *Reporter) (*Updater, error) {
	opts.applyDefaults()
	return NewWithStore(fs, manifest.NewFileStore(fs, opts.Manifest, opts.DefaultVersion), opts, reporter)
}

// NewWithStore is New with an explicit manifest store.
func NewWithStore(fs billy.Filesystem, store manifest.Store, opts Options, reporter *Reporter) (*Updater, error) {
	opts.applyDefaults()
	if reporter == nil {
		reporter = Discard()
	}

	cfg := scan.ScanConfig{
		DataDir: opts.DataDir,
		Pattern: opts.Pattern,
		Exclude: []string{store.Path(), store.Path() + ".tmp"},
	}
	quiet, err := scan.NewScanner(fs, cfg)
	if err != nil {
		return nil, err
	}
	cfg.OnFile = func(f scan.File) { reporter.FileHashed(f.Path) }
	scanner, err := scan.NewScanner(fs, cfg)
	if err != nil {
		return nil, err
	}

	return &Updater{
		opts:     opts,
		store:    store,
		scanner:  scanner,
		quiet:    quiet,
		reporter: reporter,
	}, nil
}

// Run performs one full update: load the manifest, rescan every file,
// replace the file table, stamp last_updated and write the manifest.
// A missing data directory or an empty scan ends the run without writing.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	logger := log.Component("updater")
	start := time.Now()

	u.reporter.WorkingDirectory(u.opts.Root)

	ok, err := u.scanner.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		u.reporter.NoDataDir(u.scanner.DataDir())
		logger.Info("data directory missing, manifest left untouched", "data_dir", u.scanner.DataDir())
		return &Result{Outcome: OutcomeNoDataDir}, nil
	}

	m, found, err := u.store.Load()
	if err != nil {
		return nil, err
	}
	if found {
		u.reporter.CurrentVersion(m.DisplayVersion())
		checkVersion(m)
	} else {
		u.reporter.CreatingManifest(u.store.Path())
	}

	u.reporter.Scanning()
	files, err := u.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", u.scanner.DataDir(), err)
	}

	result := &Result{ManifestFound: found, Manifest: m, Files: files}

	if len(files) == 0 {
		u.reporter.NoFiles(u.scanner.DataDir())
		logger.Info("no matching files, manifest left untouched", "pattern", u.opts.Pattern)
		result.Outcome = OutcomeNoFiles
		return result, nil
	}

	m.ReplaceFiles(scan.Table(files))
	m.Touch(u.opts.Now(), u.opts.TimestampFormat)

	if u.opts.DryRun {
		u.reporter.DryRun(u.store.Path(), m.DisplayVersion(), len(files))
		result.Outcome = OutcomeDryRun
		return result, nil
	}

	if err := u.store.Save(m); err != nil {
		return nil, err
	}

	u.reporter.Summary(m.DisplayVersion(), len(files))
	logger.Info("manifest written",
		"path", u.store.Path(),
		"files", len(files),
		"fingerprint", m.Fingerprint(),
		"elapsed", time.Since(start))

	result.Outcome = OutcomeWritten
	return result, nil
}

// checkVersion warns about versions that are not semantic versions.
// The version is never rewritten.
func checkVersion(m *manifest.Manifest) {
	if !m.HasVersion() {
		log.Warn("manifest has no version field")
		return
	}
	if m.IsNullVersion() {
		log.Warn("manifest version is null")
		return
	}
	if !semver.IsValid("v" + m.Version) {
		log.Warn("manifest version is not a semantic version", "version", m.Version)
	}
}

// Status compares the stored manifest with a fresh scan without writing.
type Status struct {
	NoDataDir          bool
	ManifestFound      bool
	Version            string
	LastUpdated        string
	Files              int
	StoredFingerprint  string
	CurrentFingerprint string
	Changes            *manifest.ChangeSet
}

// UpToDate reports whether the stored file table matches the data directory.
func (s *Status) UpToDate() bool {
	return !s.NoDataDir && s.ManifestFound && s.StoredFingerprint == s.CurrentFingerprint
}

// Status scans silently and diffs against the stored manifest.
func (u *Updater) Status(ctx context.Context) (*Status, error) {
	files, err := u.quiet.Scan(ctx)
	if errors.Is(err, scan.ErrNoDataDir) {
		return &Status{NoDataDir: true, Changes: manifest.NewChangeSet()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", u.quiet.DataDir(), err)
	}

	m, found, err := u.store.Load()
	if err != nil {
		return nil, err
	}

	current := scan.Table(files)
	st := &Status{
		ManifestFound:      found,
		Version:            m.DisplayVersion(),
		LastUpdated:        m.LastUpdated,
		Files:              len(current),
		StoredFingerprint:  m.Fingerprint(),
		CurrentFingerprint: manifest.Fingerprint(current),
	}

	if found && st.StoredFingerprint == st.CurrentFingerprint {
		st.Changes = manifest.NewChangeSet()
		return st, nil
	}

	st.Changes = manifest.Diff(m.Files, current)
	return st, nil
}
