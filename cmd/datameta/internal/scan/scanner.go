package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/manifest"
	"github.com/albertocavalcante/datameta/internal/log"
)

// DefaultPattern matches every .json file at any depth of the data directory.
const DefaultPattern = "**/*.json"

// ErrNoDataDir is returned when the data directory does not exist.
var ErrNoDataDir = errors.New("data directory does not exist")

// ScanConfig configures the scanner.
type ScanConfig struct {
	DataDir string   // relative to the filesystem root
	Pattern string   // doublestar glob relative to DataDir
	Exclude []string // root-relative paths never reported (the manifest itself)
	OnFile  func(File)
}

// File is one scanned data file.
type File struct {
	Path string // root-relative, forward slashes
	Hash string
	Size int64
}

// Scanner walks the data directory of a filesystem and digests matches.
type Scanner struct {
	fs      billy.Filesystem
	dataDir string
	pattern string
	exclude []string
	onFile  func(File)
}

// NewScanner creates a scanner over fs.
func NewScanner(fs billy.Filesystem, cfg ScanConfig) (*Scanner, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	dataDir := cleanSlash(cfg.DataDir)
	exclude := make([]string, 0, len(cfg.Exclude))
	for _, p := range cfg.Exclude {
		exclude = append(exclude, cleanSlash(p))
	}

	return &Scanner{
		fs:      fs,
		dataDir: dataDir,
		pattern: pattern,
		exclude: exclude,
		onFile:  cfg.OnFile,
	}, nil
}

// DataDir returns the cleaned data directory.
func (s *Scanner) DataDir() string {
	return s.dataDir
}

// Exists reports whether the data directory exists.
func (s *Scanner) Exists() (bool, error) {
	_, err := s.fs.Stat(s.dataDir)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", s.dataDir, err)
}

// Scan walks the data directory in lexical order and digests every
// matching regular file. Any read error aborts the scan.
func (s *Scanner) Scan(ctx context.Context) ([]File, error) {
	ok, err := s.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDataDir, s.dataDir)
	}

	logger := log.Component("scan")
	var files []File

	visit := func(p string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel := filepath.ToSlash(p)
		if rel == s.dataDir {
			// Data "directory" is a plain file: nothing beneath it.
			return nil
		}
		if slices.Contains(s.exclude, rel) {
			return nil
		}

		matched, err := doublestar.Match(s.pattern, s.relToData(rel))
		if err != nil {
			return fmt.Errorf("failed to match %s: %w", rel, err)
		}
		if !matched {
			return nil
		}

		if !info.Mode().IsRegular() {
			target, err := s.fs.Stat(p)
			if err != nil || !target.Mode().IsRegular() {
				logger.Warn("skipping non-regular file", "path", rel)
				return nil
			}
		}

		f, err := s.digest(p, rel)
		if err != nil {
			return err
		}
		logger.Debug("hashed", "path", f.Path, "size", f.Size)

		files = append(files, f)
		if s.onFile != nil {
			s.onFile(f)
		}
		return nil
	}

	if err := s.walk(visit); err != nil {
		return nil, err
	}
	return files, nil
}

// walk visits the data directory. util.Walk does not descend through a
// root that is a symlink, so a linked data directory has its entries
// walked one by one; paths stay under the link name.
func (s *Scanner) walk(visit filepath.WalkFunc) error {
	info, err := s.fs.Lstat(s.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.dataDir, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return util.Walk(s.fs, s.dataDir, visit)
	}

	target, err := s.fs.Stat(s.dataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", s.dataDir, err)
	}
	if !target.IsDir() {
		return nil
	}

	entries, err := s.fs.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.dataDir, err)
	}
	slices.SortFunc(entries, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})
	for _, e := range entries {
		if err := util.Walk(s.fs, path.Join(s.dataDir, e.Name()), visit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) digest(p, rel string) (File, error) {
	hash, err := HashFile(s.fs, p)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", rel, err)
	}

	info, err := s.fs.Stat(p)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	return File{Path: rel, Hash: hash, Size: info.Size()}, nil
}

func (s *Scanner) relToData(rel string) string {
	if s.dataDir == "." {
		return rel
	}
	return strings.TrimPrefix(rel, s.dataDir+"/")
}

// Table converts scanned files to a manifest file table.
func Table(files []File) map[string]manifest.FileEntry {
	table := make(map[string]manifest.FileEntry, len(files))
	for _, f := range files {
		table[f.Path] = manifest.FileEntry{Hash: f.Hash, Size: f.Size}
	}
	return table
}

func cleanSlash(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
