package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/manifest"
	"github.com/albertocavalcante/datameta/cmd/datameta/internal/updater"
	"github.com/albertocavalcante/datameta/internal/log"
	"github.com/albertocavalcante/datameta/pkg/config"
)

// workspace is a resolved working root with its effective configuration.
type workspace struct {
	root string
	cfg  *config.Config
	fs   billy.Filesystem
}

// loadWorkspace resolves the root and loads the configuration layered on it.
// Precedence for the root: --root, the --config file, DATAMETA_ROOT or the
// global config, then the executable location.
func loadWorkspace() (*workspace, error) {
	var fileCfg *config.Config
	if globalFlags.configFile != "" {
		c, err := config.LoadFile(globalFlags.configFile)
		if err != nil {
			return nil, err
		}
		fileCfg = c
	}

	root := globalFlags.root
	if root == "" && fileCfg != nil {
		root = fileCfg.Root
	}
	base := config.LoadGlobal()
	if root == "" {
		root = config.EnvRoot()
	}
	if root == "" {
		root = base.Root
	}
	if root == "" {
		exeRoot, err := executableRoot()
		if err != nil {
			return nil, err
		}
		root = exeRoot
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root must be a directory: %s", root)
	}

	cfg := config.LoadOnto(base, root)
	cfg.Merge(fileCfg)
	cfg.Root = root
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetRoot(root)
	log.Debug("workspace resolved", "root", root, "data_dir", cfg.DataDir, "manifest", cfg.Manifest)
	return &workspace{root: root, cfg: cfg, fs: osfs.New(root)}, nil
}

// executableRoot returns the parent of the directory holding the
// running binary, so <root>/bin/datameta works from any directory.
func executableRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

func (ws *workspace) updaterOptions(dryRun bool) (updater.Options, error) {
	format, err := manifest.ParseTimestampFormat(ws.cfg.TimestampFormat)
	if err != nil {
		return updater.Options{}, err
	}
	return updater.Options{
		Root:            ws.root,
		DataDir:         filepath.ToSlash(ws.cfg.DataDir),
		Manifest:        filepath.ToSlash(ws.cfg.Manifest),
		Pattern:         ws.cfg.Pattern,
		DefaultVersion:  ws.cfg.DefaultVersion,
		TimestampFormat: format,
		DryRun:          dryRun,
	}, nil
}

func (ws *workspace) debounce() time.Duration {
	return time.Duration(ws.cfg.Watch.DebounceMS) * time.Millisecond
}
