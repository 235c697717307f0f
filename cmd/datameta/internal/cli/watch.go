package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/updater"
	"github.com/albertocavalcante/datameta/cmd/datameta/internal/watch"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the data directory and keep the manifest current",
	Long: `Watches the data directory for JSON file changes and rebuilds the
manifest after each burst of changes settles.

Every rebuild rehashes all files, exactly like 'datameta update'.

Example output:

  $ datameta watch

  [14:32:15] ✓ metadata.json updated (12 files)
  datameta: watching 12 files in /path/to/root/data
  datameta: ready

  [14:32:40] updating manifest (1 changed)...
  [14:32:40] ✓ metadata.json updated (13 files)

Press Ctrl+C to stop watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config, 500)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	opts, err := ws.updaterOptions(false)
	if err != nil {
		return err
	}
	// The per-file report would drown the watch log.
	u, err := updater.New(ws.fs, opts, updater.Discard())
	if err != nil {
		return err
	}

	debounce := ws.debounce()
	if watchFlags.debounce > 0 {
		debounce = time.Duration(watchFlags.debounce) * time.Millisecond
	}

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:         ws.root,
		DataDir:      opts.DataDir,
		Pattern:      opts.Pattern,
		ManifestPath: opts.Manifest,
		Debounce:     debounce,
		Verbose:      watchFlags.verbose,
		NoColor:      watchFlags.noColor || ws.cfg.NoColor(),
		JSON:         watchFlags.json,
		Writer:       cmd.OutOrStdout(),
	}, u)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
