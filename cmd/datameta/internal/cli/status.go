package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/updater"
)

var statusFlags struct {
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the manifest matches the data directory",
	Long: `Scans the data directory and compares it with the stored manifest
without writing anything.

A fingerprint of each file table decides whether they match; only when
they differ is the per-file diff computed.

The --verbose flag lists individual file changes (new, modified, deleted).
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"Show individual file changes")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for datameta status.
type StatusOutput struct {
	UpToDate      bool     `json:"up_to_date"`
	Manifest      string   `json:"manifest"`
	Version       string   `json:"version,omitempty"`
	LastUpdated   string   `json:"last_updated,omitempty"`
	Files         int      `json:"files"`
	Fingerprint   string   `json:"fingerprint"`
	NewFiles      []string `json:"new_files,omitempty"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
	DeletedFiles  []string `json:"deleted_files,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	opts, err := ws.updaterOptions(true)
	if err != nil {
		return err
	}
	u, err := updater.New(ws.fs, opts, updater.Discard())
	if err != nil {
		return err
	}

	st, err := u.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute status: %w", err)
	}

	out := cmd.OutOrStdout()

	if statusFlags.json {
		output := StatusOutput{
			UpToDate:    st.UpToDate(),
			Manifest:    opts.Manifest,
			Files:       st.Files,
			Fingerprint: st.CurrentFingerprint,
		}
		switch {
		case st.NoDataDir:
			output.Error = fmt.Sprintf("data directory %q does not exist", opts.DataDir)
		case !st.ManifestFound:
			output.Error = "no manifest found"
		default:
			output.Version = st.Version
			output.LastUpdated = st.LastUpdated
		}
		output.NewFiles = st.Changes.Added
		output.ModifiedFiles = st.Changes.Modified
		output.DeletedFiles = st.Changes.Deleted
		return outputJSON(out, output)
	}

	// Text output
	if st.NoDataDir {
		_, _ = fmt.Fprintf(out, "The ‘%s’ folder does not exist!\n", opts.DataDir)
		return nil
	}
	if !st.ManifestFound {
		_, _ = fmt.Fprintf(out, "No %s found. Run 'datameta update' to create it.\n", opts.Manifest)
	} else {
		_, _ = fmt.Fprintf(out, "Version: %s\n", st.Version)
		_, _ = fmt.Fprintf(out, "Last updated: %s\n", st.LastUpdated)
	}

	if st.UpToDate() {
		_, _ = fmt.Fprintf(out, "%s is up to date (%d files)\n", opts.Manifest, st.Files)
		return nil
	}

	cs := st.Changes
	if st.ManifestFound {
		_, _ = fmt.Fprintf(out, "%s is stale (%d changes)\n", opts.Manifest, cs.TotalChanges())
	}

	if statusFlags.verbose {
		printFiles(out, "New files", "+", cs.Added)
		printFiles(out, "Modified files", "~", cs.Modified)
		printFiles(out, "Deleted files", "-", cs.Deleted)
	}

	_, _ = fmt.Fprintln(out, "\nRun 'datameta update' to refresh the manifest")
	return nil
}

func printFiles(out io.Writer, title, mark string, files []string) {
	if len(files) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\n%s (%d):\n", title, len(files))
	for _, f := range files {
		_, _ = fmt.Fprintf(out, "  %s %s\n", mark, f)
	}
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
