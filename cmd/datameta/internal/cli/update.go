package cli

import (
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/datameta/cmd/datameta/internal/updater"
)

var updateFlags struct {
	dryRun bool
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the metadata manifest",
	Long: `Rehashes every JSON file under the data directory and rewrites the
manifest with the current file table and timestamp. The manifest's
version is preserved; a missing manifest is created with the default
version.

A missing data directory or an empty scan leaves the manifest untouched.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateFlags.dryRun, "dry-run", false,
		"Scan and report without writing the manifest")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	opts, err := ws.updaterOptions(updateFlags.dryRun)
	if err != nil {
		return err
	}

	reporter := updater.NewReporter(updater.ReporterConfig{
		Writer:  cmd.OutOrStdout(),
		NoColor: ws.cfg.NoColor(),
	})
	u, err := updater.New(ws.fs, opts, reporter)
	if err != nil {
		return err
	}

	_, err = u.Run(cmd.Context())
	return err
}
