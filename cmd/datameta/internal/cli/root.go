// Package cli implements the datameta command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/datameta/internal/log"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	root       string
	configFile string
}

// rootCmd updates the manifest when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "datameta",
	Short: "Maintain a checksum manifest for JSON data files",
	Long: `Datameta records the SHA-256 hash and byte size of every JSON file
under the data directory in metadata.json, next to the manifest's
version and last update time.

The working root defaults to the parent of the directory holding the
datameta executable. Override it with --root, DATAMETA_ROOT or the
"root" config key.

Running datameta without a subcommand is the same as 'datameta update'.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUpdate,
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "datameta %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.root, "root", "",
		"Working root (default: parent of the executable's directory)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "",
		"Explicit config file, applied over discovered config")

	rootCmd.Flags().BoolVar(&updateFlags.dryRun, "dry-run", false,
		"Scan and report without writing the manifest")

	// Hook to apply flags before command runs
	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	format, err := log.ParseFormat(globalFlags.logFormat)
	log.Init(globalFlags.verbosity, format)
	if err != nil {
		log.Warn("using text logs", "error", err)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
