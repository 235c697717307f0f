package updater

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Reporter writes the human-readable progress report. Write errors are
// ignored; the report is informational.
type Reporter struct {
	writer  io.Writer
	isTTY   bool
	noColor bool
}

// ReporterConfig configures the reporter.
type ReporterConfig struct {
	Writer  io.Writer
	NoColor bool
}

// NewReporter creates a reporter. A nil Writer means stdout.
func NewReporter(cfg ReporterConfig) *Reporter {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Reporter{
		writer:  writer,
		isTTY:   isTTY,
		noColor: cfg.NoColor,
	}
}

// Discard returns a reporter that prints nothing.
func Discard() *Reporter {
	return &Reporter{writer: io.Discard}
}

func (r *Reporter) WorkingDirectory(root string) {
	r.printf("Working directory: %s\n", root)
}

func (r *Reporter) CurrentVersion(version string) {
	r.printf("Current version: %s\n", version)
}

func (r *Reporter) CreatingManifest(name string) {
	r.printf("Creating a new %s file\n", name)
}

func (r *Reporter) Scanning() {
	r.printf("\nScanning files...\n")
}

// FileHashed prints one checkmarked path.
func (r *Reporter) FileHashed(path string) {
	r.printf("  %s %s\n", r.green("✓"), path)
}

func (r *Reporter) NoDataDir(dir string) {
	r.printf("The ‘%s’ folder does not exist!\n", dir)
}

func (r *Reporter) NoFiles(dir string) {
	r.printf("No Json files found in '%s/'\n", dir)
}

// Summary prints the final version and file count.
func (r *Reporter) Summary(version string, files int) {
	r.printf("\nMetadata updated\n")
	r.printf("   Version: %s\n", version)
	r.printf("   Files: %d\n", files)
}

// DryRun replaces Summary when nothing was written.
func (r *Reporter) DryRun(name, version string, files int) {
	r.printf("\nDry run: %s not written\n", name)
	r.printf("   Version: %s\n", version)
	r.printf("   Files: %d\n", files)
}

func (r *Reporter) green(s string) string {
	if r.noColor || !r.isTTY {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.writer, format, args...)
}
