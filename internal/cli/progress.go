package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/ipcgen/internal/pipeline"
)

// CLIProgressReporter implements progress reporting with progress bars.
type CLIProgressReporter struct {
	quiet     bool
	fileBar   *progressbar.ProgressBar
	startTime time.Time
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnParseStart(totalFiles int) {
	if c.quiet {
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Scanning sources"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnFileParsed(fileName string) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(result *pipeline.Result) {
	if c.quiet {
		return
	}

	written := 0
	for _, art := range result.Artifacts {
		if art.Written {
			written++
		}
	}

	fmt.Println()
	fmt.Printf("✓ Generation complete: %d functions in %d namespaces (%.1fs)\n",
		result.Functions, result.Namespaces, time.Since(c.startTime).Seconds())
	fmt.Printf("  Files scanned:  %d", result.FilesParsed)
	if result.FilesSkipped > 0 {
		fmt.Printf(" (%d skipped)", result.FilesSkipped)
	}
	fmt.Println()
	fmt.Printf("  Artifacts:      %d written, %d unchanged\n", written, len(result.Artifacts)-written)
	if result.Warnings > 0 {
		fmt.Printf("  Warnings:       %d\n", result.Warnings)
	}
}
