package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/classmap/internal/pipeline"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

// CLIProgressReporter shows a file progress bar and a run summary.
type CLIProgressReporter struct {
	quiet bool
	out   io.Writer

	mu  sync.Mutex // OnFileProcessed runs on worker goroutines
	bar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, out: out}
}

func (c *CLIProgressReporter) OnStart(totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting classes"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(path string) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnRenderStart(token string) {
	if c.quiet {
		return
	}
	c.finishBar()
	fmt.Fprintf(c.out, "Rendering combined diagram (%d byte token)...\n", len(token))
}

func (c *CLIProgressReporter) OnComplete(result *pipeline.Result) {
	if c.quiet {
		return
	}
	c.finishBar()
	writeSummary(c.out, result)
}

func (c *CLIProgressReporter) finishBar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
}

// writeSummary prints the run outcome, one line per failure.
func writeSummary(out io.Writer, result *pipeline.Result) {
	classes := len(result.Classes())
	fmt.Fprintf(out, "%s %d classes from %d files in %.1fs\n",
		okColor.Sprint("✓"), classes, len(result.Files), result.Duration.Seconds())

	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped:  %d unsupported files\n", len(result.Skipped))
	}
	if h := result.Hierarchy; h != nil {
		fmt.Fprintf(out, "  Hierarchy: %d edges, max depth %d\n", h.Edges, h.MaxDepth)
		if h.HasCycles() {
			fmt.Fprintf(out, "  %s %d cyclic inheritance edges\n", warnColor.Sprint("!"), len(h.Cycles))
		}
	}

	for _, d := range result.Failed() {
		fmt.Fprintf(out, "  %s %s: %s\n", failColor.Sprint("✗"), d.Subject, d.Message)
	}
	if d, ok := result.CombinedDiagnostic(); ok && d.Outcome == pipeline.OutcomeSkipped {
		fmt.Fprintf(out, "  %s render skipped\n", warnColor.Sprint("-"))
	}
}
