package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/handiism/metastrip/internal/batch"
	"github.com/handiism/metastrip/internal/model"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Console prints batch events and the final summary for a terminal.
//
// Example:
//
//	console := report.NewConsole(os.Stdout, *verboseFlag)
//	runner, _ := batch.NewRunner(settings, console.Handle)
//	stats, err := runner.Run(ctx, root)
//	console.Summary(stats, settings.DryRun)
type Console struct {
	w       io.Writer
	verbose bool
	mu      sync.Mutex
}

// NewConsole creates a Console writing to w. Verbose events are dropped
// unless verbose is set.
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose}
}

// Handle prints one event.
func (c *Console) Handle(event batch.ProgressEvent) {
	if event.Level == batch.LevelVerbose && !c.verbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, prefix(event.Level)+event.Message)
}

// Header prints the banner shown before a batch starts.
func (c *Console) Header(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w, "🎵 metastrip")
	fmt.Fprintln(c.w, rule)
	fmt.Fprintf(c.w, "Stripping metadata under %s\n\n", root)
}

// Interrupted prints the notice shown when the batch was cancelled.
func (c *Console) Interrupted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "\nInterrupted, stopping after the current file.")
}

// Summary prints the three outcome counts. It is printed even for an empty batch.
func (c *Console) Summary(stats model.BatchStats, dryRun bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := "Metadata removed"
	if dryRun {
		removed = "Metadata found (dry run)"
	}

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, rule)
	fmt.Fprintf(c.w, "%-26s %d\n", removed+":", stats.Removed)
	fmt.Fprintf(c.w, "%-26s %d\n", "No metadata found:", stats.NoMetadata)
	fmt.Fprintf(c.w, "%-26s %d\n", "Failed:", stats.Failed)
}

func prefix(level batch.ProgressLevel) string {
	switch level {
	case batch.LevelError:
		return "❌ "
	case batch.LevelWarning:
		return "⚠️  "
	case batch.LevelSuccess:
		return "✅ "
	case batch.LevelInfo:
		return "ℹ️  "
	default:
		return "   "
	}
}
