package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/metastrip/internal/batch"
	"github.com/handiism/metastrip/internal/config"
	"github.com/handiism/metastrip/internal/model"
	"github.com/handiism/metastrip/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		configFlag  = flag.String("config", "", "Path to config file (default: user config directory)")
		dryRunFlag  = flag.Bool("dry-run", false, "Report what would be removed without rewriting files")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
		backupFlag  = flag.String("backup", "", "Keep the original of each rewritten file with this suffix (e.g. .bak)")
	)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "metastrip - Strip tags from MP3 and MP4/M4A files")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  metastrip [options] [directory]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Without a directory argument the path is read from standard input.")
		fmt.Fprintln(os.Stderr, "For interactive mode, use: metastrip-tui")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config
	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Apply flags
	if *dryRunFlag {
		settings.DryRun = true
	}
	if *verboseFlag {
		settings.Verbose = true
	}
	if *backupFlag != "" {
		settings.BackupSuffix = *backupFlag
	}

	logger := report.NewLogger(os.Stderr, settings.Verbose)
	slog.SetDefault(logger)
	logger.Debug("settings loaded", "path", configPath, "dry_run", settings.DryRun)

	console := report.NewConsole(os.Stdout, settings.Verbose)
	handler := console.Handle
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		handler = report.Tee(console.Handle, report.SlogSink(report.NewLogger(f, settings.Verbose)))
	}

	// Get directory
	root := flag.Arg(0)
	if root == "" {
		root, err = prompt(os.Stdin, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	runner, err := batch.NewRunner(settings, handler)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	console.Header(root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	stats, runErr := runBatch(context.Background(), runner, root, sigCh, func() {
		// A second interrupt terminates the process.
		signal.Stop(sigCh)
		console.Interrupted()
	})

	var rootErr *model.InvalidRootError
	if errors.As(runErr, &rootErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", rootErr)
	}

	console.Summary(stats, settings.DryRun)
	report.LogSummary(logger, stats, runErr)

	switch model.Classify(runErr) {
	case model.NoError:
		return 0
	case model.Interrupted:
		return 130
	default:
		return 1
	}
}

// batchRunner is the part of batch.Runner used by runBatch.
type batchRunner interface {
	Run(ctx context.Context, root string) (model.BatchStats, error)
}

// runBatch runs the batch next to a signal watcher. The first signal calls
// onInterrupt and cancels the batch, which stops before the next file.
func runBatch(ctx context.Context, runner batchRunner, root string, signals <-chan os.Signal, onInterrupt func()) (model.BatchStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var stats model.BatchStats
	g.Go(func() error {
		defer close(done)
		var err error
		stats, err = runner.Run(gctx, root)
		return err
	})

	// Handle interrupts
	g.Go(func() error {
		select {
		case <-signals:
			if onInterrupt != nil {
				onInterrupt()
			}
			cancel()
		case <-done:
		}
		return nil
	})

	err := g.Wait()
	return stats, err
}

// prompt asks for the directory to process and reads one line from r.
func prompt(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter directory path: ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read directory path: %w", err)
	}

	root := strings.TrimSpace(line)
	if root == "" {
		return "", errors.New("no directory given")
	}
	return root, nil
}
