package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/handiism/metastrip/internal/audio"
	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/config"
	ioutils "github.com/handiism/metastrip/internal/io"
	"github.com/handiism/metastrip/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the lowercase level name.
func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent is one entry of the batch event stream.
//
// Result is set on the single outcome event emitted for every processed
// file; other events (skips, warnings, cover art) carry only Path.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	Path    string
	Result  *model.Result
}

// candidate is a file that matched a known extension.
type candidate struct {
	Path string
	Kind model.ContainerKind
}

// Runner strips metadata from every matching file under a root directory.
//
// Files are processed one at a time in lexical order. Per-file failures are
// reported and counted; they never stop the batch. Cancelling the context
// stops the batch before the next file starts.
type Runner struct {
	settings *config.Settings
	sniffer  *audio.Sniffer
	locator  *audio.Locator
	rewriter *ioutils.Rewriter
	covers   *ioutils.CoverExporter

	root       string
	candidates []candidate
	stats      model.BatchStats
	processed  int32

	onProgress func(ProgressEvent)
}

// NewRunner creates a Runner.
//
// onProgress may be nil. It is called synchronously from the goroutine
// running the batch.
func NewRunner(settings *config.Settings, onProgress func(ProgressEvent)) (*Runner, error) {
	kinds, err := settings.ContainerKinds()
	if err != nil {
		return nil, err
	}

	return &Runner{
		settings:   settings,
		sniffer:    audio.NewSniffer(kinds),
		locator:    &audio.Locator{StripTrailing: settings.StripTrailingTags},
		rewriter:   ioutils.NewRewriter(settings.ToRewriteOptions()),
		covers:     ioutils.NewCoverExporter(settings.ToCoverOptions()),
		onProgress: onProgress,
	}, nil
}

// Run validates root, finds the matching files and processes them.
//
// The returned stats always reflect the files processed so far, including
// when the error is model.ErrInterrupted.
//
// Example:
//
//	runner, _ := batch.NewRunner(config.DefaultSettings(), func(e batch.ProgressEvent) {
//	    fmt.Println(e.Message)
//	})
//	stats, err := runner.Run(ctx, "/music")
//	if errors.Is(err, model.ErrInterrupted) {
//	    // partial stats
//	}
func (r *Runner) Run(ctx context.Context, root string) (model.BatchStats, error) {
	if err := r.Initialize(ctx, root); err != nil {
		return r.stats, err
	}
	return r.Start(ctx)
}

// Initialize validates root and collects the files to process.
//
// A missing root or a root that is not a directory is returned as
// *model.InvalidRootError before any file is touched.
func (r *Runner) Initialize(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return &model.InvalidRootError{Path: root, Reason: err.Error()}
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &model.InvalidRootError{Path: abs, Reason: "does not exist"}
	case err != nil:
		return &model.InvalidRootError{Path: abs, Reason: err.Error()}
	case !info.IsDir():
		return &model.InvalidRootError{Path: abs, Reason: "not a directory"}
	}

	// WalkDir does not follow a symlinked root.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	r.root = abs
	r.candidates = nil
	r.stats = model.BatchStats{}
	atomic.StoreInt32(&r.processed, 0)

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return model.ErrInterrupted
		}

		if walkErr != nil {
			if path == abs {
				return &model.InvalidRootError{Path: abs, Reason: walkErr.Error()}
			}
			r.progress(ProgressEvent{Message: fmt.Sprintf("Cannot read %s: %v", path, walkErr), Level: LevelWarning, Path: path})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			r.progress(ProgressEvent{Message: fmt.Sprintf("Skipping non-regular file %s", path), Level: LevelVerbose, Path: path})
			return nil
		}

		kind, ok := r.sniffer.Sniff(path)
		if !ok {
			return nil
		}
		r.candidates = append(r.candidates, candidate{Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return err
	}

	r.progress(ProgressEvent{Message: fmt.Sprintf("Found %d audio files in %s", len(r.candidates), abs), Level: LevelVerbose, Path: abs})
	return nil
}

// Start processes the files collected by Initialize.
func (r *Runner) Start(ctx context.Context) (model.BatchStats, error) {
	for _, c := range r.candidates {
		if ctx.Err() != nil {
			return r.stats, model.ErrInterrupted
		}

		// A file that has started always runs to completion.
		res := r.processFile(context.WithoutCancel(ctx), c)
		r.stats.Add(res.Outcome)
		atomic.AddInt32(&r.processed, 1)

		r.progress(outcomeEvent(res))
	}

	return r.stats, nil
}

// GetProgress returns how many files are processed out of how many were found.
func (r *Runner) GetProgress() (processed, total int32) {
	return atomic.LoadInt32(&r.processed), int32(len(r.candidates))
}

// Stats returns the outcome counts so far.
func (r *Runner) Stats() model.BatchStats {
	return r.stats
}

// processFile runs sniff, locate, strip and rewrite for one file. Any panic
// is turned into a Failed outcome.
func (r *Runner) processFile(ctx context.Context, c candidate) (res model.Result) {
	res.File = model.AudioFile{Path: c.Path, Kind: c.Kind}

	defer func() {
		if p := recover(); p != nil {
			res.Outcome = model.Failed
			res.Err = fmt.Errorf("%s: internal error: %v", c.Path, p)
		}
	}()

	fail := func(err error) model.Result {
		res.Outcome = model.Failed
		res.Err = err
		return res
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return fail(&model.IOError{Path: c.Path, Op: "open", Err: err})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fail(&model.IOError{Path: c.Path, Op: "stat", Err: err})
	}
	res.File.Size = info.Size()

	sr := binary.NewSafeReader(f, info.Size(), c.Path)

	if r.settings.VerifySignature {
		ok, err := audio.Corroborate(sr, c.Kind)
		if err != nil {
			return fail(&model.IOError{Path: c.Path, Op: "read", Err: err})
		}
		if !ok {
			return fail(&model.MalformedContainerError{Path: c.Path, Kind: c.Kind, Reason: "content does not match the file extension"})
		}
	}

	scan, err := r.locator.Locate(sr, c.Kind)
	if err != nil {
		return fail(err)
	}

	res.File.HasTags = scan.HasTags()
	if !scan.HasTags() {
		res.Outcome = model.NoMetadataFound
		return res
	}

	details := audio.Describe(sr, scan)
	res.Regions = scan.Regions
	res.BytesRemoved = scan.BytesRemoved()
	res.Description = details.Summary

	if r.settings.DryRun {
		res.Outcome = model.MetadataRemoved
		res.DryRun = true
		return res
	}

	if r.settings.SaveCoverArt && details.Picture != nil {
		r.exportCover(ctx, c.Path, details)
	}

	err = r.rewriter.Rewrite(ctx, c.Path, func(w io.Writer) (int64, error) {
		return audio.Strip(w, sr, scan)
	})
	switch {
	case errors.Is(err, ioutils.ErrModTimeNotRestored):
		r.progress(ProgressEvent{Message: err.Error(), Level: LevelWarning, Path: c.Path})
	case err != nil:
		return fail(err)
	}

	res.Outcome = model.MetadataRemoved
	return res
}

// exportCover saves the embedded picture. Failures are warnings only.
func (r *Runner) exportCover(ctx context.Context, path string, details audio.Details) {
	saved, err := r.covers.Export(ctx, path, details.Picture, details.Artist, details.Album)
	if err != nil {
		r.progress(ProgressEvent{Message: fmt.Sprintf("Could not save cover art of %s: %v", path, err), Level: LevelWarning, Path: path})
		return
	}
	r.progress(ProgressEvent{Message: fmt.Sprintf("Saved cover art to %s", saved), Level: LevelVerbose, Path: path})
}

func (r *Runner) progress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

// outcomeEvent builds the per-file outcome event.
func outcomeEvent(res model.Result) ProgressEvent {
	event := ProgressEvent{Path: res.File.Path, Result: &res}

	switch res.Outcome {
	case model.MetadataRemoved:
		verb := "Removed"
		if res.DryRun {
			verb = "Would remove"
		}
		event.Level = LevelSuccess
		event.Message = fmt.Sprintf("%s %s (%d bytes) from %s", verb, res.Description, res.BytesRemoved, res.File.Path)
	case model.NoMetadataFound:
		event.Level = LevelInfo
		event.Message = fmt.Sprintf("No metadata in %s", res.File.Path)
	default:
		event.Level = LevelError
		event.Message = fmt.Sprintf("Failed: %v", res.Err)
	}

	return event
}
