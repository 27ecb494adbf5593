package report

import (
	"context"
	"io"
	"log/slog"

	"github.com/handiism/metastrip/internal/batch"
	"github.com/handiism/metastrip/internal/model"
)

// NewLogger creates a text logger at Info level, or Debug when verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SlogSink returns an event handler that writes every event to logger.
//
// Outcome events carry the attributes path, outcome, kind, regions,
// bytes_removed and, for failures, reason and error_kind.
func SlogSink(logger *slog.Logger) func(batch.ProgressEvent) {
	return func(event batch.ProgressEvent) {
		attrs := []slog.Attr{}
		if event.Path != "" {
			attrs = append(attrs, slog.String("path", event.Path))
		}

		if res := event.Result; res != nil {
			attrs = append(attrs,
				slog.String("outcome", res.Outcome.String()),
				slog.String("kind", res.File.Kind.String()),
			)
			if len(res.Regions) > 0 {
				attrs = append(attrs,
					slog.Int("regions", len(res.Regions)),
					slog.Int64("bytes_removed", res.BytesRemoved),
				)
			}
			if res.DryRun {
				attrs = append(attrs, slog.Bool("dry_run", true))
			}
			if res.Err != nil {
				attrs = append(attrs,
					slog.String("reason", res.Err.Error()),
					slog.String("error_kind", model.Classify(res.Err).String()),
				)
			}
		}

		logger.LogAttrs(context.Background(), slogLevel(event.Level), event.Message, attrs...)
	}
}

// Tee returns a handler that passes every event to each of handlers in turn.
func Tee(handlers ...func(batch.ProgressEvent)) func(batch.ProgressEvent) {
	return func(event batch.ProgressEvent) {
		for _, h := range handlers {
			if h != nil {
				h(event)
			}
		}
	}
}

// LogSummary logs the final counts.
func LogSummary(logger *slog.Logger, stats model.BatchStats, err error) {
	attrs := []any{
		"metadata_removed", stats.Removed,
		"no_metadata_found", stats.NoMetadata,
		"failed_count", stats.Failed,
	}
	if err != nil {
		logger.Warn("batch stopped", append(attrs, "error", err)...)
		return
	}
	logger.Info("batch finished", attrs...)
}

func slogLevel(level batch.ProgressLevel) slog.Level {
	switch level {
	case batch.LevelVerbose:
		return slog.LevelDebug
	case batch.LevelWarning:
		return slog.LevelWarn
	case batch.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
