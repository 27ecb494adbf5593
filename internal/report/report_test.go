package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/handiism/metastrip/internal/batch"
	"github.com/handiism/metastrip/internal/model"
)

func TestConsole_Handle(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Handle(batch.ProgressEvent{Message: "Removed ID3v2.3 from a.mp3", Level: batch.LevelSuccess})
	c.Handle(batch.ProgressEvent{Message: "hidden detail", Level: batch.LevelVerbose})
	c.Handle(batch.ProgressEvent{Message: "Failed: b.m4a", Level: batch.LevelError})

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Error("verbose events should be dropped")
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Errorf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "✅ Removed") || !strings.Contains(out, "❌ Failed") {
		t.Errorf("missing prefixes:\n%s", out)
	}
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, false).Summary(model.BatchStats{Removed: 3, NoMetadata: 2, Failed: 1}, false)

	out := buf.String()
	for _, want := range []string{"Metadata removed:", "3", "No metadata found:", "2", "Failed:", "1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := SlogSink(NewLogger(&buf, false))

	res := &model.Result{
		File:         model.AudioFile{Path: "/music/a.mp3", Kind: model.FrameTagged},
		Outcome:      model.MetadataRemoved,
		Regions:      []model.TagRegion{{Offset: 0, Length: 110, Label: "ID3v2.3"}},
		BytesRemoved: 110,
	}
	sink(batch.ProgressEvent{Message: "removed", Level: batch.LevelSuccess, Path: res.File.Path, Result: res})
	sink(batch.ProgressEvent{Message: "skipped", Level: batch.LevelVerbose})

	failed := &model.Result{
		File:    model.AudioFile{Path: "/music/b.m4a", Kind: model.AtomBoxed},
		Outcome: model.Failed,
		Err:     &model.IOError{Path: "/music/b.m4a", Op: "open", Err: errors.New("permission denied")},
	}
	sink(batch.ProgressEvent{Message: "failed", Level: batch.LevelError, Path: failed.File.Path, Result: failed})

	out := buf.String()
	for _, want := range []string{
		"path=/music/a.mp3", `outcome="metadata removed"`, "kind=frame", "regions=1", "bytes_removed=110",
		"level=ERROR", "error_kind=\"I/O failure\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Error("debug events should be filtered at Info level")
	}
}

func TestTee(t *testing.T) {
	var a, b int
	h := Tee(func(batch.ProgressEvent) { a++ }, nil, func(batch.ProgressEvent) { b++ })
	h(batch.ProgressEvent{})
	h(batch.ProgressEvent{})

	if a != 2 || b != 2 {
		t.Errorf("handlers called %d and %d times, want 2", a, b)
	}
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	LogSummary(NewLogger(&buf, false), model.BatchStats{Removed: 1}, model.ErrInterrupted)

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "metadata_removed=1") {
		t.Errorf("summary log = %s", out)
	}
}
