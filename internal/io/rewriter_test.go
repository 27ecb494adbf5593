package ioutils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/handiism/metastrip/internal/model"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0640); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeBytes(data []byte) func(io.Writer) (int64, error) {
	return func(w io.Writer) (int64, error) {
		n, err := w.Write(data)
		return int64(n), err
	}
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("directory holds %v, want %v", names, want)
	}
}

func TestRewriter_Replaces(t *testing.T) {
	path := writeTemp(t, "song.mp3", []byte("tagged audio"))
	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	rw := NewRewriter(RewriteOptions{PreserveModTime: true})
	if err := rw.Rewrite(context.Background(), path, writeBytes([]byte("audio"))); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "audio" {
		t.Errorf("content = %q, want %q", got, "audio")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), old)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
	assertOnlyFiles(t, filepath.Dir(path), "song.mp3")
}

func TestRewriter_Backup(t *testing.T) {
	path := writeTemp(t, "song.m4a", []byte("original"))

	rw := NewRewriter(RewriteOptions{BackupSuffix: ".bak"})
	if err := rw.Rewrite(context.Background(), path, writeBytes([]byte("new"))); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(backup) != "original" {
		t.Errorf("backup = %q, want %q", backup, "original")
	}
	assertOnlyFiles(t, filepath.Dir(path), "song.m4a", "song.m4a.bak")
}

func TestRewriter_FailureLeavesOriginal(t *testing.T) {
	original := []byte("original bytes")
	boom := errors.New("disk full")
	malformed := &model.MalformedContainerError{Kind: model.AtomBoxed, Reason: "bad"}

	tests := []struct {
		name    string
		fill    func(io.Writer) (int64, error)
		wantErr func(error) bool
	}{
		{
			name: "write error",
			fill: func(w io.Writer) (int64, error) {
				w.Write([]byte("partial"))
				return 7, boom
			},
			wantErr: func(err error) bool {
				var ioErr *model.IOError
				return errors.As(err, &ioErr) && errors.Is(err, boom)
			},
		},
		{
			name: "malformed passes through",
			fill: func(w io.Writer) (int64, error) { return 0, malformed },
			wantErr: func(err error) bool {
				return model.Classify(err) == model.MalformedContainer
			},
		},
		{
			name: "empty output",
			fill: writeBytes(nil),
			wantErr: func(err error) bool {
				return errors.Is(err, ErrEmptyOutput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "song.mp3", original)

			err := NewRewriter(RewriteOptions{}).Rewrite(context.Background(), path, tt.fill)
			if !tt.wantErr(err) {
				t.Fatalf("Rewrite() error = %v", err)
			}

			got, readErr := os.ReadFile(path)
			if readErr != nil {
				t.Fatal(readErr)
			}
			if !bytes.Equal(got, original) {
				t.Errorf("original changed to %q", got)
			}
			assertOnlyFiles(t, filepath.Dir(path), "song.mp3")
		})
	}
}

func TestRewriter_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.mp3")

	err := NewRewriter(RewriteOptions{}).Rewrite(context.Background(), path, writeBytes([]byte("x")))
	if model.Classify(err) != model.IOFailure || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Rewrite() error = %v, want IOFailure wrapping ErrNotExist", err)
	}
}

func TestRewriter_CancelledBeforeStart(t *testing.T) {
	path := writeTemp(t, "song.mp3", []byte("original"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewRewriter(RewriteOptions{}).Rewrite(ctx, path, func(w io.Writer) (int64, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Rewrite() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("fill should not run after cancellation")
	}
}
