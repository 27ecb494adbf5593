package ioutils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/handiism/metastrip/internal/model"
)

const writeBufferSize = 256 * 1024

// ErrEmptyOutput is returned when a non-empty file would be replaced by an
// empty one.
var ErrEmptyOutput = errors.New("refusing to replace a non-empty file with empty output")

// ErrModTimeNotRestored is returned after a successful replacement whose
// modification time could not be restored. The new content is in place.
var ErrModTimeNotRestored = errors.New("modification time not restored")

// RewriteOptions controls how a file is replaced.
type RewriteOptions struct {
	// BackupSuffix, when not empty, keeps a copy of the original at
	// path+BackupSuffix.
	BackupSuffix string

	// PreserveModTime restores the original modification time after the
	// file is replaced.
	PreserveModTime bool
}

// Rewriter atomically replaces files with new content.
//
// The new content is written to a temporary file in the same directory and
// renamed over the original only after it has been fully written and synced.
// On any failure the temporary file is removed and the original is left
// byte-identical.
//
// Example:
//
//	rw := NewRewriter(RewriteOptions{PreserveModTime: true})
//	err := rw.Rewrite(ctx, path, func(w io.Writer) (int64, error) {
//	    return audio.Strip(w, sr, scan)
//	})
type Rewriter struct {
	opts RewriteOptions
}

// NewRewriter creates a Rewriter.
func NewRewriter(opts RewriteOptions) *Rewriter {
	return &Rewriter{opts: opts}
}

// Rewrite replaces path with the bytes fill writes.
//
// ctx is only checked before the temporary file is created. Once writing has
// started the rewrite runs to completion or rolls back.
//
// Errors from fill that are already typed (*model.MalformedContainerError)
// are returned unchanged; everything else is wrapped in *model.IOError.
// ErrModTimeNotRestored is the only error returned after the file was replaced.
func (rw *Rewriter) Rewrite(ctx context.Context, path string, fill func(w io.Writer) (int64, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return &model.IOError{Path: path, Op: "stat", Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".metastrip-*")
	if err != nil {
		return &model.IOError{Path: path, Op: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	n, err := fill(bw)
	if err != nil {
		var mc *model.MalformedContainerError
		if errors.As(err, &mc) {
			return err
		}
		return &model.IOError{Path: path, Op: "write", Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &model.IOError{Path: path, Op: "write", Err: err}
	}

	if n == 0 && info.Size() > 0 {
		return &model.IOError{Path: path, Op: "write", Err: ErrEmptyOutput}
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return &model.IOError{Path: path, Op: "chmod", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &model.IOError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &model.IOError{Path: path, Op: "close", Err: err}
	}

	if rw.opts.BackupSuffix != "" {
		backup := path + rw.opts.BackupSuffix
		if err := CopyFile(context.WithoutCancel(ctx), path, backup, info.Mode().Perm()); err != nil {
			return &model.IOError{Path: path, Op: fmt.Sprintf("backup to %s", backup), Err: err}
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return &model.IOError{Path: path, Op: "rename", Err: err}
	}
	success = true

	if rw.opts.PreserveModTime {
		if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("%s: %w: %v", path, ErrModTimeNotRestored, err)
		}
	}

	return nil
}
