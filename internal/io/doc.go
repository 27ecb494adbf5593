// Package ioutils provides the file system side of metastrip.
//
// This package contains:
//   - Rewriter, which atomically replaces a file with new content
//   - CoverExporter, which saves embedded cover art next to an audio file
//   - ImageService, which resizes and re-encodes cover art
//   - File helpers: copying, writing and file name sanitization
//
// # Atomic Rewrite
//
// Rewriter writes to a temporary file in the same directory, syncs it, and
// renames it over the original. If anything fails the temporary file is
// removed and the original is untouched:
//
//	rw := ioutils.NewRewriter(ioutils.RewriteOptions{
//	    BackupSuffix:    ".bak",
//	    PreserveModTime: true,
//	})
//	err := rw.Rewrite(ctx, path, func(w io.Writer) (int64, error) {
//	    return audio.Strip(w, sr, scan)
//	})
//
// # Cover Art
//
//	exp := ioutils.NewCoverExporter(ioutils.CoverOptions{MaxSize: 1000})
//	saved, err := exp.Export(ctx, path, details.Picture, details.Artist, details.Album)
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
package ioutils
