package ioutils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// CopyFile copies src to dst, creating dst with the given permissions.
//
// dst is synced before it is closed, so a backup made with CopyFile is on
// disk before the original is replaced.
//
// Example:
//
//	err := CopyFile(ctx, "/music/song.mp3", "/music/song.mp3.bak", 0644)
func CopyFile(ctx context.Context, src, dst string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// WriteFile writes data to path with mode 0644, creating the parent
// directory if needed.
//
// Example:
//
//	err := WriteFile(ctx, "/music/Album/cover.jpg", jpegData)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SanitizeFileName removes or replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2")      // Returns "Song_ Part 1_2"
//	SanitizeFileName("Track...")            // Returns "Track"
//	SanitizeFileName("Name   with  spaces") // Returns "Name with spaces"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// FormatCoverName expands a cover file name format.
//
// Supported placeholders:
//   - {name}: the audio file name without its extension
//   - {artist}: the artist read from the tags
//   - {album}: the album read from the tags
//
// The result is sanitized. An empty result falls back to the audio file name.
//
// Example:
//
//	FormatCoverName("{name}.cover", "/music/01 Intro.mp3", "Band", "Record")
//	// Returns "01 Intro.cover"
func FormatCoverName(format, audioPath, artist, album string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	name := strings.NewReplacer(
		"{name}", base,
		"{artist}", artist,
		"{album}", album,
	).Replace(format)

	name = SanitizeFileName(name)
	if name == "" {
		return SanitizeFileName(base)
	}
	return name
}
