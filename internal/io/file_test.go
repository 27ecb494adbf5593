package ioutils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Song: Part 1/2", "Song_ Part 1_2"},
		{"Track...", "Track"},
		{"Name   with  spaces", "Name with spaces"},
		{"  padded  ", "padded"},
		{"a<b>c|d?e*f", "a_b_c_d_e_f"},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatCoverName(t *testing.T) {
	tests := []struct {
		format string
		artist string
		album  string
		want   string
	}{
		{"{name}.cover", "", "", "01 Intro.cover"},
		{"{artist} - {album}", "AC/DC", "Back in Black", "AC_DC - Back in Black"},
		{"{album}", "", "", "01 Intro"},
		{"folder", "x", "y", "folder"},
	}

	for _, tt := range tests {
		if got := FormatCoverName(tt.format, "/music/01 Intro.mp3", tt.artist, tt.album); got != tt.want {
			t.Errorf("FormatCoverName(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(context.Background(), src, dst, 0600); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Fatalf("dst = %q, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := CopyFile(ctx, src, dst, 0600); !errors.Is(err, context.Canceled) {
		t.Errorf("CopyFile() with cancelled context = %v", err)
	}
}

func TestWriteFile_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cover.jpg")
	if err := WriteFile(context.Background(), path, []byte("jpg")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
