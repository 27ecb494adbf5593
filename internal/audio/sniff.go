package audio

import (
	"path/filepath"
	"strings"

	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

// DefaultExtensions returns the extension table used when no configuration
// overrides it.
//
// Returns:
//   - ".mp3" → FrameTagged
//   - ".m4a", ".mp4" → AtomBoxed
func DefaultExtensions() map[string]model.ContainerKind {
	return map[string]model.ContainerKind{
		".mp3": model.FrameTagged,
		".m4a": model.AtomBoxed,
		".mp4": model.AtomBoxed,
	}
}

// Sniffer classifies files by their lowercase extension.
//
// Sniffing never touches the file: files with an unknown extension are
// filtered out before any I/O happens.
//
// Example:
//
//	s := NewSniffer(nil) // DefaultExtensions
//	kind, ok := s.Sniff("/music/Song.MP3")
//	// kind == model.FrameTagged, ok == true
type Sniffer struct {
	extensions map[string]model.ContainerKind
}

// NewSniffer creates a Sniffer for the given extension table.
//
// If extensions is empty, DefaultExtensions() is used. Keys are normalised
// to lowercase with a leading dot.
func NewSniffer(extensions map[string]model.ContainerKind) *Sniffer {
	if len(extensions) == 0 {
		extensions = DefaultExtensions()
	}

	normalised := make(map[string]model.ContainerKind, len(extensions))
	for ext, kind := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalised[ext] = kind
	}

	return &Sniffer{extensions: normalised}
}

// Sniff returns the container kind for path. ok is false for files that
// should be skipped.
func (s *Sniffer) Sniff(path string) (kind model.ContainerKind, ok bool) {
	kind, ok = s.extensions[strings.ToLower(filepath.Ext(path))]
	if !ok || kind == model.UnknownContainer {
		return model.UnknownContainer, false
	}
	return kind, true
}

// Corroborate checks the file's magic bytes against kind.
//
// FrameTagged files must start with an ID3v2 header or an MPEG frame sync,
// or end with an ID3v1 tag. AtomBoxed files must carry a box kind made of
// printable ASCII at offset 4 ("ftyp" in practice). Empty files never match.
func Corroborate(sr *binary.SafeReader, kind model.ContainerKind) (bool, error) {
	if sr.Size() < 4 {
		return false, nil
	}

	head, err := sr.Bytes(0, 4, "file magic bytes")
	if err != nil {
		return false, err
	}

	switch kind {
	case model.FrameTagged:
		if string(head[:3]) == "ID3" {
			return true, nil
		}
		if head[0] == 0xFF && head[1]&0xE0 == 0xE0 {
			return true, nil
		}
		return sr.HasPrefix(sr.Size()-id3v1Size, "TAG")
	case model.AtomBoxed:
		if sr.Size() < 8 {
			return false, nil
		}
		typ, err := sr.Bytes(4, 4, "first box type")
		if err != nil {
			return false, err
		}
		return isBoxType(typ), nil
	default:
		return false, nil
	}
}

// isBoxType reports whether b looks like a four-character box kind.
func isBoxType(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			// © (0xA9) is only used inside ilst, never at the top level.
			return false
		}
	}
	return true
}
