package audio

import (
	"fmt"
	"io"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"

	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

// Details summarises the tags found in a file before they are stripped.
//
// Details is best effort: the tag libraries are only used to describe what
// is about to be removed, never to decide what is removed. A tag that fails
// to parse still yields its region label in Summary.
type Details struct {
	// Title, Artist and Album are read from the tags when present.
	Title  string
	Artist string
	Album  string

	// Frames is the number of ID3v2 frames (FrameTagged) or metadata items
	// (AtomBoxed) found.
	Frames int

	// Picture is the first embedded cover image, if any.
	Picture *tag.Picture

	// Summary is a one-line description, e.g. "ID3v2.4 (12 frames), ID3v1".
	Summary string
}

// Describe reads the tags located by scan.
//
// Example:
//
//	d := Describe(sr, scan)
//	fmt.Printf("%s - %s: %s\n", d.Artist, d.Title, d.Summary)
func Describe(sr *binary.SafeReader, scan *Scan) Details {
	var d Details
	if !scan.HasTags() {
		return d
	}

	if m, err := tag.ReadFrom(io.NewSectionReader(sr.ReaderAt(), 0, sr.Size())); err == nil {
		d.Title = m.Title()
		d.Artist = m.Artist()
		d.Album = m.Album()
		d.Picture = m.Picture()
		if scan.Kind == model.AtomBoxed {
			d.Frames = len(m.Raw())
		}
	}

	parts := make([]string, 0, len(scan.Regions))
	for _, r := range scan.Regions {
		switch {
		case scan.Kind == model.FrameTagged && strings.HasPrefix(r.Label, "ID3v2"):
			frames, ok := describeID3v2(sr, r, &d)
			if !ok {
				parts = append(parts, r.Label)
				continue
			}
			d.Frames += frames
			parts = append(parts, fmt.Sprintf("%s (%d frames)", r.Label, frames))
		case scan.Kind == model.AtomBoxed && d.Frames > 0:
			parts = append(parts, fmt.Sprintf("%s (%d items)", r.Label, d.Frames))
		default:
			parts = append(parts, r.Label)
		}
	}
	d.Summary = strings.Join(parts, ", ")

	return d
}

// describeID3v2 parses one ID3v2 region and fills in the text fields that
// are still empty. It returns the number of frames in the tag.
func describeID3v2(sr *binary.SafeReader, r model.TagRegion, d *Details) (int, bool) {
	t, err := id3v2.ParseReader(io.NewSectionReader(sr.ReaderAt(), r.Offset, r.Length), id3v2.Options{Parse: true})
	if err != nil {
		return 0, false
	}

	if d.Title == "" {
		d.Title = t.Title()
	}
	if d.Artist == "" {
		d.Artist = t.Artist()
	}
	if d.Album == "" {
		d.Album = t.Album()
	}

	return t.Count(), true
}
