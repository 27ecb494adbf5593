package audio

import (
	"errors"
	"fmt"

	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

// Scan is the result of locating tags in one file.
//
// Regions are sorted by offset and never overlap. For AtomBoxed files the
// scan also keeps the box layout the stripper needs to fix up ancestor sizes
// and chunk offset tables.
type Scan struct {
	Kind    model.ContainerKind
	Size    int64
	Regions []model.TagRegion

	boxes  []box
	chunks []chunkTable
}

// HasTags reports whether any tag region was found.
func (s *Scan) HasTags() bool {
	return len(s.Regions) > 0
}

// BytesRemoved returns the number of bytes stripping will remove.
func (s *Scan) BytesRemoved() int64 {
	return model.TotalLength(s.Regions)
}

// Locator finds tag regions in audio containers.
//
// Example:
//
//	loc := &Locator{StripTrailing: true}
//	sr := binary.NewSafeReader(f, size, path)
//	scan, err := loc.Locate(sr, model.FrameTagged)
//	if err != nil {
//	    return err // *model.MalformedContainerError or an I/O error
//	}
//	fmt.Println(len(scan.Regions))
type Locator struct {
	// StripTrailing also locates tags appended at the end of FrameTagged
	// files (ID3v1, ID3v1 enhanced, footer-terminated ID3v2).
	StripTrailing bool
}

// NewLocator creates a Locator that also finds trailing tags.
func NewLocator() *Locator {
	return &Locator{StripTrailing: true}
}

// Locate scans sr for metadata of the given container kind.
//
// A file without tags yields an empty region set, not an error. Structural
// problems are returned as *model.MalformedContainerError.
func (l *Locator) Locate(sr *binary.SafeReader, kind model.ContainerKind) (*Scan, error) {
	scan := &Scan{Kind: kind, Size: sr.Size()}

	var err error
	switch kind {
	case model.FrameTagged:
		scan.Regions, err = locateFrameTags(sr, l.StripTrailing)
	case model.AtomBoxed:
		err = locateAtoms(sr, scan)
	default:
		return nil, fmt.Errorf("%s: no locator for container kind %s", sr.Path(), kind)
	}
	if err != nil {
		return nil, normalise(err, sr.Path(), kind)
	}

	return scan, nil
}

// malformed builds a MalformedContainerError; the path is filled in by normalise.
func malformed(kind model.ContainerKind, off int64, format string, args ...any) error {
	return &model.MalformedContainerError{
		Kind:   kind,
		Offset: off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// normalise attaches the path to structural errors and turns out-of-bounds
// reads into malformed-container errors.
func normalise(err error, path string, kind model.ContainerKind) error {
	var mc *model.MalformedContainerError
	if errors.As(err, &mc) {
		if mc.Path == "" {
			mc.Path = path
		}
		return err
	}

	var oob *binary.OutOfBoundsError
	if errors.As(err, &oob) {
		return &model.MalformedContainerError{
			Path:   path,
			Kind:   kind,
			Offset: oob.Offset,
			Reason: fmt.Sprintf("truncated while reading %s", oob.What),
		}
	}

	return &model.IOError{Path: path, Op: "read", Err: err}
}
