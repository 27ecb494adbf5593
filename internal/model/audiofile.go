package model

import (
	"fmt"
	"strings"
)

// ContainerKind identifies how metadata is embedded in an audio file.
//
// Each kind has its own locator and stripping rules:
//   - FrameTagged: ID3 tags prepended and/or appended to an MPEG frame stream
//   - AtomBoxed: an ISO base media file (a tree of length-prefixed boxes)
type ContainerKind int

const (
	// UnknownContainer is used for files that are not processed at all.
	UnknownContainer ContainerKind = iota

	// FrameTagged files carry self-delimiting ID3 tags around the audio frames.
	FrameTagged

	// AtomBoxed files store metadata in a "meta" box of the box tree.
	AtomBoxed
)

// String returns the short configuration name of the kind.
//
// Returns:
//   - "frame" for FrameTagged
//   - "atom" for AtomBoxed
//   - "unknown" otherwise
func (k ContainerKind) String() string {
	switch k {
	case FrameTagged:
		return "frame"
	case AtomBoxed:
		return "atom"
	default:
		return "unknown"
	}
}

// ParseContainerKind parses the configuration name of a container kind.
//
// Accepted values are "frame" and "atom" (case-insensitive).
func ParseContainerKind(s string) (ContainerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frame":
		return FrameTagged, nil
	case "atom":
		return AtomBoxed, nil
	default:
		return UnknownContainer, fmt.Errorf("unknown container kind %q", s)
	}
}

// AudioFile is one candidate file discovered by the batch runner.
//
// AudioFile only lives for the duration of a single pipeline run. Path is
// absolute, Kind is set by the sniffer, Size and HasTags by the locator.
type AudioFile struct {
	// Path is the absolute path to the file.
	Path string

	// Kind is the container kind chosen from the file extension.
	Kind ContainerKind

	// Size is the byte length of the file when it was opened.
	Size int64

	// HasTags reports whether at least one TagRegion was located.
	HasTags bool
}

// TagRegion is a byte range of a file that holds metadata.
type TagRegion struct {
	// Offset is the absolute position of the first metadata byte.
	Offset int64

	// Length is the number of bytes in the region.
	Length int64

	// Label names what was found, e.g. "ID3v2.3", "ID3v1" or "moov/udta/meta".
	Label string
}

// End returns the offset one past the last byte of the region.
func (r TagRegion) End() int64 {
	return r.Offset + r.Length
}

// Contains reports whether off lies inside the region.
func (r TagRegion) Contains(off int64) bool {
	return off >= r.Offset && off < r.End()
}

// String formats the region as "label@offset+length".
func (r TagRegion) String() string {
	return fmt.Sprintf("%s@%d+%d", r.Label, r.Offset, r.Length)
}

// TotalLength returns the sum of all region lengths.
func TotalLength(regions []TagRegion) int64 {
	var n int64
	for _, r := range regions {
		n += r.Length
	}
	return n
}

// RemovedBefore returns how many region bytes lie entirely before off.
//
// Regions must be sorted by offset. It is used to translate an offset of
// the original file into the matching offset of the stripped file.
func RemovedBefore(regions []TagRegion, off int64) int64 {
	var n int64
	for _, r := range regions {
		if r.End() > off {
			break
		}
		n += r.Length
	}
	return n
}
