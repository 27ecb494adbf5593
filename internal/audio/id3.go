package audio

import (
	"errors"
	"fmt"

	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

const (
	id3HeaderSize     = 10
	id3FooterSize     = 10
	id3FooterFlag     = 0x10
	id3v1Size         = 128
	id3v1EnhancedSize = 227
)

// id3Header is the fixed 10-byte header (or footer) of an ID3v2 tag.
type id3Header struct {
	Major    byte
	Revision byte
	Flags    byte
	Size     uint32 // synchsafe-decoded payload size, excluding header and footer
}

// TotalSize returns the full tag extent: header, payload and optional footer.
func (h id3Header) TotalSize() int64 {
	n := int64(id3HeaderSize) + int64(h.Size)
	if h.Major == 4 && h.Flags&id3FooterFlag != 0 {
		n += id3FooterSize
	}
	return n
}

// Label names the tag version, e.g. "ID3v2.4".
func (h id3Header) Label() string {
	return fmt.Sprintf("ID3v2.%d", h.Major)
}

// readID3Header reads an ID3v2 header or footer at off. found is false when
// sig is not present there; a present signature with invalid fields is a
// malformed container.
func readID3Header(sr *binary.SafeReader, off int64, sig string) (h id3Header, found bool, err error) {
	if off < 0 || off+id3HeaderSize > sr.Size() {
		return h, false, nil
	}

	buf, err := sr.Bytes(off, id3HeaderSize, "ID3v2 header")
	if err != nil {
		return h, false, err
	}
	if string(buf[:3]) != sig {
		return h, false, nil
	}

	h = id3Header{Major: buf[3], Revision: buf[4], Flags: buf[5]}
	if h.Major < 2 || h.Major > 4 || h.Revision == 0xFF {
		return h, true, malformed(model.FrameTagged, off, "unsupported ID3v2 version 2.%d.%d", h.Major, h.Revision)
	}

	size, ok := binary.Synchsafe(buf[6:10])
	if !ok {
		return h, true, malformed(model.FrameTagged, off+6, "ID3v2 size is not synchsafe")
	}
	h.Size = size

	return h, true, nil
}

// locateFrameTags finds ID3 tags at the start and, if trailing is set, at
// the end of an MPEG audio stream.
func locateFrameTags(sr *binary.SafeReader, trailing bool) ([]model.TagRegion, error) {
	var regions []model.TagRegion

	// Leading tags. Some taggers stack several complete tags back to back.
	var off int64
	for {
		h, found, err := readID3Header(sr, off, "ID3")
		if err != nil && off > 0 && isMalformed(err) {
			// Audio data that happens to start with "ID3".
			break
		}
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}

		total := h.TotalSize()
		if off+total > sr.Size() {
			return nil, malformed(model.FrameTagged, off,
				"%s declares %d bytes but only %d remain", h.Label(), total, sr.Size()-off)
		}

		regions = append(regions, model.TagRegion{Offset: off, Length: total, Label: h.Label()})
		off += total
	}

	if trailing {
		tail, err := locateTrailingTags(sr, off)
		if err != nil {
			return nil, err
		}
		regions = append(regions, tail...)
	}

	if sr.Size() > 0 && model.TotalLength(regions) >= sr.Size() {
		return nil, malformed(model.FrameTagged, 0, "tags cover the whole file, no audio frames")
	}

	return regions, nil
}

// locateTrailingTags finds tags appended after the audio frames. Candidates
// that would start before floor (the end of the leading tags) are ignored.
// The result is sorted by offset.
func locateTrailingTags(sr *binary.SafeReader, floor int64) ([]model.TagRegion, error) {
	var tail []model.TagRegion
	end := sr.Size()

	if start := end - id3v1Size; start >= floor {
		ok, err := sr.HasPrefix(start, "TAG")
		if err != nil {
			return nil, err
		}
		if ok {
			tail = append(tail, model.TagRegion{Offset: start, Length: id3v1Size, Label: "ID3v1"})
			end = start

			if start := end - id3v1EnhancedSize; start >= floor {
				ok, err := sr.HasPrefix(start, "TAG+")
				if err != nil {
					return nil, err
				}
				if ok {
					tail = append(tail, model.TagRegion{Offset: start, Length: id3v1EnhancedSize, Label: "ID3v1 enhanced"})
					end = start
				}
			}
		}
	}

	// An appended ID3v2.4 tag is found through its footer.
	footer, found, err := readID3Header(sr, end-id3FooterSize, "3DI")
	if err != nil && isMalformed(err) {
		found = false
	} else if err != nil {
		return nil, err
	}
	if found {
		total := int64(id3HeaderSize) + int64(footer.Size) + id3FooterSize
		start := end - total
		if start >= floor {
			h, ok, err := readID3Header(sr, start, "ID3")
			if err != nil && !isMalformed(err) {
				return nil, err
			}
			if err == nil && ok && h.Size == footer.Size {
				tail = append(tail, model.TagRegion{Offset: start, Length: total, Label: h.Label() + " appended"})
			}
		}
	}

	// Collected from the end backwards.
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}

	return tail, nil
}

func isMalformed(err error) bool {
	var mc *model.MalformedContainerError
	return errors.As(err, &mc)
}
