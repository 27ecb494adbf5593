package audio

import (
	"math"

	"github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

const (
	boxHeaderSize         = 8
	boxExtendedHeaderSize = 16
)

// box is one box visited while walking the container.
type box struct {
	Offset     int64
	Size       int64 // resolved total size, including the header
	HeaderSize int64
	Type       string
	Path       string // slash-joined kinds from the top level, e.g. "moov/udta/meta"

	// SizeField is the width in bytes of the declared size (4 or 8), or 0
	// when the box was declared with size 0 and extends to its parent's end.
	SizeField int
}

// End returns the offset one past the box.
func (b box) End() int64 {
	return b.Offset + b.Size
}

// chunkTable is an stco or co64 box: absolute file offsets of media chunks.
type chunkTable struct {
	EntriesOffset int64
	Count         int64
	Wide          bool // co64: 8-byte entries
}

// containerKinds are the boxes the walker descends into.
var containerKinds = map[string]bool{
	"moov": true, // Movie container
	"trak": true, // Track container
	"udta": true, // User data
	"mdia": true, // Media container
	"minf": true, // Media information
	"stbl": true, // Sample table
}

// metaParents are the places a descriptive "meta" box is removed from.
var metaParents = map[string]bool{
	"":               true,
	"moov":           true,
	"moov/udta":      true,
	"moov/trak/udta": true,
}

// locateAtoms walks the box tree and records every descriptive metadata box
// as a tag region.
func locateAtoms(sr *binary.SafeReader, scan *Scan) error {
	if err := walkBoxes(sr, scan, 0, sr.Size(), ""); err != nil {
		return err
	}

	if scan.Size > 0 && scan.BytesRemoved() >= scan.Size {
		return malformed(model.AtomBoxed, 0, "metadata boxes cover the whole file")
	}

	return nil
}

// walkBoxes visits the boxes in [start, end). parent is the path of the
// enclosing box, "" at the top level.
func walkBoxes(sr *binary.SafeReader, scan *Scan, start, end int64, parent string) error {
	off := start

	for off < end {
		if end-off < boxHeaderSize {
			return malformed(model.AtomBoxed, off, "truncated box header: %d bytes left", end-off)
		}

		b, err := readBoxHeader(sr, off, end)
		if err != nil {
			return err
		}
		if parent != "" {
			b.Path = parent + "/" + b.Type
		} else {
			b.Path = b.Type
		}
		scan.boxes = append(scan.boxes, b)

		switch {
		case b.Type == "meta" && metaParents[parent]:
			scan.Regions = append(scan.Regions, model.TagRegion{Offset: b.Offset, Length: b.Size, Label: b.Path})
		case containerKinds[b.Type] && (parent != "" || b.Type == "moov"):
			if err := walkBoxes(sr, scan, b.Offset+b.HeaderSize, b.End(), b.Path); err != nil {
				return err
			}
		case b.Type == "stco" || b.Type == "co64":
			table, err := readChunkTable(sr, b)
			if err != nil {
				return err
			}
			scan.chunks = append(scan.chunks, table)
		}

		if b.SizeField == 0 {
			// Size 0: the box runs to the end of its parent.
			break
		}
		off = b.End()
	}

	return nil
}

// readBoxHeader reads the header of the box at off, which must end by end.
func readBoxHeader(sr *binary.SafeReader, off, end int64) (box, error) {
	size32, err := sr.Uint32(off, "box size")
	if err != nil {
		return box{}, err
	}
	typ, err := sr.Bytes(off+4, 4, "box type")
	if err != nil {
		return box{}, err
	}

	b := box{
		Offset:     off,
		Type:       string(typ),
		HeaderSize: boxHeaderSize,
		SizeField:  4,
	}

	switch size32 {
	case 0:
		b.Size = end - off
		b.SizeField = 0
	case 1:
		if end-off < boxExtendedHeaderSize {
			return box{}, malformed(model.AtomBoxed, off, "truncated extended size of %q box", b.Type)
		}
		size64, err := sr.Uint64(off+8, "extended box size")
		if err != nil {
			return box{}, err
		}
		if size64 > math.MaxInt64 {
			return box{}, malformed(model.AtomBoxed, off, "extended size %d of %q box overflows", size64, b.Type)
		}
		b.Size = int64(size64)
		b.HeaderSize = boxExtendedHeaderSize
		b.SizeField = 8
	default:
		b.Size = int64(size32)
	}

	if b.Size < b.HeaderSize {
		return box{}, malformed(model.AtomBoxed, off, "%q box declares size %d, smaller than its %d-byte header",
			b.Type, b.Size, b.HeaderSize)
	}
	if b.Size > end-off {
		return box{}, malformed(model.AtomBoxed, off, "%q box declares size %d but only %d bytes remain",
			b.Type, b.Size, end-off)
	}

	return b, nil
}

// readChunkTable reads the entry count of an stco or co64 box.
//
// Layout: version/flags (4), entry count (4), entries (4 or 8 bytes each).
func readChunkTable(sr *binary.SafeReader, b box) (chunkTable, error) {
	payload := b.Offset + b.HeaderSize
	if b.Size-b.HeaderSize < 8 {
		return chunkTable{}, malformed(model.AtomBoxed, b.Offset, "%s box too small", b.Type)
	}

	count, err := sr.Uint32(payload+4, b.Type+" entry count")
	if err != nil {
		return chunkTable{}, err
	}

	table := chunkTable{
		EntriesOffset: payload + 8,
		Count:         int64(count),
		Wide:          b.Type == "co64",
	}

	if table.EntriesOffset+table.Count*table.entrySize() > b.End() {
		return chunkTable{}, malformed(model.AtomBoxed, b.Offset, "%s declares %d entries, more than fit in the box",
			b.Type, count)
	}

	return table, nil
}

func (t chunkTable) entrySize() int64 {
	if t.Wide {
		return 8
	}
	return 4
}
