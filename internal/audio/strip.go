package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	sbinary "github.com/handiism/metastrip/internal/binary"
	"github.com/handiism/metastrip/internal/model"
)

// patch replaces len(Data) bytes at Offset of the original file while it is
// copied. Patches never overlap a tag region.
type patch struct {
	Offset int64
	Data   []byte
}

// Strip writes the contents of sr to w with every region of scan removed.
//
// For AtomBoxed files the declared size of every box enclosing a removed
// region shrinks by the bytes removed inside it, and stco/co64 chunk offsets
// are moved down by the bytes removed before them. With no regions the output
// is byte-identical to the input.
//
// Example:
//
//	scan, err := NewLocator().Locate(sr, model.AtomBoxed)
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	n, err := Strip(&buf, sr, scan)
//	// n == sr.Size() - scan.BytesRemoved()
func Strip(w io.Writer, sr *sbinary.SafeReader, scan *Scan) (int64, error) {
	patches, err := planPatches(sr, scan)
	if err != nil {
		return 0, normalise(err, sr.Path(), scan.Kind)
	}

	var written int64
	pos := int64(0)
	pi := 0

	copyKept := func(from, to int64) error {
		for from < to {
			// Apply any patch that starts inside [from, to).
			if pi < len(patches) && patches[pi].Offset < to {
				p := patches[pi]
				if p.Offset > from {
					n, err := io.Copy(w, io.NewSectionReader(sr.ReaderAt(), from, p.Offset-from))
					written += n
					if err != nil {
						return err
					}
				}
				n, err := w.Write(p.Data)
				written += int64(n)
				if err != nil {
					return err
				}
				from = p.Offset + int64(len(p.Data))
				pi++
				continue
			}

			n, err := io.Copy(w, io.NewSectionReader(sr.ReaderAt(), from, to-from))
			written += n
			if err != nil {
				return err
			}
			from = to
		}
		return nil
	}

	for _, r := range scan.Regions {
		if err := copyKept(pos, r.Offset); err != nil {
			return written, err
		}
		pos = r.End()
	}
	if err := copyKept(pos, scan.Size); err != nil {
		return written, err
	}

	if want := scan.Size - scan.BytesRemoved(); written != want {
		return written, fmt.Errorf("%s: wrote %d bytes, expected %d", sr.Path(), written, want)
	}

	return written, nil
}

// planPatches computes the header and chunk-table rewrites needed to keep an
// AtomBoxed file consistent after its regions are removed.
func planPatches(sr *sbinary.SafeReader, scan *Scan) ([]patch, error) {
	if scan.Kind != model.AtomBoxed || !scan.HasTags() {
		return nil, nil
	}

	var patches []patch

	for _, b := range scan.boxes {
		if insideRegion(scan.Regions, b.Offset) {
			continue
		}

		removed := removedWithin(scan.Regions, b.Offset, b.End())
		if removed == 0 || b.SizeField == 0 {
			continue
		}

		switch b.SizeField {
		case 4:
			data := make([]byte, 4)
			binary.BigEndian.PutUint32(data, uint32(b.Size-removed))
			patches = append(patches, patch{Offset: b.Offset, Data: data})
		case 8:
			data := make([]byte, 8)
			binary.BigEndian.PutUint64(data, uint64(b.Size-removed))
			patches = append(patches, patch{Offset: b.Offset + 8, Data: data})
		}
	}

	for _, t := range scan.chunks {
		p, err := chunkPatch(sr, scan.Regions, t)
		if err != nil {
			return nil, err
		}
		if p != nil {
			patches = append(patches, *p)
		}
	}

	sort.Slice(patches, func(i, j int) bool { return patches[i].Offset < patches[j].Offset })

	return patches, nil
}

// chunkPatch rewrites the entries of one chunk offset table, or returns nil
// when none of them move.
func chunkPatch(sr *sbinary.SafeReader, regions []model.TagRegion, t chunkTable) (*patch, error) {
	if t.Count == 0 || insideRegion(regions, t.EntriesOffset) {
		return nil, nil
	}

	size := t.entrySize()
	data, err := sr.Bytes(t.EntriesOffset, int(t.Count*size), "chunk offset table")
	if err != nil {
		return nil, err
	}

	changed := false
	for i := int64(0); i < t.Count; i++ {
		entry := data[i*size : (i+1)*size]

		var off int64
		if t.Wide {
			off = int64(binary.BigEndian.Uint64(entry))
		} else {
			off = int64(binary.BigEndian.Uint32(entry))
		}

		if insideRegion(regions, off) {
			return nil, malformed(model.AtomBoxed, t.EntriesOffset+i*size,
				"chunk offset %d points into a metadata box", off)
		}

		shift := model.RemovedBefore(regions, off)
		if shift == 0 {
			continue
		}
		changed = true

		if t.Wide {
			binary.BigEndian.PutUint64(entry, uint64(off-shift))
		} else {
			binary.BigEndian.PutUint32(entry, uint32(off-shift))
		}
	}

	if !changed {
		return nil, nil
	}
	return &patch{Offset: t.EntriesOffset, Data: data}, nil
}

func insideRegion(regions []model.TagRegion, off int64) bool {
	for _, r := range regions {
		if r.Contains(off) {
			return true
		}
	}
	return false
}

// removedWithin returns the region bytes that lie inside [start, end).
func removedWithin(regions []model.TagRegion, start, end int64) int64 {
	var n int64
	for _, r := range regions {
		if r.Offset >= start && r.End() <= end {
			n += r.Length
		}
	}
	return n
}
