package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/handiism/metastrip/internal/model"
)

// m4aWithMeta builds ftyp, moov{mvhd, trak{...stco}, udta{meta}}, mdat and
// returns the file and the offset of the mdat payload.
func m4aWithMeta(meta []byte, wide bool) ([]byte, int64) {
	build := func(chunk uint64) []byte {
		var table []byte
		if wide {
			table = co64(chunk)
		} else {
			table = stco(uint32(chunk))
		}
		moov := atom("moov",
			atom("mvhd", make([]byte, 100)),
			atom("trak", atom("mdia", atom("minf", atom("stbl", table)))),
			atom("udta", meta),
		)
		return concat(ftyp(), moov)
	}

	head := build(0)
	payloadOffset := int64(len(head) + 8)
	return concat(build(uint64(payloadOffset)), atom("mdat", mpegFrames(300))), payloadOffset
}

func TestLocateAtoms_MetaInUdta(t *testing.T) {
	meta := metaBox(3)
	data, _ := m4aWithMeta(meta, false)

	scan, err := NewLocator().Locate(newTestReader(data, "song.m4a"), model.AtomBoxed)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(scan.Regions) != 1 {
		t.Fatalf("Regions = %v, want one", scan.Regions)
	}
	r := scan.Regions[0]
	if r.Label != "moov/udta/meta" || r.Length != int64(len(meta)) {
		t.Errorf("region = %v, want moov/udta/meta with length %d", r, len(meta))
	}
	if !bytes.Equal(data[r.Offset:r.End()], meta) {
		t.Error("region does not cover the meta box")
	}
}

func TestStrip_AtomBoxed(t *testing.T) {
	for _, wide := range []bool{false, true} {
		name := "stco"
		if wide {
			name = "co64"
		}

		t.Run(name, func(t *testing.T) {
			meta := metaBox(5)
			data, payloadOffset := m4aWithMeta(meta, wide)
			metaLen := len(meta)

			sr := newTestReader(data, "song.m4a")
			scan, err := NewLocator().Locate(sr, model.AtomBoxed)
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			out := stripBytes(t, sr, scan)

			if len(out) != len(data)-metaLen {
				t.Fatalf("stripped length = %d, want %d", len(out), len(data)-metaLen)
			}

			moovOffset := len(ftyp())
			if got, want := be32(out, moovOffset), be32(data, moovOffset)-uint32(metaLen); got != want {
				t.Errorf("moov size = %d, want %d", got, want)
			}

			// The chunk offset follows the payload to its new position.
			scan2, err := NewLocator().Locate(newTestReader(out, "song.m4a"), model.AtomBoxed)
			if err != nil {
				t.Fatalf("Locate() on stripped output error = %v", err)
			}
			if scan2.HasTags() {
				t.Fatalf("stripped output still has %v", scan2.Regions)
			}
			if len(scan2.chunks) != 1 {
				t.Fatalf("chunks = %v, want one table", scan2.chunks)
			}
			entry := scan2.chunks[0].EntriesOffset
			var chunk int64
			if wide {
				chunk = int64(binary.BigEndian.Uint64(out[entry:]))
			} else {
				chunk = int64(be32(out, int(entry)))
			}
			if chunk != payloadOffset-int64(metaLen) {
				t.Errorf("chunk offset = %d, want %d", chunk, payloadOffset-int64(metaLen))
			}
			if !bytes.Equal(out[chunk:], mpegFrames(300)) {
				t.Error("audio payload changed")
			}
		})
	}
}

func TestStrip_TopLevelMeta(t *testing.T) {
	meta := metaBox(2)
	moov := atom("moov", atom("mvhd", make([]byte, 100)))
	mdat := atom("mdat", mpegFrames(64))
	data := concat(ftyp(), meta, moov, mdat)

	sr := newTestReader(data, "song.mp4")
	scan, err := NewLocator().Locate(sr, model.AtomBoxed)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(scan.Regions) != 1 || scan.Regions[0].Label != "meta" {
		t.Fatalf("Regions = %v, want top-level meta", scan.Regions)
	}

	out := stripBytes(t, sr, scan)
	if want := concat(ftyp(), moov, mdat); !bytes.Equal(out, want) {
		t.Error("stripped output should be the file without the meta box")
	}
}

func TestStrip_ExtendedSizeParent(t *testing.T) {
	meta := metaBox(1)
	moov := extAtom("moov", atom("mvhd", make([]byte, 20)), meta)
	data := concat(ftyp(), moov, atom("mdat", mpegFrames(32)))

	sr := newTestReader(data, "song.m4a")
	scan, err := NewLocator().Locate(sr, model.AtomBoxed)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	out := stripBytes(t, sr, scan)

	moovOffset := len(ftyp())
	if be32(out, moovOffset) != 1 {
		t.Fatalf("moov should keep its extended size marker")
	}
	got := binary.BigEndian.Uint64(out[moovOffset+8:])
	if want := uint64(len(moov) - len(meta)); got != want {
		t.Errorf("moov extended size = %d, want %d", got, want)
	}
}

func TestLocateAtoms_SizeZero(t *testing.T) {
	// A trailing meta with size 0 extends to the end of the file.
	tail := rawAtom("meta", 0, make([]byte, 40))
	data := concat(ftyp(), atom("moov", atom("mvhd", make([]byte, 8))), atom("mdat", mpegFrames(16)), tail)

	sr := newTestReader(data, "song.m4a")
	scan, err := NewLocator().Locate(sr, model.AtomBoxed)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if len(scan.Regions) != 1 || scan.Regions[0].End() != int64(len(data)) || scan.Regions[0].Length != int64(len(tail)) {
		t.Fatalf("Regions = %v, want meta running to EOF", scan.Regions)
	}

	out := stripBytes(t, sr, scan)
	if len(out) != len(data)-len(tail) {
		t.Errorf("stripped length = %d, want %d", len(out), len(data)-len(tail))
	}
}

func TestLocateAtoms_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"size smaller than header", concat(ftyp(), rawAtom("moov", 4, make([]byte, 16)))},
		{"box past EOF", concat(ftyp(), rawAtom("mdat", 1000, make([]byte, 16)))},
		{"trailing partial header", concat(ftyp(), []byte{0, 0, 0})},
		{"child past parent", concat(ftyp(), atom("moov", rawAtom("udta", 64, make([]byte, 8))), make([]byte, 64))},
		{"whole file is metadata", metaBox(2)},
		{"chunk offset inside meta", func() []byte {
			meta := metaBox(1)
			head := concat(ftyp(), meta)
			return concat(head, atom("moov", atom("trak", atom("mdia", atom("minf", atom("stbl", stco(uint32(len(ftyp())+4))))))))
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := newTestReader(tt.data, "bad.m4a")
			scan, err := NewLocator().Locate(sr, model.AtomBoxed)
			if err == nil {
				// Some problems only surface when offsets are rewritten.
				_, err = Strip(&bytes.Buffer{}, sr, scan)
			}

			var mc *model.MalformedContainerError
			if !errors.As(err, &mc) {
				t.Fatalf("error = %v, want *model.MalformedContainerError", err)
			}
			if mc.Path != "bad.m4a" {
				t.Errorf("error path = %q, want bad.m4a", mc.Path)
			}
		})
	}
}

func TestStrip_NoRegionsIsIdentity(t *testing.T) {
	data := concat(ftyp(), atom("moov", atom("mvhd", make([]byte, 8))), atom("mdat", mpegFrames(50)))
	sr := newTestReader(data, "clean.m4a")

	scan, err := NewLocator().Locate(sr, model.AtomBoxed)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if out := stripBytes(t, sr, scan); !bytes.Equal(out, data) {
		t.Error("output differs from a clean input")
	}
}
