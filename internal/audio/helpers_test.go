package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	sbinary "github.com/handiism/metastrip/internal/binary"
)

func newTestReader(data []byte, path string) *sbinary.SafeReader {
	return sbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
}

func synchsafe(n int) []byte {
	return []byte{byte(n >> 21 & 0x7F), byte(n >> 14 & 0x7F), byte(n >> 7 & 0x7F), byte(n & 0x7F)}
}

// id3Tag builds an ID3v2 tag with a zero-filled payload of the given size.
func id3Tag(major, flags byte, payload int) []byte {
	b := append([]byte{'I', 'D', '3', major, 0, flags}, synchsafe(payload)...)
	b = append(b, make([]byte, payload)...)
	if major == 4 && flags&id3FooterFlag != 0 {
		b = append(b, '3', 'D', 'I', major, 0, flags)
		b = append(b, synchsafe(payload)...)
	}
	return b
}

// id3v1Tag builds a 128-byte ID3v1 tag.
func id3v1Tag() []byte {
	b := make([]byte, id3v1Size)
	copy(b, "TAG")
	copy(b[3:], "Title")
	return b
}

// mpegFrames builds fake audio: frame syncs followed by a byte ramp.
func mpegFrames(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	b[0], b[1] = 0xFF, 0xFB
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// atom builds a box with a 32-bit size holding payload.
func atom(kind string, payload ...[]byte) []byte {
	body := concat(payload...)
	b := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(b, uint32(8+len(body)))
	copy(b[4:], kind)
	return append(b, body...)
}

// extAtom builds a box with a 64-bit extended size.
func extAtom(kind string, payload ...[]byte) []byte {
	body := concat(payload...)
	b := make([]byte, 16, 16+len(body))
	binary.BigEndian.PutUint32(b, 1)
	copy(b[4:], kind)
	binary.BigEndian.PutUint64(b[8:], uint64(16+len(body)))
	return append(b, body...)
}

// rawAtom builds a box header with an arbitrary declared size.
func rawAtom(kind string, size uint32, payload []byte) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b, size)
	copy(b[4:], kind)
	return append(b, payload...)
}

func stco(offsets ...uint32) []byte {
	payload := make([]byte, 8+4*len(offsets))
	binary.BigEndian.PutUint32(payload[4:], uint32(len(offsets)))
	for i, off := range offsets {
		binary.BigEndian.PutUint32(payload[8+4*i:], off)
	}
	return atom("stco", payload)
}

func co64(offsets ...uint64) []byte {
	payload := make([]byte, 8+8*len(offsets))
	binary.BigEndian.PutUint32(payload[4:], uint32(len(offsets)))
	for i, off := range offsets {
		binary.BigEndian.PutUint64(payload[8+8*i:], off)
	}
	return atom("co64", payload)
}

func ftyp() []byte {
	return atom("ftyp", []byte("M4A \x00\x00\x00\x00M4A isom"))
}

func metaBox(items int) []byte {
	ilst := make([][]byte, 0, items)
	for i := 0; i < items; i++ {
		ilst = append(ilst, atom("\xa9nam", atom("data", []byte{0, 0, 0, 1, 0, 0, 0, 0, 'x'})))
	}
	return atom("meta", []byte{0, 0, 0, 0}, atom("hdlr", make([]byte, 25)), atom("ilst", ilst...))
}

func stripBytes(t *testing.T, sr *sbinary.SafeReader, scan *Scan) []byte {
	t.Helper()

	var buf bytes.Buffer
	n, err := Strip(&buf, sr, scan)
	if err != nil {
		t.Fatalf("Strip() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("Strip() returned %d, wrote %d", n, buf.Len())
	}
	return buf.Bytes()
}

func be32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off:])
}
