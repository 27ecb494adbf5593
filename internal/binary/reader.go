// Package binary provides bounds-checked big-endian reads over an io.ReaderAt.
//
// Both tag formats handled by metastrip store their header fields big-endian:
// box sizes in ISO base media files and frame sizes in ID3v2. SafeReader turns
// every out-of-range read into an *OutOfBoundsError naming what was being read,
// so locators can report malformed containers instead of short reads.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// OutOfBoundsError is returned when a read would fall outside the file.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader over the first size bytes of r.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the readable size in bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReaderAt returns the underlying reader.
func (sr *SafeReader) ReaderAt() io.ReaderAt {
	return sr.r
}

// ReadAt fills b from offset off. what describes the field for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off+int64(len(b)) > sr.size || (len(b) > 0 && off >= sr.size) {
		return &OutOfBoundsError{Path: sr.path, What: what, Offset: off, Length: len(b), Size: sr.size}
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}
	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}

	return nil
}

// Bytes reads n bytes at off into a new slice.
func (sr *SafeReader) Bytes(off int64, n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	if err := sr.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// HasPrefix reports whether the bytes at off equal sig. Reads that would run
// past the end of the file simply report false.
func (sr *SafeReader) HasPrefix(off int64, sig string) (bool, error) {
	if off < 0 || off+int64(len(sig)) > sr.size {
		return false, nil
	}
	buf, err := sr.Bytes(off, len(sig), "signature "+sig)
	if err != nil {
		return false, err
	}
	return string(buf) == sig, nil
}

// Uint32 reads a big-endian uint32 at off.
func (sr *SafeReader) Uint32(off int64, what string) (uint32, error) {
	var buf [4]byte
	if err := sr.ReadAt(buf[:], off, what); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// Uint64 reads a big-endian uint64 at off.
func (sr *SafeReader) Uint64(off int64, what string) (uint64, error) {
	var buf [8]byte
	if err := sr.ReadAt(buf[:], off, what); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Synchsafe decodes a 4-byte ID3v2 synchsafe integer (7 bits per byte).
//
// ok is false when any byte has its high bit set, which a valid synchsafe
// integer never does.
func Synchsafe(b []byte) (v uint32, ok bool) {
	if len(b) != 4 {
		return 0, false
	}
	for _, c := range b {
		if c&0x80 != 0 {
			return 0, false
		}
	}
	return uint32(b[0])<<21 | uint32(b[1])<<14 | uint32(b[2])<<7 | uint32(b[3]), true
}
