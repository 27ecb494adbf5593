package ioutils

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// ErrNoPicture is returned by Export when there is no image to save.
var ErrNoPicture = errors.New("no embedded picture")

// CoverOptions controls how embedded cover art is saved next to the audio file.
type CoverOptions struct {
	// FileNameFormat is expanded with FormatCoverName. Default: "{name}.cover".
	FileNameFormat string

	// MaxSize limits the width and height of the saved image. 0 keeps the
	// original dimensions.
	MaxSize int

	// ConvertToJPG re-encodes the image as JPEG.
	ConvertToJPG bool
}

// CoverExporter saves embedded cover art before the tags holding it are stripped.
//
// Example:
//
//	exp := NewCoverExporter(CoverOptions{FileNameFormat: "{album}", MaxSize: 1000})
//	saved, err := exp.Export(ctx, "/music/01.mp3", picture, "Band", "Record")
//	// saved == "/music/Record.jpg"
type CoverExporter struct {
	opts   CoverOptions
	images *ImageService
}

// NewCoverExporter creates a CoverExporter.
func NewCoverExporter(opts CoverOptions) *CoverExporter {
	if opts.FileNameFormat == "" {
		opts.FileNameFormat = "{name}.cover"
	}
	return &CoverExporter{opts: opts, images: NewImageService()}
}

// Export writes pic next to audioPath and returns the path it wrote.
func (e *CoverExporter) Export(ctx context.Context, audioPath string, pic *tag.Picture, artist, album string) (string, error) {
	if pic == nil || len(pic.Data) == 0 {
		return "", ErrNoPicture
	}

	data := pic.Data
	ext := pictureExt(pic)

	var err error
	switch {
	case e.opts.MaxSize > 0:
		data, err = e.images.ResizeImage(ctx, data, e.opts.MaxSize, e.opts.MaxSize)
		ext = ".jpg"
	case e.opts.ConvertToJPG && ext != ".jpg":
		data, err = e.images.ConvertToJPEG(ctx, data)
		ext = ".jpg"
	}
	if err != nil {
		return "", err
	}

	name := FormatCoverName(e.opts.FileNameFormat, audioPath, artist, album)
	dst := filepath.Join(filepath.Dir(audioPath), name+ext)

	if err := WriteFile(ctx, dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

// pictureExt returns a file extension with a leading dot for pic.
func pictureExt(pic *tag.Picture) string {
	ext := strings.ToLower(strings.TrimPrefix(pic.Ext, "."))
	if ext == "" {
		switch strings.ToLower(pic.MIMEType) {
		case "image/png":
			ext = "png"
		case "image/gif":
			ext = "gif"
		default:
			ext = "jpg"
		}
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return "." + ext
}
