package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService resizes and re-encodes cover art saved by CoverExporter.
//
// Example usage:
//
//	svc := NewImageService()
//	resized, _ := svc.ResizeImage(ctx, pic.Data, 500, 500)
//	jpeg, _ := svc.ConvertToJPEG(ctx, pic.Data)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// ResizeImage scales an image down to fit within maxWidth x maxHeight.
//
// The aspect ratio is preserved and images that already fit keep their
// dimensions. The result is always JPEG-encoded. Scaling uses Catmull-Rom.
//
// Example:
//
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
//	// A 1500x1000 image becomes 1000x666
//	// A 800x600 image remains 800x600 (but re-encoded)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid maximum size %dx%d", maxWidth, maxHeight)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover art: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	width, height = max(width, 1), max(height, 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ConvertToJPEG re-encodes a PNG, GIF or JPEG image as JPEG at quality 90.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover art: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
