package screenshots

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// EncoderOptions control how frames are written.
type EncoderOptions struct {
	// Format is "jpg" (default) or "png".
	Format string
	// Quality applies to JPEG output (1-100, default 90).
	Quality int
	// MaxWidth downsizes wider frames preserving aspect ratio; 0 keeps the original size.
	MaxWidth int
}

// Encoder turns frames into image file bytes.
type Encoder struct {
	format   imaging.Format
	ext      string
	quality  int
	maxWidth int
}

// NewEncoder validates options and constructs an encoder.
func NewEncoder(opts EncoderOptions) (*Encoder, error) {
	ext, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("resolve image format: %w", err)
	}
	quality := opts.Quality
	if quality == 0 {
		quality = 90
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within 1-100, got %d", quality)
	}
	if opts.MaxWidth < 0 {
		return nil, errors.New("max width must not be negative")
	}
	return &Encoder{format: format, ext: ext, quality: quality, maxWidth: opts.MaxWidth}, nil
}

// Extension returns the file extension without the leading dot.
func (e *Encoder) Extension() string {
	return e.ext
}

// Encode scales the frame when required and returns the encoded bytes.
func (e *Encoder) Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil frame")
	}
	if e.maxWidth > 0 && img.Bounds().Dx() > e.maxWidth {
		img = imaging.Resize(img, e.maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, e.format, imaging.JPEGQuality(e.quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.ext, err)
	}
	return buf.Bytes(), nil
}

// normalizeFormat maps format names to the file extension used on disk.
func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "jpg", "jpeg":
		return "jpg", nil
	case "png":
		return "png", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}
