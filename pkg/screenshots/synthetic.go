package screenshots

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
)

// SyntheticProvider renders a deterministic gradient frame. It backs headless
// runs and tests.
type SyntheticProvider struct {
	Width  int
	Height int

	frames atomic.Int64
}

// Grab renders a frame whose base hue advances with every call.
func (p *SyntheticProvider) Grab(ctx context.Context) (image.Image, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	width, height := p.Width, p.Height
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 200
	}
	hue := uint8(40 + p.frames.Add(1)*17%200)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: hue, G: uint8(x % 255), B: uint8(y % 255), A: 255})
		}
	}
	return img, nil
}

// Frames reports how many frames were rendered.
func (p *SyntheticProvider) Frames() int64 {
	return p.frames.Load()
}
