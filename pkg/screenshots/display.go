//go:build !headless && (cgo || !darwin)

package screenshots

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

const nativeBackend = "kbinani/screenshot"

// DisplayProvider captures a full display by index (0 is the primary display).
type DisplayProvider struct {
	Display int
}

// NewDisplayProvider returns a provider for the given display index.
func NewDisplayProvider(display int) (Provider, error) {
	if display < 0 {
		return nil, fmt.Errorf("display index must not be negative, got %d", display)
	}
	return DisplayProvider{Display: display}, nil
}

// Grab captures the display bounds at call time.
func (p DisplayProvider) Grab(ctx context.Context) (image.Image, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	count := screenshot.NumActiveDisplays()
	if count == 0 {
		return nil, ErrNoDisplay
	}
	if p.Display >= count {
		return nil, fmt.Errorf("%w: display %d requested, %d active", ErrNoDisplay, p.Display, count)
	}
	bounds := screenshot.GetDisplayBounds(p.Display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", p.Display, err)
	}
	return img, nil
}

func activeDisplays() int {
	return screenshot.NumActiveDisplays()
}
