// Package screenshots captures the primary display and encodes frames for
// persistence next to their event records.
package screenshots

import (
	"context"
	"image"
)

// Provider produces a raster of the display on demand.
type Provider interface {
	Grab(ctx context.Context) (image.Image, error)
}

// ProviderFunc adapts a function literal to the Provider interface.
type ProviderFunc func(ctx context.Context) (image.Image, error)

// Grab calls the underlying function.
func (f ProviderFunc) Grab(ctx context.Context) (image.Image, error) {
	return f(ctx)
}
