//go:build !cgo || headless

package events

import (
	"context"
	"fmt"
)

type unavailableSource struct{}

// NewHookSource returns a source that always fails: this build has no hook backend.
func NewHookSource() Source {
	return unavailableSource{}
}

func (unavailableSource) Stream(ctx context.Context, emit func(Event) error) error {
	return fmt.Errorf("%w: built without cgo hook support", ErrHookUnavailable)
}

// ProbeHook always fails: this build has no hook backend.
func ProbeHook(ctx context.Context) error {
	return fmt.Errorf("%w: built without cgo hook support", ErrHookUnavailable)
}

const hookBackend = ""
