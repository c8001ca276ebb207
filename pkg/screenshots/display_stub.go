//go:build headless || (!cgo && darwin)

package screenshots

import "fmt"

const nativeBackend = ""

// NewDisplayProvider fails: this build has no native capture backend.
func NewDisplayProvider(display int) (Provider, error) {
	return nil, fmt.Errorf("%w (display %d)", ErrUnsupported, display)
}

func activeDisplays() int {
	return 0
}
