package toggle

import "sync"

// Flag is the shared active/idle switch.
type Flag struct {
	mu     sync.Mutex
	active bool
}

// NewFlag constructs a flag in the given state.
func NewFlag(active bool) *Flag {
	return &Flag{active: active}
}

// Active reports whether recording is enabled.
func (f *Flag) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Set forces the flag into a state.
func (f *Flag) Set(active bool) {
	f.mu.Lock()
	f.active = active
	f.mu.Unlock()
}

// Invert flips the flag and returns the new state.
func (f *Flag) Invert() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = !f.active
	return f.active
}

// State reports the textual state for diagnostics.
func (f *Flag) State() string {
	if f.Active() {
		return "active"
	}
	return "idle"
}
