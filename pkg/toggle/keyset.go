// Package toggle implements the idle/active switch: a set of held keys and an
// edge-triggered chord that flips a shared active flag.
package toggle

import (
	"sort"
	"sync"

	"github.com/offlinefirst/inputtrail/pkg/events"
)

// KeySet tracks the keys currently held down.
type KeySet struct {
	mu   sync.Mutex
	held map[events.Key]struct{}
}

// NewKeySet returns an empty set.
func NewKeySet() *KeySet {
	return &KeySet{held: make(map[events.Key]struct{})}
}

// Observe records a press or release. Releasing a key that is not held is a no-op.
func (s *KeySet) Observe(key events.Key, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pressed {
		s.held[key] = struct{}{}
		return
	}
	delete(s.held, key)
}

// ContainsAll reports whether every key is currently held.
func (s *KeySet) ContainsAll(keys []events.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsAllLocked(keys)
}

func (s *KeySet) containsAllLocked(keys []events.Key) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if _, ok := s.held[k]; !ok {
			return false
		}
	}
	return true
}

// Keys returns the held keys in sorted order.
func (s *KeySet) Keys() []events.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Key, 0, len(s.held))
	for k := range s.held {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
