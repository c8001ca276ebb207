package correlate

import "sync"

// Stamper assigns strictly increasing millisecond stamps. A candidate that is
// not after the previous stamp (clock went backwards, or two events share a
// millisecond) is bumped to previous+1 so artifact names never collide.
type Stamper struct {
	mu   sync.Mutex
	last int64
}

// Next returns the stamp for candidate and whether it had to be adjusted.
func (s *Stamper) Next(candidate int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if candidate < 0 {
		candidate = 0
	}
	if candidate <= s.last {
		s.last++
		return s.last, true
	}
	s.last = candidate
	return candidate, false
}

// Seed makes every later stamp greater than last. It is used to continue
// after artifacts that already exist on disk.
func (s *Stamper) Seed(last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last > s.last {
		s.last = last
	}
}
