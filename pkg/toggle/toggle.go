package toggle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/logging"
)

// DefaultChord is left control + alt + P.
const DefaultChord = "ctrl+alt+p"

// ParseChord splits a "+"-joined chord ("Ctrl+Alt+P") into lowercase key names.
func ParseChord(chord string) ([]events.Key, error) {
	trimmed := strings.TrimSpace(chord)
	if trimmed == "" {
		return nil, errors.New("chord must not be empty")
	}
	parts := strings.Split(strings.ToLower(trimmed), "+")
	keys := make([]events.Key, 0, len(parts))
	seen := make(map[events.Key]struct{}, len(parts))
	for _, p := range parts {
		name := events.Key(strings.TrimSpace(p))
		if name == "" {
			return nil, fmt.Errorf("chord %q has an empty key", chord)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("chord %q repeats key %q", chord, name)
		}
		seen[name] = struct{}{}
		keys = append(keys, name)
	}
	return keys, nil
}

// Options configure a Toggle.
type Options struct {
	Chord       []events.Key
	StartActive bool
	Logger      *slog.Logger
}

// Toggle flips the active flag once each time the chord is freshly formed.
// Holding the chord (including key auto-repeat) does not flip it again; a
// chord key must be released and the chord re-formed.
type Toggle struct {
	keys   *KeySet
	flag   *Flag
	chord  []events.Key
	logger *slog.Logger

	mu   sync.Mutex
	held bool
}

// New constructs a toggle; an empty chord falls back to DefaultChord.
func New(opts Options) *Toggle {
	chord := opts.Chord
	if len(chord) == 0 {
		chord, _ = ParseChord(DefaultChord)
	}
	logger := logging.OrDiscard(opts.Logger)
	return &Toggle{
		keys:   NewKeySet(),
		flag:   NewFlag(opts.StartActive),
		chord:  append([]events.Key(nil), chord...),
		logger: logger,
	}
}

// Observe applies a key transition and reports whether it flipped the flag.
func (t *Toggle) Observe(key events.Key, pressed bool) bool {
	t.mu.Lock()
	t.keys.Observe(key, pressed)
	complete := t.keys.ContainsAll(t.chord)
	flip := complete && !t.held
	t.held = complete
	t.mu.Unlock()

	if !flip {
		return false
	}
	active := t.flag.Invert()
	t.logger.Info("recording toggled", "state", stateName(active), "key", string(key))
	return true
}

// Handle feeds key events to Observe and ignores everything else.
func (t *Toggle) Handle(event events.Event) bool {
	switch event.Kind {
	case events.KindKeyPress:
		return t.Observe(event.Key, true)
	case events.KindKeyRelease:
		return t.Observe(event.Key, false)
	default:
		return false
	}
}

// Active reports the current flag value.
func (t *Toggle) Active() bool {
	return t.flag.Active()
}

// State reports "active" or "idle".
func (t *Toggle) State() string {
	return t.flag.State()
}

// Held returns the keys currently held down.
func (t *Toggle) Held() []events.Key {
	return t.keys.Keys()
}

func stateName(active bool) string {
	if active {
		return "active"
	}
	return "idle"
}
