package events

import "strings"

// RedactedKey replaces masked key names in persisted records.
const RedactedKey Key = "[REDACTED]"

// DefaultKeptKeys are the keys left visible when redaction is enabled.
var DefaultKeptKeys = []string{"ctrl", "rctrl", "alt", "ralt", "shift", "rshift", "cmd", "rcmd", "esc", "enter", "tab", "space", "backspace"}

// Redactor masks key identities in key events before they are persisted.
//
// The zero value is a no-op redactor.
type Redactor struct {
	enabled bool
	keep    map[Key]struct{}
}

// NewRedactor constructs a redactor. When enabled, every key outside keep is
// replaced by RedactedKey and the display name is dropped.
func NewRedactor(enabled bool, keep []string) Redactor {
	r := Redactor{enabled: enabled, keep: make(map[Key]struct{}, len(keep))}
	for _, k := range keep {
		trimmed := strings.ToLower(strings.TrimSpace(k))
		if trimmed == "" {
			continue
		}
		r.keep[Key(trimmed)] = struct{}{}
	}
	return r
}

// Apply returns the event with its key masked when required.
func (r Redactor) Apply(event Event) Event {
	if !r.enabled {
		return event
	}
	if event.Kind != KindKeyPress && event.Kind != KindKeyRelease {
		return event
	}
	if _, ok := r.keep[event.Key]; ok {
		return event
	}
	event.Key = RedactedKey
	event.Name = ""
	return event
}
