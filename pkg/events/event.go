package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the variant carried by an Event.
type Kind string

const (
	KindMouseMove     Kind = "mouse_move"
	KindButtonPress   Kind = "button_press"
	KindButtonRelease Kind = "button_release"
	KindKeyPress      Kind = "key_press"
	KindKeyRelease    Kind = "key_release"
	KindWheel         Kind = "wheel"
)

// Discrete reports whether the kind is a discrete input (anything but pointer motion).
func (k Kind) Discrete() bool {
	switch k {
	case KindButtonPress, KindButtonRelease, KindKeyPress, KindKeyRelease, KindWheel:
		return true
	default:
		return false
	}
}

// Button names a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Key names a keyboard key using lowercase hook names ("ctrl", "alt", "p").
type Key string

// Event is a single input sample. Only the fields belonging to Kind are
// meaningful; use the constructors to build values.
type Event struct {
	Kind   Kind
	Time   time.Time
	Name   string
	X, Y   float64
	Button Button
	Key    Key
	DeltaX int64
	DeltaY int64
}

// MouseMove constructs a pointer motion event.
func MouseMove(at time.Time, x, y float64) Event {
	return Event{Kind: KindMouseMove, Time: at, X: x, Y: y}
}

// ButtonPress constructs a mouse button press.
func ButtonPress(at time.Time, b Button) Event {
	return Event{Kind: KindButtonPress, Time: at, Button: b}
}

// ButtonRelease constructs a mouse button release.
func ButtonRelease(at time.Time, b Button) Event {
	return Event{Kind: KindButtonRelease, Time: at, Button: b}
}

// KeyPress constructs a key press.
func KeyPress(at time.Time, k Key) Event {
	return Event{Kind: KindKeyPress, Time: at, Key: k}
}

// KeyRelease constructs a key release.
func KeyRelease(at time.Time, k Key) Event {
	return Event{Kind: KindKeyRelease, Time: at, Key: k}
}

// Wheel constructs a scroll event.
func Wheel(at time.Time, dx, dy int64) Event {
	return Event{Kind: KindWheel, Time: at, DeltaX: dx, DeltaY: dy}
}

// WithName returns a copy of the event carrying a display name.
func (e Event) WithName(name string) Event {
	e.Name = name
	return e
}

// UnixMilli returns the event timestamp in milliseconds since the epoch.
func (e Event) UnixMilli() int64 {
	return e.Time.UnixMilli()
}

// Validate rejects events with an unknown kind.
func (e Event) Validate() error {
	switch e.Kind {
	case KindMouseMove, KindButtonPress, KindButtonRelease, KindKeyPress, KindKeyRelease, KindWheel:
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// document is the on-disk shape: variant tag, timestamp, variant fields.
type document struct {
	Type      Kind     `json:"type"`
	Timestamp int64    `json:"timestamp"`
	Name      string   `json:"name,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Button    Button   `json:"button,omitempty"`
	Key       Key      `json:"key,omitempty"`
	DeltaX    *int64   `json:"delta_x,omitempty"`
	DeltaY    *int64   `json:"delta_y,omitempty"`
}

// MarshalJSON encodes only the fields belonging to the event's variant.
func (e Event) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	doc := document{Type: e.Kind, Timestamp: e.UnixMilli(), Name: e.Name}
	switch e.Kind {
	case KindMouseMove:
		x, y := e.X, e.Y
		doc.X, doc.Y = &x, &y
	case KindButtonPress, KindButtonRelease:
		doc.Button = e.Button
	case KindKeyPress, KindKeyRelease:
		doc.Key = e.Key
	case KindWheel:
		dx, dy := e.DeltaX, e.DeltaY
		doc.DeltaX, doc.DeltaY = &dx, &dy
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a document written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	decoded := Event{Kind: doc.Type, Time: time.UnixMilli(doc.Timestamp).UTC(), Name: doc.Name}
	if err := decoded.Validate(); err != nil {
		return err
	}
	switch doc.Type {
	case KindMouseMove:
		if doc.X != nil {
			decoded.X = *doc.X
		}
		if doc.Y != nil {
			decoded.Y = *doc.Y
		}
	case KindButtonPress, KindButtonRelease:
		decoded.Button = doc.Button
	case KindKeyPress, KindKeyRelease:
		decoded.Key = doc.Key
	case KindWheel:
		if doc.DeltaX != nil {
			decoded.DeltaX = *doc.DeltaX
		}
		if doc.DeltaY != nil {
			decoded.DeltaY = *doc.DeltaY
		}
	}
	*e = decoded
	return nil
}
