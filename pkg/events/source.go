package events

import (
	"context"
	"time"
)

// Source delivers input events sequentially to emit until the context is
// cancelled, the source is exhausted, or emit returns an error.
type Source interface {
	Stream(ctx context.Context, emit func(Event) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(Event) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(Event) error) error {
	return f(ctx, emit)
}

// Replay returns a source that emits the supplied events in order.
func Replay(timeline []Event) Source {
	return SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		if ctx == nil {
			ctx = context.Background()
		}
		for _, event := range timeline {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(event); err != nil {
				return err
			}
		}
		return nil
	})
}

// SyntheticOptions controls the scripted session produced by NewSynthetic.
type SyntheticOptions struct {
	Clock func() time.Time
	Step  time.Duration
	// Chord is pressed first so the session is recorded under idle gating.
	Chord []Key
}

// NewSynthetic builds a deterministic session: chord toggle, pointer motion,
// a left click, a scroll tick and a typed key.
func NewSynthetic(opts SyntheticOptions) Source {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	step := opts.Step
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	chord := opts.Chord
	if len(chord) == 0 {
		chord = []Key{"ctrl", "alt", "p"}
	}

	return SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		start := clock().UTC()
		n := 0
		at := func() time.Time {
			n++
			return start.Add(time.Duration(n) * step)
		}

		var timeline []Event
		for _, k := range chord {
			timeline = append(timeline, KeyPress(at(), k))
		}
		for i := len(chord) - 1; i >= 0; i-- {
			timeline = append(timeline, KeyRelease(at(), chord[i]))
		}
		timeline = append(timeline,
			MouseMove(at(), 120, 80),
			MouseMove(at(), 140, 96),
			ButtonPress(at(), ButtonLeft),
			ButtonRelease(at(), ButtonLeft),
			MouseMove(at(), 200, 300),
			Wheel(at(), 0, 1),
			KeyPress(at(), "h").WithName("h"),
			KeyRelease(at(), "h"),
		)
		return Replay(timeline).Stream(ctx, emit)
	})
}
