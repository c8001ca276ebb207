//go:build cgo && !headless

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// Wheel direction reported by libuiohook.
const (
	wheelVertical   = 3
	wheelHorizontal = 4
)

var (
	keyNamesOnce sync.Once
	keyNames     map[uint16]Key
)

// hookMu serialises hook sessions; gohook keeps process-wide state.
var hookMu sync.Mutex

// hookStart and hookEnd are swapped in tests. gohook's Start never fails
// synchronously: a registration failure only shows as a missing HookEnabled
// notification.
var (
	hookStart        = hook.Start
	hookEnd          = hook.End
	hookStartTimeout = 3 * time.Second
)

type hookSource struct {
	now func() time.Time
}

// NewHookSource returns the system-wide listen-only input hook.
func NewHookSource() Source {
	return hookSource{now: time.Now}
}

func (s hookSource) Stream(ctx context.Context, emit func(Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !hookMu.TryLock() {
		return fmt.Errorf("%w: another hook session is active", ErrHookUnavailable)
	}
	defer hookMu.Unlock()

	raw := hookStart()
	defer hookEnd()
	if err := awaitEnabled(ctx, raw, hookStartTimeout); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-raw:
			if !ok {
				return nil
			}
			if ev.Kind == hook.HookDisabled {
				return fmt.Errorf("%w: hook disabled by the system", ErrHookUnavailable)
			}
			translated, ok := translate(ev, s.now)
			if !ok {
				continue
			}
			if err := emit(translated); err != nil {
				return err
			}
		}
	}
}

// ProbeHook registers the hook, waits for it to come up and removes it again.
func ProbeHook(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !hookMu.TryLock() {
		return fmt.Errorf("%w: another hook session is active", ErrHookUnavailable)
	}
	defer hookMu.Unlock()

	raw := hookStart()
	defer hookEnd()
	return awaitEnabled(ctx, raw, hookStartTimeout)
}

// awaitEnabled blocks until gohook reports HookEnabled. Anything queued
// before it is discarded.
func awaitEnabled(ctx context.Context, raw <-chan hook.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: hook did not start within %s (check accessibility permission or the X11 display)", ErrHookUnavailable, timeout)
		case ev, ok := <-raw:
			if !ok {
				return fmt.Errorf("%w: hook channel closed before start", ErrHookUnavailable)
			}
			switch ev.Kind {
			case hook.HookEnabled:
				return nil
			case hook.HookDisabled:
				return fmt.Errorf("%w: hook disabled during start", ErrHookUnavailable)
			}
		}
	}
}

// translate maps a gohook event onto the event model. gohook follows the
// libuiohook numbering: MouseHold is the press, MouseDown the release and
// MouseUp the synthesized click. Typed and clicked notifications duplicate
// press/release pairs and are dropped.
func translate(ev hook.Event, now func() time.Time) (Event, bool) {
	at := ev.When
	if at.IsZero() {
		at = now()
	}
	at = at.UTC()

	switch ev.Kind {
	case hook.MouseMove, hook.MouseDrag:
		return MouseMove(at, float64(ev.X), float64(ev.Y)), true
	case hook.MouseHold:
		return ButtonPress(at, buttonName(ev.Button)), true
	case hook.MouseDown:
		return ButtonRelease(at, buttonName(ev.Button)), true
	case hook.KeyHold:
		event := KeyPress(at, keyName(ev.Keycode))
		if ev.Keychar != hook.CharUndefined && ev.Keychar > 0 {
			event = event.WithName(string(ev.Keychar))
		}
		return event, true
	case hook.KeyUp:
		return KeyRelease(at, keyName(ev.Keycode)), true
	case hook.MouseWheel:
		amount := int64(ev.Rotation)
		if ev.Direction == wheelHorizontal {
			return Wheel(at, amount, 0), true
		}
		return Wheel(at, 0, amount), true
	default:
		return Event{}, false
	}
}

func buttonName(code uint16) Button {
	for name, value := range hook.MouseMap {
		if value != code {
			continue
		}
		switch name {
		case "left":
			return ButtonLeft
		case "right":
			return ButtonRight
		case "center", "middle":
			return ButtonMiddle
		default:
			return Button(name)
		}
	}
	return Button(fmt.Sprintf("button%d", code))
}

func keyName(code uint16) Key {
	keyNamesOnce.Do(func() {
		keyNames = make(map[uint16]Key, len(hook.Keycode))
		for name, value := range hook.Keycode {
			// prefer the shortest alias ("ctrl" over "lctrl")
			if existing, ok := keyNames[value]; ok && shorterAlias(string(existing), name) {
				continue
			}
			keyNames[value] = Key(name)
		}
	})
	if name, ok := keyNames[code]; ok {
		return name
	}
	return Key(fmt.Sprintf("vc%d", code))
}

func shorterAlias(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a <= b
}

const hookBackend = "gohook"
