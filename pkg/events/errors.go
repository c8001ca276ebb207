package events

import "errors"

// ErrHookUnavailable indicates the global input hook could not be registered
// (missing accessibility permission, no display server, or a build without cgo).
var ErrHookUnavailable = errors.New("global input hook unavailable")
