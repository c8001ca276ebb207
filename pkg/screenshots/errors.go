package screenshots

import "errors"

// ErrNoDisplay indicates no active display could be captured.
var ErrNoDisplay = errors.New("no active display available for capture")

// ErrUnsupported indicates this build carries no native capture backend.
var ErrUnsupported = errors.New("native screen capture not supported in this build")
