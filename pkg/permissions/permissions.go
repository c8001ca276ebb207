// Package permissions probes the host for the capabilities a capture run
// depends on. Probes never abort a run; they feed the doctor report and
// startup warnings.
package permissions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Status enumerates coarse probe results.
type Status string

const (
	// StatusUnknown indicates no explicit signal about the capability.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that the capability is usable.
	StatusGranted Status = "granted"
	// StatusDenied indicates the capability exists but access is refused.
	StatusDenied Status = "denied"
	// StatusMissing reports that the target does not exist yet.
	StatusMissing Status = "missing"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// ProbeResult represents the coarse state for a capability.
type ProbeResult struct {
	Status   Status
	Message  string
	Guidance string
}

// StatusString returns the string representation for reports.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}

// OK reports whether the capability is usable.
func (p ProbeResult) OK() bool {
	return p.Status == StatusGranted
}

// ProbeDirectory checks that dir exists, is a directory and is writable by
// the current process. An empty dir means the working directory.
func ProbeDirectory(dir string) ProbeResult {
	target := dir
	if target == "" {
		target = "."
	}
	abs, err := filepath.Abs(target)
	if err == nil {
		target = abs
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProbeResult{
				Status:   StatusMissing,
				Message:  fmt.Sprintf("data directory %s does not exist", target),
				Guidance: "create it first; artifacts are written without creating directories",
			}
		}
		return ProbeResult{Status: StatusUnknown, Message: fmt.Sprintf("stat %s: %v", target, err)}
	}
	if !info.IsDir() {
		return ProbeResult{Status: StatusDenied, Message: fmt.Sprintf("%s is not a directory", target)}
	}
	if err := checkWritable(target); err != nil {
		return ProbeResult{
			Status:   StatusDenied,
			Message:  fmt.Sprintf("data directory %s is not writable: %v", target, err),
			Guidance: "fix ownership or choose another --directory-path",
		}
	}
	return ProbeResult{Status: StatusGranted, Message: fmt.Sprintf("data directory %s is writable", target)}
}
