package events

// Environment summarises input hook backend support.
type Environment struct {
	Provider  string
	Available bool
	Message   string
	Guidance  string
}

const providerUnavailable = "unavailable"

// DetectEnvironment reports whether this build carries a global hook backend.
func DetectEnvironment() Environment {
	if hookBackend == "" {
		return Environment{
			Provider: providerUnavailable,
			Message:  "built without cgo hook support",
			Guidance: "rebuild with CGO_ENABLED=1 and without the headless tag, or set capture.source: synthetic",
		}
	}
	return Environment{
		Provider:  hookBackend,
		Available: true,
		Message:   "listen-only global hook",
		Guidance:  "grant accessibility/input monitoring permission on macOS; an X11 session is required on Linux",
	}
}
