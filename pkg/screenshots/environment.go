package screenshots

// Environment describes screen capture availability.
type Environment struct {
	Provider  string
	Available bool
	Displays  int
	Message   string
}

const providerStub = "stub"

// DetectEnvironment reports the capture backend and the active display count.
func DetectEnvironment() Environment {
	if nativeBackend == "" {
		return Environment{Provider: providerStub, Message: "native capture not built; synthetic frames only"}
	}
	displays := activeDisplays()
	env := Environment{Provider: nativeBackend, Displays: displays, Available: displays > 0}
	if env.Available {
		env.Message = "primary display capturable"
	} else {
		env.Message = "no active display detected"
	}
	return env
}
