package events

import "testing"

func TestDetectEnvironmentSetsFields(t *testing.T) {
	env := DetectEnvironment()
	if env.Provider == "" {
		t.Fatalf("expected provider")
	}
	if env.Message == "" {
		t.Fatalf("expected message")
	}
	if env.Guidance == "" {
		t.Fatalf("expected guidance")
	}
}
