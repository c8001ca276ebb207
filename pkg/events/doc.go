// Package events models global input events and the sources that deliver
// them: a system-wide hook backed by gohook (listen-only, events are never
// suppressed) and a deterministic synthetic source for headless runs and
// automated tests.
package events
