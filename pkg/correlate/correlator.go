// Package correlate pairs discrete input events with the last known pointer
// position and turns them into records ready for persistence.
package correlate

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/offlinefirst/inputtrail/pkg/events"
)

// Record is one unit of persistence: an ordered set of events keyed by stamp.
// Events holds the last pointer sample (when one was seen) followed by the
// discrete event that triggered the record.
type Record struct {
	Stamp    int64
	Kind     events.Kind
	Events   []events.Event
	Adjusted bool
}

// Pointer returns the pointer sample paired with the trigger, if any.
func (r Record) Pointer() (events.Event, bool) {
	if len(r.Events) < 2 {
		return events.Event{}, false
	}
	return r.Events[0], true
}

// Trigger returns the discrete event that produced the record.
func (r Record) Trigger() events.Event {
	return r.Events[len(r.Events)-1]
}

// JSON serialises the record as a JSON array of event documents.
func (r Record) JSON() ([]byte, error) {
	data, err := json.Marshal(r.Events)
	if err != nil {
		return nil, fmt.Errorf("encode record %d: %w", r.Stamp, err)
	}
	return data, nil
}

// Correlator keeps the most recent pointer sample and emits one record per
// discrete event.
type Correlator struct {
	redactor events.Redactor
	stamper  Stamper

	mu       sync.Mutex
	lastMove events.Event
	haveMove bool
}

// New constructs a correlator that applies redactor to key events.
func New(redactor events.Redactor) *Correlator {
	return &Correlator{redactor: redactor}
}

// Observe updates the pointer cell for motion and returns a record for every
// discrete event.
func (c *Correlator) Observe(event events.Event) (Record, bool) {
	switch event.Kind {
	case events.KindMouseMove:
		c.mu.Lock()
		c.lastMove = event
		c.haveMove = true
		c.mu.Unlock()
		return Record{}, false
	case events.KindButtonPress, events.KindButtonRelease,
		events.KindKeyPress, events.KindKeyRelease, events.KindWheel:
		c.mu.Lock()
		pointer, ok := c.lastMove, c.haveMove
		c.mu.Unlock()

		trigger := c.redactor.Apply(event)
		seq := make([]events.Event, 0, 2)
		if ok {
			seq = append(seq, pointer)
		}
		seq = append(seq, trigger)

		stamp, adjusted := c.stamper.Next(event.UnixMilli())
		return Record{Stamp: stamp, Kind: event.Kind, Events: seq, Adjusted: adjusted}, true
	default:
		return Record{}, false
	}
}

// LastPointer returns the most recent pointer sample.
func (c *Correlator) LastPointer() (events.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMove, c.haveMove
}

// ResumeAfter makes the next record stamp greater than last.
func (c *Correlator) ResumeAfter(last int64) {
	c.stamper.Seed(last)
}
