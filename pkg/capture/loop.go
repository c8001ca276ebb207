// Package capture drives the recording pipeline: it consumes the input event
// stream, updates the idle toggle and the correlator, and hands records to
// the persistence pool. It is purely observational and never suppresses input.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/offlinefirst/inputtrail/pkg/correlate"
	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/logging"
	"github.com/offlinefirst/inputtrail/pkg/persist"
	"github.com/offlinefirst/inputtrail/pkg/toggle"
)

// Submitter accepts persistence jobs without blocking.
type Submitter interface {
	Submit(job persist.Job) error
}

// Options configure a Loop.
type Options struct {
	Toggle     *toggle.Toggle
	Correlator *correlate.Correlator
	Pool       Submitter
	// IdleGating persists records only while the toggle is active. When false
	// every discrete event is persisted.
	IdleGating bool
	Logger     *slog.Logger
}

// Stats counts what the loop observed.
type Stats struct {
	Seen     int
	Records  int
	Gated    int
	Rejected int
	Toggles  int
}

// Loop is the capture driver.
type Loop struct {
	toggle     *toggle.Toggle
	correlator *correlate.Correlator
	pool       Submitter
	gating     bool
	logger     *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewLoop validates options and constructs a loop.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Toggle == nil {
		return nil, errors.New("toggle must be provided")
	}
	if opts.Correlator == nil {
		return nil, errors.New("correlator must be provided")
	}
	if opts.Pool == nil {
		return nil, errors.New("pool must be provided")
	}
	logger := logging.OrDiscard(opts.Logger)
	return &Loop{
		toggle:     opts.Toggle,
		correlator: opts.Correlator,
		pool:       opts.Pool,
		gating:     opts.IdleGating,
		logger:     logger,
	}, nil
}

// Handle processes one event and returns it unchanged. It performs no I/O:
// records are serialised here and written by the pool.
func (l *Loop) Handle(event events.Event) events.Event {
	toggled := l.toggle.Handle(event)
	active := l.toggle.Active()

	record, ok := l.correlator.Observe(event)

	l.mu.Lock()
	l.stats.Seen++
	if toggled {
		l.stats.Toggles++
	}
	l.mu.Unlock()

	if !ok {
		return event
	}
	if l.gating && !active {
		l.count(func(s *Stats) { s.Gated++ })
		return event
	}
	if record.Adjusted {
		l.logger.Debug("record stamp adjusted", "stamp", record.Stamp, "event_ms", event.UnixMilli(), "kind", string(record.Kind))
	}

	data, err := record.JSON()
	if err != nil {
		l.count(func(s *Stats) { s.Rejected++ })
		l.logger.Error("encode record", "stamp", record.Stamp, "kind", string(record.Kind), "error", err)
		return event
	}
	if err := l.pool.Submit(persist.Job{Stamp: record.Stamp, Kind: record.Kind, JSON: data}); err != nil {
		l.count(func(s *Stats) { s.Rejected++ })
		l.logger.Warn("persist job rejected", "stamp", record.Stamp, "kind", string(record.Kind), "error", err)
		return event
	}
	l.count(func(s *Stats) { s.Records++ })
	return event
}

// Run consumes source until it ends or ctx is cancelled. Cancellation is a
// normal stop and returns nil; source failures such as hook registration
// errors are returned.
func (l *Loop) Run(ctx context.Context, source events.Source) error {
	if source == nil {
		return errors.New("event source must be provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	l.logger.Info("capture loop started", "state", l.toggle.State(), "idle_gating", l.gating)
	err := source.Stream(ctx, func(event events.Event) error {
		l.Handle(event)
		return nil
	})
	stats := l.Stats()
	l.logger.Info("capture loop stopped", "seen", stats.Seen, "records", stats.Records, "gated", stats.Gated, "toggles", stats.Toggles)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Stats returns a snapshot of loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Active reports the toggle state.
func (l *Loop) Active() bool {
	return l.toggle.Active()
}

func (l *Loop) count(update func(*Stats)) {
	l.mu.Lock()
	update(&l.stats)
	l.mu.Unlock()
}
