package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/offlinefirst/inputtrail/pkg/capture"
	"github.com/offlinefirst/inputtrail/pkg/config"
	"github.com/offlinefirst/inputtrail/pkg/correlate"
	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/permissions"
	"github.com/offlinefirst/inputtrail/pkg/persist"
	"github.com/offlinefirst/inputtrail/pkg/screenshots"
	"github.com/offlinefirst/inputtrail/pkg/toggle"
)

type runOptions struct {
	planOnly bool
	progress time.Duration
}

func newRunCommand(rc *RootCommand) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Record input events and screenshots until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runRecorder(cmd.Context(), app, *opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.planOnly, "plan-only", false, "print the resolved configuration without recording")
	cmd.Flags().DurationVar(&opts.progress, "progress-interval", time.Minute, "how often to log recording counters (0 disables)")
	return cmd
}

var (
	timeNow            = time.Now
	newHookSource      = events.NewHookSource
	newDisplayProvider = screenshots.NewDisplayProvider
	shutdownSignals    = []os.Signal{os.Interrupt, syscall.SIGTERM}
)

func runRecorder(parent context.Context, app *AppContext, opts runOptions, stdout io.Writer) error {
	if app == nil {
		return fmt.Errorf("application context unavailable")
	}
	if parent == nil {
		parent = context.Background()
	}
	cfg := app.Config
	logger := app.Logger

	if opts.planOnly {
		printRunPlan(cfg, stdout)
		return nil
	}

	if probe := permissions.ProbeDirectory(cfg.Paths.DataDir); !probe.OK() {
		logger.Warn("data directory not ready; writes will fail per job", "status", probe.StatusString(), "detail", probe.Message, "guidance", probe.Guidance)
	}

	chord, err := toggle.ParseChord(cfg.Capture.ToggleChord)
	if err != nil {
		return fmt.Errorf("capture.toggle_chord: %w", err)
	}

	source, provider, err := buildSource(cfg, chord)
	if err != nil {
		return err
	}

	encoder, err := screenshots.NewEncoder(screenshots.EncoderOptions{
		Format:   cfg.Screenshots.Format,
		Quality:  cfg.Screenshots.Quality,
		MaxWidth: cfg.Screenshots.MaxWidth,
	})
	if err != nil {
		return err
	}
	writer, err := persist.NewWriter(persist.WriterOptions{
		Dir:      cfg.Paths.DataDir,
		Provider: provider,
		Encoder:  encoder,
	})
	if err != nil {
		return err
	}
	pool, err := persist.NewPool(persist.Options{
		Workers: cfg.Workers.Count,
		Handler: writer,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	correlator := correlate.New(events.NewRedactor(cfg.Capture.RedactKeys, cfg.Capture.KeepKeys))
	// Stamps restart from the wall clock each run; continue past existing
	// records so a clock step back never overwrites an earlier session.
	if latest, err := persist.LatestStamp(cfg.Paths.DataDir); err != nil {
		logger.Warn("could not scan data directory for existing records", "error", err)
	} else if latest > 0 {
		correlator.ResumeAfter(latest)
	}

	loop, err := capture.NewLoop(capture.Options{
		Toggle: toggle.New(toggle.Options{
			Chord:       chord,
			StartActive: cfg.Capture.StartActive,
			Logger:      logger,
		}),
		Correlator: correlator,
		Pool:       pool,
		IdleGating: cfg.Capture.IdleGating,
		Logger:     logger,
	})
	if err != nil {
		pool.Close(context.Background())
		return err
	}

	logger.Info("recording started",
		"data_dir", cfg.Paths.DataDir,
		"source", cfg.Capture.Source,
		"workers", pool.Workers(),
		"format", encoder.Extension(),
		"idle_gating", cfg.Capture.IdleGating,
		"chord", cfg.Capture.ToggleChord,
		"active", loop.Active(),
	)

	sigCtx, stop := signal.NotifyContext(parent, shutdownSignals...)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx, source)
	})
	if opts.progress > 0 {
		g.Go(func() error {
			reportProgress(gctx, opts.progress, loop, pool, app)
			return nil
		})
	}
	runErr := g.Wait()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Workers.DrainSeconds)*time.Second)
	defer drainCancel()
	poolStats, drainErr := pool.Close(drainCtx)
	if drainErr != nil {
		logger.Warn("persistence queue not drained", "pending", poolStats.Pending, "error", drainErr)
	}

	loopStats := loop.Stats()
	logger.Info("recording stopped",
		"events", loopStats.Seen,
		"records", loopStats.Records,
		"gated", loopStats.Gated,
		"toggles", loopStats.Toggles,
		"written", poolStats.Completed,
		"failed", poolStats.Failed,
	)
	fmt.Fprintf(stdout, "Recorded %d events into %s\n", loopStats.Seen, cfg.Paths.DataDir)
	fmt.Fprintf(stdout, "  records: %d submitted, %d written, %d failed, %d abandoned\n", poolStats.Submitted, poolStats.Completed, poolStats.Failed, poolStats.Pending)
	fmt.Fprintf(stdout, "  toggles: %d (gated %d events while idle)\n", loopStats.Toggles, loopStats.Gated)

	if runErr != nil {
		if errors.Is(runErr, events.ErrHookUnavailable) {
			logger.Error("input hook registration failed", "error", runErr)
		}
		return fmt.Errorf("capture loop: %w", runErr)
	}
	return nil
}

func buildSource(cfg config.Config, chord []events.Key) (events.Source, screenshots.Provider, error) {
	switch cfg.Capture.Source {
	case config.SourceSynthetic:
		source := events.NewSynthetic(events.SyntheticOptions{
			Clock: timeNow,
			Chord: chord,
		})
		return source, &screenshots.SyntheticProvider{}, nil
	case config.SourceHook, "":
		provider, err := newDisplayProvider(cfg.Screenshots.Display)
		if err != nil {
			return nil, nil, fmt.Errorf("screen capture: %w", err)
		}
		return newHookSource(), provider, nil
	default:
		return nil, nil, fmt.Errorf("unsupported capture source %q", cfg.Capture.Source)
	}
}

func reportProgress(ctx context.Context, every time.Duration, loop *capture.Loop, pool *persist.Pool, app *AppContext) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ls := loop.Stats()
			ps := pool.Stats()
			app.Logger.Info("recording progress",
				"active", loop.Active(),
				"events", ls.Seen,
				"records", ls.Records,
				"written", ps.Completed,
				"failed", ps.Failed,
				"pending", ps.Pending,
			)
		}
	}
}

func printRunPlan(cfg config.Config, stdout io.Writer) {
	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", cfg.Source)
	fmt.Fprintf(stdout, "  paths.data_dir: %s\n", cfg.Paths.DataDir)
	fmt.Fprintf(stdout, "  capture.source: %s\n", cfg.Capture.Source)
	fmt.Fprintf(stdout, "  capture.idle_gating: %t\n", cfg.Capture.IdleGating)
	fmt.Fprintf(stdout, "  capture.start_active: %t\n", cfg.Capture.StartActive)
	fmt.Fprintf(stdout, "  capture.toggle_chord: %s\n", cfg.Capture.ToggleChord)
	fmt.Fprintf(stdout, "  capture.redact_keys: %t\n", cfg.Capture.RedactKeys)
	fmt.Fprintf(stdout, "  screenshots.format: %s (quality %d, max width %d, display %d)\n", cfg.Screenshots.Format, cfg.Screenshots.Quality, cfg.Screenshots.MaxWidth, cfg.Screenshots.Display)
	workers := cfg.Workers.Count
	if workers == 0 {
		workers = persist.DefaultWorkers()
	}
	fmt.Fprintf(stdout, "  workers.count: %d (drain %ds)\n", workers, cfg.Workers.DrainSeconds)
	fmt.Fprintf(stdout, "  logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", cfg.Logging.Format)
}
