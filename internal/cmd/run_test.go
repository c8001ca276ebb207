package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/offlinefirst/inputtrail/pkg/config"
	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/screenshots"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syntheticConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Capture.Source = config.SourceSynthetic
	cfg.Workers.Count = 2
	cfg.Workers.DrainSeconds = 5
	return cfg
}

func countArtifacts(t *testing.T, dir string) (records, images int) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".json":
			records++
		case ".jpg", ".png":
			images++
		default:
			t.Fatalf("unexpected file %s", entry.Name())
		}
	}
	return records, images
}

func withFixedClock(t *testing.T) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })
}

func TestRunCommandPlanOnly(t *testing.T) {
	cfg := config.Default()
	ctx := &AppContext{Config: cfg, Logger: newTestLogger()}

	var stdout bytes.Buffer
	if err := runRecorder(context.Background(), ctx, runOptions{planOnly: true}, &stdout); err != nil {
		t.Fatalf("runRecorder returned error: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "Resolved configuration") || !strings.Contains(out, "capture.toggle_chord: ctrl+alt+p") {
		t.Fatalf("expected plan output, got %q", out)
	}
}

func TestRunRecorderSyntheticSessionWritesPairs(t *testing.T) {
	withFixedClock(t)
	cfg := syntheticConfig(t)
	ctx := &AppContext{Config: cfg, Logger: newTestLogger()}

	var stdout bytes.Buffer
	if err := runRecorder(context.Background(), ctx, runOptions{}, &stdout); err != nil {
		t.Fatalf("runRecorder returned error: %v", err)
	}

	records, images := countArtifacts(t, cfg.Paths.DataDir)
	// Everything from the chord-completing press onward: p press, three
	// chord releases, click press/release, wheel, h press/release.
	if records != 9 || images != 9 {
		t.Fatalf("expected 9 artifact pairs, got %d records and %d images", records, images)
	}
	if !strings.Contains(stdout.String(), "9 submitted, 9 written, 0 failed") {
		t.Fatalf("unexpected summary %q", stdout.String())
	}

	first := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC).Add(30 * time.Millisecond).UnixMilli()
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, fmt.Sprintf("%d.json", first))); err != nil {
		t.Fatalf("expected record for chord-completing press: %v", err)
	}
}

func TestRunRecorderWithoutGatingRecordsChord(t *testing.T) {
	withFixedClock(t)
	cfg := syntheticConfig(t)
	cfg.Capture.IdleGating = false
	cfg.Screenshots.Format = "png"
	ctx := &AppContext{Config: cfg, Logger: newTestLogger()}

	if err := runRecorder(context.Background(), ctx, runOptions{}, io.Discard); err != nil {
		t.Fatalf("runRecorder returned error: %v", err)
	}
	records, images := countArtifacts(t, cfg.Paths.DataDir)
	if records != 11 || images != 11 {
		t.Fatalf("expected 11 artifact pairs, got %d/%d", records, images)
	}
}

func TestRunRecorderFailsWhenHookUnavailable(t *testing.T) {
	origHook, origDisplay := newHookSource, newDisplayProvider
	newHookSource = func() events.Source {
		return events.SourceFunc(func(ctx context.Context, emit func(events.Event) error) error {
			return fmt.Errorf("register hook: %w", events.ErrHookUnavailable)
		})
	}
	newDisplayProvider = func(int) (screenshots.Provider, error) {
		return &screenshots.SyntheticProvider{}, nil
	}
	defer func() { newHookSource, newDisplayProvider = origHook, origDisplay }()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	ctx := &AppContext{Config: cfg, Logger: newTestLogger()}

	err := runRecorder(context.Background(), ctx, runOptions{}, io.Discard)
	if !errors.Is(err, events.ErrHookUnavailable) {
		t.Fatalf("expected hook unavailable error, got %v", err)
	}
}

func TestRunRecorderStopsOnCancellation(t *testing.T) {
	origHook, origDisplay := newHookSource, newDisplayProvider
	newHookSource = func() events.Source {
		return events.SourceFunc(func(ctx context.Context, emit func(events.Event) error) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}
	newDisplayProvider = func(int) (screenshots.Provider, error) {
		return &screenshots.SyntheticProvider{}, nil
	}
	defer func() { newHookSource, newDisplayProvider = origHook, origDisplay }()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	app := &AppContext{Config: cfg, Logger: newTestLogger()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runRecorder(ctx, app, runOptions{progress: 10 * time.Millisecond}, io.Discard); err != nil {
		t.Fatalf("cancellation should be a clean stop, got %v", err)
	}
}

func writeSyntheticConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputtrail.yaml")
	content := "capture:\n  source: synthetic\nworkers:\n  count: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRootCommandRecordsAndExports(t *testing.T) {
	withFixedClock(t)
	cfgPath := writeSyntheticConfig(t)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOutput(&stdout, &stderr)
	if err := root.Execute([]string{"--config", cfgPath, "--log-format", "console", "-d", dir}); err != nil {
		t.Fatalf("root command returned error: %v (stderr: %s)", err, stderr.String())
	}
	if records, _ := countArtifacts(t, dir); records != 9 {
		t.Fatalf("expected 9 records in %s, got %d", dir, records)
	}

	csvPath := filepath.Join(t.TempDir(), "data.csv")
	exporter := NewRootCommand()
	exporter.SetOutput(&stdout, &stderr)
	if err := exporter.Execute([]string{"export", "--config", cfgPath, "-d", dir, "-o", csvPath}); err != nil {
		t.Fatalf("export returned error: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// header, move, press, release, move before the scroll tick
	if len(rows) != 5 {
		t.Fatalf("expected 5 csv rows, got %d: %v", len(rows), rows)
	}
	if rows[2][2] != "Left" || rows[2][3] != "Pressed" || rows[2][4] != "140" || rows[2][5] != "96" {
		t.Fatalf("unexpected press row %v", rows[2])
	}
}

func TestRootCommandRejectsUnknownCommand(t *testing.T) {
	root := NewRootCommand()
	root.SetOutput(io.Discard, io.Discard)
	if err := root.Execute([]string{"bogus"}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

func TestDoctorFailsWithoutHook(t *testing.T) {
	origHook := detectHook
	detectHook = func() events.Environment {
		return events.Environment{Provider: "unavailable", Message: "built without cgo", Guidance: "rebuild with CGO_ENABLED=1"}
	}
	defer func() { detectHook = origHook }()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	var stdout bytes.Buffer
	err := runDoctor(context.Background(), &AppContext{Config: cfg, Logger: newTestLogger()}, &stdout)
	if err == nil {
		t.Fatalf("expected doctor to fail without a hook")
	}
	out := stdout.String()
	if !strings.Contains(out, "input hook: provider=unavailable available=false") || !strings.Contains(out, "hint: rebuild") {
		t.Fatalf("unexpected doctor output %q", out)
	}
	if !strings.Contains(out, "data directory: status=granted") {
		t.Fatalf("expected writable data dir, got %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origGOOS := runtimeVersion, runtimeGOOS
	runtimeVersion = func() string { return "go1.22.0" }
	runtimeGOOS = func() string { return "plan9" }
	defer func() { runtimeVersion, runtimeGOOS = origVersion, origGOOS }()

	var stdout bytes.Buffer
	root := NewRootCommand()
	root.SetOutput(&stdout, io.Discard)
	if err := root.Execute([]string{"version"}); err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "dev (go1.22.0/plan9)" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestDoctorFailsWhenHookRefusesToStart(t *testing.T) {
	origDetect, origProbe := detectHook, probeHook
	detectHook = func() events.Environment {
		return events.Environment{Provider: "gohook", Available: true}
	}
	probeHook = func(context.Context) error {
		return fmt.Errorf("%w: hook did not start", events.ErrHookUnavailable)
	}
	defer func() { detectHook, probeHook = origDetect, origProbe }()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	var stdout bytes.Buffer
	if err := runDoctor(context.Background(), &AppContext{Config: cfg, Logger: newTestLogger()}, &stdout); err == nil {
		t.Fatalf("expected doctor to fail when the hook does not start")
	}
	if !strings.Contains(stdout.String(), "input hook: provider=gohook available=false (global input hook unavailable: hook did not start)") {
		t.Fatalf("unexpected doctor output %q", stdout.String())
	}
}

func TestRunRecorderNeverOverwritesEarlierSession(t *testing.T) {
	withFixedClock(t)
	cfg := syntheticConfig(t)
	ctx := &AppContext{Config: cfg, Logger: newTestLogger()}

	// A record from a session whose clock ran ahead of the current one.
	future := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC).UnixMilli()
	earlier := filepath.Join(cfg.Paths.DataDir, fmt.Sprintf("%d.json", future))
	if err := os.WriteFile(earlier, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write earlier record: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.DataDir, fmt.Sprintf("%d.jpg", future)), []byte("img"), 0o644); err != nil {
		t.Fatalf("write earlier image: %v", err)
	}

	if err := runRecorder(context.Background(), ctx, runOptions{}, io.Discard); err != nil {
		t.Fatalf("runRecorder returned error: %v", err)
	}

	records, images := countArtifacts(t, cfg.Paths.DataDir)
	if records != 10 || images != 10 {
		t.Fatalf("expected the earlier pair plus 9 new pairs, got %d/%d", records, images)
	}
	data, err := os.ReadFile(earlier)
	if err != nil || string(data) != "[]" {
		t.Fatalf("earlier record was modified: %q (%v)", data, err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, fmt.Sprintf("%d.json", future+1))); err != nil {
		t.Fatalf("expected new records to continue after the earlier stamp: %v", err)
	}
}
