package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp dir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.Capture.ToggleChord != "ctrl+alt+p" {
		t.Fatalf("unexpected default chord %q", cfg.Capture.ToggleChord)
	}
	if !cfg.Capture.IdleGating || cfg.Capture.StartActive {
		t.Fatalf("expected gated recorder starting idle, got %+v", cfg.Capture)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "inputtrail.yaml")
	content := `paths:
  data_dir: ./captures
capture:
  source: Synthetic
  idle_gating: false
  start_active: true
  toggle_chord: " Ctrl+Shift+R "
  redact_keys: true
  keep_keys: [Enter, " esc ", ""]
screenshots:
  format: JPEG
  quality: 70
  max_width: 1280
  display: 1
workers:
  count: 3
  drain_seconds: 4
logging:
  level: DEBUG
  format: text
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := Config{
		Paths: PathsConfig{DataDir: "./captures"},
		Capture: CaptureConfig{
			Source:      SourceSynthetic,
			IdleGating:  false,
			StartActive: true,
			ToggleChord: "ctrl+shift+r",
			RedactKeys:  true,
			KeepKeys:    []string{"enter", "esc"},
		},
		Screenshots: ScreenshotConfig{Format: "jpg", Quality: 70, MaxWidth: 1280, Display: 1},
		Workers:     WorkersConfig{Count: 3, DrainSeconds: 4},
		Logging:     LoggingConfig{Level: "debug", Format: "console"},
		Source:      cfgPath,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "inputtrail.toml")
	content := `[paths]
data_dir = "/tmp/trail"

[screenshots]
format = "png"

[workers]
count = 2
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != "/tmp/trail" {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Screenshots.Format != "png" || cfg.Screenshots.Quality != 90 {
		t.Fatalf("unexpected screenshot config %+v", cfg.Screenshots)
	}
	if cfg.Workers.Count != 2 || cfg.Workers.DrainSeconds != 10 {
		t.Fatalf("unexpected workers config %+v", cfg.Workers)
	}
	if !cfg.Capture.IdleGating {
		t.Fatalf("expected untouched keys to keep defaults")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"inputtrail.yaml": "capture:\n  fine_interval_seconds: 5\n",
		"inputtrail.toml": "[capture]\nfine_interval_seconds = 5\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		_, err := Load(path)
		if err == nil {
			t.Fatalf("%s: expected unknown key error", name)
		}
		if !strings.Contains(err.Error(), "fine_interval_seconds") {
			t.Fatalf("%s: error should name the key, got %v", name, err)
		}
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := map[string]func(*Config){
		"empty data dir":   func(c *Config) { c.Paths.DataDir = " " },
		"unknown source":   func(c *Config) { c.Capture.Source = "x11" },
		"empty chord":      func(c *Config) { c.Capture.ToggleChord = "" },
		"bad format":       func(c *Config) { c.Screenshots.Format = "gif" },
		"quality too high": func(c *Config) { c.Screenshots.Quality = 101 },
		"quality zero":     func(c *Config) { c.Screenshots.Quality = 0 },
		"negative width":   func(c *Config) { c.Screenshots.MaxWidth = -1 },
		"negative display": func(c *Config) { c.Screenshots.Display = -1 },
		"negative workers": func(c *Config) { c.Workers.Count = -2 },
		"zero drain":       func(c *Config) { c.Workers.DrainSeconds = 0 },
		"bad level":        func(c *Config) { c.Logging.Level = "trace" },
		"bad log format":   func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestNormalizeHelpers(t *testing.T) {
	if got, _ := NormalizeLogLevel("WARNING"); got != "warn" {
		t.Fatalf("expected warn, got %q", got)
	}
	if got, _ := NormalizeFormat("Text"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
	if got, _ := NormalizeImageFormat("jpeg"); got != "jpg" {
		t.Fatalf("expected jpg, got %q", got)
	}
	if _, err := NormalizeImageFormat("bmp"); err == nil {
		t.Fatalf("expected bmp to be rejected")
	}
}
