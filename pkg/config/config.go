package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "inputtrail.yaml"

// Capture sources understood by the run command.
const (
	SourceHook      = "hook"
	SourceSynthetic = "synthetic"
)

// Config captures the user-adjustable knobs for the recorder.
type Config struct {
	Paths       PathsConfig      `yaml:"paths" toml:"paths"`
	Capture     CaptureConfig    `yaml:"capture" toml:"capture"`
	Screenshots ScreenshotConfig `yaml:"screenshots" toml:"screenshots"`
	Workers     WorkersConfig    `yaml:"workers" toml:"workers"`
	Logging     LoggingConfig    `yaml:"logging" toml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-" toml:"-"`
}

// PathsConfig controls filesystem locations used by the CLI.
type PathsConfig struct {
	DataDir string `yaml:"data_dir" toml:"data_dir"`
}

// CaptureConfig controls the event source and the recording toggle.
type CaptureConfig struct {
	Source      string   `yaml:"source" toml:"source"`
	IdleGating  bool     `yaml:"idle_gating" toml:"idle_gating"`
	StartActive bool     `yaml:"start_active" toml:"start_active"`
	ToggleChord string   `yaml:"toggle_chord" toml:"toggle_chord"`
	RedactKeys  bool     `yaml:"redact_keys" toml:"redact_keys"`
	KeepKeys    []string `yaml:"keep_keys" toml:"keep_keys"`
}

// ScreenshotConfig controls how frames are grabbed and encoded.
type ScreenshotConfig struct {
	Format   string `yaml:"format" toml:"format"`
	Quality  int    `yaml:"quality" toml:"quality"`
	MaxWidth int    `yaml:"max_width" toml:"max_width"`
	Display  int    `yaml:"display" toml:"display"`
}

// WorkersConfig sizes the persistence pool. A zero count means one worker
// per logical CPU.
type WorkersConfig struct {
	Count        int `yaml:"count" toml:"count"`
	DrainSeconds int `yaml:"drain_seconds" toml:"drain_seconds"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			DataDir: ".",
		},
		Capture: CaptureConfig{
			Source:      SourceHook,
			IdleGating:  true,
			ToggleChord: "ctrl+alt+p",
		},
		Screenshots: ScreenshotConfig{
			Format:  "jpg",
			Quality: 90,
		},
		Workers: WorkersConfig{
			DrainSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./inputtrail.yaml but
// tolerates a missing file. Files ending in .toml are decoded as TOML; anything
// else is treated as YAML. Unknown keys are rejected in both formats.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := decode(candidate, data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			sort.Strings(keys)
			return fmt.Errorf("decode %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must not be empty")
	}

	switch c.Capture.Source {
	case SourceHook, SourceSynthetic:
	default:
		return fmt.Errorf("capture.source must be %q or %q, got %q", SourceHook, SourceSynthetic, c.Capture.Source)
	}
	if strings.TrimSpace(c.Capture.ToggleChord) == "" {
		return errors.New("capture.toggle_chord must not be empty")
	}

	if _, err := NormalizeImageFormat(c.Screenshots.Format); err != nil {
		return err
	}
	if c.Screenshots.Quality < 1 || c.Screenshots.Quality > 100 {
		return fmt.Errorf("screenshots.quality must be between 1 and 100, got %d", c.Screenshots.Quality)
	}
	if c.Screenshots.MaxWidth < 0 {
		return errors.New("screenshots.max_width must not be negative")
	}
	if c.Screenshots.Display < 0 {
		return errors.New("screenshots.display must not be negative")
	}

	if c.Workers.Count < 0 {
		return errors.New("workers.count must not be negative")
	}
	if c.Workers.DrainSeconds <= 0 {
		return errors.New("workers.drain_seconds must be positive")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	return nil
}

func (c *Config) normalize() {
	c.Paths.DataDir = strings.TrimSpace(c.Paths.DataDir)
	c.Capture.Source = strings.ToLower(strings.TrimSpace(c.Capture.Source))
	c.Capture.ToggleChord = strings.ToLower(strings.TrimSpace(c.Capture.ToggleChord))

	keep := c.Capture.KeepKeys[:0]
	for _, key := range c.Capture.KeepKeys {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			keep = append(keep, key)
		}
	}
	c.Capture.KeepKeys = keep

	if format, err := NormalizeImageFormat(c.Screenshots.Format); err == nil {
		c.Screenshots.Format = format
	}
	if lvl, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = lvl
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
}

// NormalizeLogLevel validates and canonicalizes log level identifiers.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

// NormalizeImageFormat canonicalizes screenshot format names to a file extension.
func NormalizeImageFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "jpg", "jpeg":
		return "jpg", nil
	case "png":
		return "png", nil
	default:
		return "", fmt.Errorf("unsupported screenshots.format %q", format)
	}
}
