package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/inputtrail/internal/buildinfo"
	"github.com/offlinefirst/inputtrail/pkg/config"
	"github.com/offlinefirst/inputtrail/pkg/logging"
)

// AppContext exposes lazily initialised configuration and logging facilities.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

// RootCommand owns the cobra command tree and the global flag values.
type RootCommand struct {
	cmd    *cobra.Command
	stdout io.Writer
	stderr io.Writer
	appCtx *AppContext

	configPath    string
	logLevel      string
	logFormat     string
	directoryPath string
}

// NewRootCommand constructs the CLI with its subcommands. Invoking the binary
// without a subcommand starts recording, so `inputtrail -d ./data` works on
// its own.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	run := newRunCommand(rc)
	rc.cmd = &cobra.Command{
		Use:   "inputtrail",
		Short: "Record input events with paired screenshots",
		Long: `inputtrail observes mouse and keyboard input system-wide and, while
recording is active, writes every click, scroll and key event as
{unix_millis}.json next to a screenshot {unix_millis}.jpg in the data
directory.

Recording starts idle. Press ctrl+alt+p to toggle it on and off.

Examples:
  # Record into ./data
  inputtrail -d ./data

  # Flatten recorded pointer events to CSV
  inputtrail export -d ./data -o data.csv

  # Check hook, display and directory readiness
  inputtrail doctor -d ./data`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          run.RunE,
	}
	rc.cmd.Flags().AddFlagSet(run.Flags())
	rc.cmd.SetVersionTemplate("{{.Version}}\n")
	rc.cmd.SuggestionsMinimumDistance = 2

	flags := rc.cmd.PersistentFlags()
	flags.StringVar(&rc.configPath, "config", "", "path to config file (default: ./"+config.DefaultFileName+" if present)")
	flags.StringVar(&rc.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flags.StringVar(&rc.logFormat, "log-format", "", "override log output format (json, console)")
	flags.StringVarP(&rc.directoryPath, "directory-path", "d", "", "data directory for records and screenshots (default: paths.data_dir)")

	rc.cmd.AddCommand(run)
	rc.cmd.AddCommand(newExportCommand(rc))
	rc.cmd.AddCommand(newDoctorCommand(rc))
	rc.cmd.AddCommand(newVersionCommand())

	return rc
}

// SetOutput redirects command output, mainly for tests.
func (rc *RootCommand) SetOutput(stdout, stderr io.Writer) {
	rc.stdout = stdout
	rc.stderr = stderr
	rc.cmd.SetOut(stdout)
	rc.cmd.SetErr(stderr)
}

// Execute parses args and dispatches to the selected command.
func (rc *RootCommand) Execute(args []string) error {
	rc.cmd.SetArgs(args)
	rc.cmd.SetOut(rc.stdout)
	rc.cmd.SetErr(rc.stderr)
	return rc.cmd.Execute()
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(rc.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Level = lvl
	}
	if rc.logFormat != "" {
		format, err := config.NormalizeFormat(rc.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = format
	}
	if rc.directoryPath != "" {
		cfg.Paths.DataDir = rc.directoryPath
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "source", cfg.Source, "data_dir", cfg.Paths.DataDir)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	return rc.appCtx, nil
}

func versionString() string {
	return fmt.Sprintf("%s (%s/%s)", buildinfo.Version(), runtimeVersion(), runtimeGOOS())
}

// runtimeVersion is extracted for testability.
var runtimeVersion = func() string { return runtime.Version() }

// runtimeGOOS is extracted for testability.
var runtimeGOOS = func() string { return runtime.GOOS }
