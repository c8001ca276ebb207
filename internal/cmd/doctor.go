package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/inputtrail/pkg/events"
	"github.com/offlinefirst/inputtrail/pkg/permissions"
	"github.com/offlinefirst/inputtrail/pkg/persist"
	"github.com/offlinefirst/inputtrail/pkg/screenshots"
)

var (
	detectHook    = events.DetectEnvironment
	detectDisplay = screenshots.DetectEnvironment
	probeHook     = events.ProbeHook
)

func newDoctorCommand(rc *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report input hook, display and data directory readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runDoctor(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// runDoctor prints one line per capability. It fails when the input hook is
// unavailable, mirroring the only condition that aborts a recording. A built-in
// backend is also started once, since registration can still be refused at runtime.
func runDoctor(ctx context.Context, app *AppContext, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	hook := detectHook()
	if hook.Available {
		if err := probeHook(ctx); err != nil {
			hook.Available = false
			hook.Message = err.Error()
		}
	}
	display := detectDisplay()
	dir := permissions.ProbeDirectory(app.Config.Paths.DataDir)

	fmt.Fprintf(stdout, "inputtrail %s\n", versionString())
	fmt.Fprintf(stdout, "config: %s\n", app.Config.Source)
	fmt.Fprintf(stdout, "input hook: provider=%s available=%t", hook.Provider, hook.Available)
	printDetail(stdout, hook.Message, hook.Guidance)
	fmt.Fprintf(stdout, "display: provider=%s available=%t displays=%d", display.Provider, display.Available, display.Displays)
	printDetail(stdout, display.Message, "")
	fmt.Fprintf(stdout, "data directory: status=%s", dir.StatusString())
	printDetail(stdout, dir.Message, dir.Guidance)
	fmt.Fprintf(stdout, "workers: %d logical CPUs\n", persist.DefaultWorkers())

	app.Logger.Debug("doctor finished", "hook", hook.Available, "display", display.Available, "data_dir", dir.StatusString())

	if !hook.Available {
		return fmt.Errorf("input hook unavailable: %s", hook.Message)
	}
	return nil
}

func printDetail(w io.Writer, message, guidance string) {
	if message != "" {
		fmt.Fprintf(w, " (%s)", message)
	}
	fmt.Fprintln(w)
	if guidance != "" {
		fmt.Fprintf(w, "  hint: %s\n", guidance)
	}
}
