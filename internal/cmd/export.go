package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/inputtrail/pkg/export"
)

func newExportCommand(rc *RootCommand) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten recorded pointer events into CSV",
		Long: `export reads every {unix_millis}.json record in the data directory in
stamp order and writes one CSV row per pointer event with the columns
record timestamp, client timestamp, button, state, x, y.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return runExport(app, output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "CSV destination file (- for stdout)")
	return cmd
}

func runExport(app *AppContext, output string, stdout io.Writer) (err error) {
	dir := app.Config.Paths.DataDir

	var w io.Writer = stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close csv: %w", cerr)
			}
		}()
		w = f
	}

	summary, err := export.Directory(dir, w, app.Logger)
	if err != nil {
		return err
	}
	app.Logger.Info("export finished", "data_dir", dir, "records", summary.Records, "rows", summary.Rows, "output", output)
	return nil
}
