package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinefirst/inputtrail/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, versionString()); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(out, "commit: %s\n", buildinfo.Commit())
				fmt.Fprintf(out, "hook backend: %s\n", detectHook().Provider)
				fmt.Fprintf(out, "display backend: %s\n", detectDisplay().Provider)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include commit and capture backends")
	return cmd
}
