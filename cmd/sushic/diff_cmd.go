package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/sushic/internal/diag"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <want-file> <got-file>",
		Short: "Render a unified diff between two pretty-printed tree dumps (round-trip law debugging)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runDiff(cmd, args[0], args[1])
		},
	}
}

func runDiff(cmd *cobra.Command, wantPath, gotPath string) int {
	want, err := os.ReadFile(wantPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 2
	}
	got, err := os.ReadFile(gotPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 2
	}

	text, err := diag.RoundTripDiff(wantPath, string(want), string(got))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 2
	}
	if text == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return 0
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return 1
}
