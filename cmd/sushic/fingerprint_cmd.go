package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxhq/sushic/internal/fixture"
	"github.com/oxhq/sushic/internal/pipeline"
)

func newFingerprintCmd() *cobra.Command {
	var glob string
	cmd := &cobra.Command{
		Use:   "fingerprint <fixture-dir>",
		Short: "Print each unit's C9 content hash and symbol linkage classification",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runFingerprint(cmd, args[0], glob)
		},
	}
	cmd.Flags().StringVar(&glob, "glob", "**/*.sushi.json", "glob pattern matched against the fixture directory")
	return cmd
}

func runFingerprint(cmd *cobra.Command, root, glob string) int {
	src, err := fixture.LoadSource(root, glob)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 2
	}

	res := pipeline.Run(src)
	if res.HaltedAt != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "halted at %s before fingerprinting ran\n", res.HaltedAt)
		return 2
	}

	out := cmd.OutOrStdout()
	for _, uf := range res.Fingerprint.Units {
		fmt.Fprintf(out, "%s  %s\n", hex.EncodeToString(uf.Hash[:]), uf.Unit)
	}
	for _, sl := range res.Fingerprint.Symbols {
		fmt.Fprintf(out, "%s.%s\t%s\n", sl.Unit, sl.Name, sl.Class)
	}
	return 0
}
