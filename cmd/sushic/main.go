// Command sushic drives the compiler core's nine-stage pipeline over a
// directory of `*.sushi.json` parse-tree fixtures, wrapped in a small
// cobra CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/sushic/internal/config"
)

// exitCode carries the exit status a subcommand computed, since cobra's
// own Execute() only distinguishes "an error occurred" from "it didn't"
// — §7's three-way 0/1/2 contract needs the subcommand's own verdict to
// survive past Execute() returning.
var exitCode int

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "sushic",
		Short:         "Sushi compiler frontend/middle-end driver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(root.PersistentFlags(), cfg)

	root.AddCommand(newCheckCmd(cfg))
	root.AddCommand(newFingerprintCmd())
	root.AddCommand(newDemangleCmd())
	root.AddCommand(newDiffCmd())
	return root
}
