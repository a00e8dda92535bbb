package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxhq/sushic/internal/types"
)

func newDemangleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demangle <mangled-name>",
		Short: "Recover a monomorphized symbol's template name and type-argument vector",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			template, typeArgs := types.Demangle(args[0])
			out := cmd.OutOrStdout()
			if len(typeArgs) == 0 {
				fmt.Fprintln(out, template)
				return
			}
			fmt.Fprintf(out, "%s<%s>\n", template, joinArgs(typeArgs))
		},
	}
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += ", " + a
	}
	return out
}
