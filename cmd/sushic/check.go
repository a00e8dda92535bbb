package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxhq/sushic/internal/cache"
	"github.com/oxhq/sushic/internal/config"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/fixture"
	"github.com/oxhq/sushic/internal/pipeline"
)

func newCheckCmd(cfg *config.Config) *cobra.Command {
	var glob string
	cmd := &cobra.Command{
		Use:   "check <fixture-dir>",
		Short: "Run the pipeline over a directory of *.sushi.json fixtures and report diagnostics",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runCheck(cmd, args[0], glob, cfg)
		},
	}
	cmd.Flags().StringVar(&glob, "glob", "**/*.sushi.json", "glob pattern matched against the fixture directory")
	return cmd
}

func runCheck(cmd *cobra.Command, root, glob string, cfg *config.Config) int {
	out := cmd.OutOrStdout()

	src, err := fixture.LoadSource(root, glob)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 2
	}

	res := pipeline.Run(src)
	bag := res.Diagnostics()
	render := diag.RenderCompact
	if cfg.DiagColor {
		render = diag.RenderCompactColor
	}
	for _, d := range bag.All() {
		render(out, d)
	}

	if res.HaltedAt != "" {
		fmt.Fprintf(out, "halted at %s\n", res.HaltedAt)
	} else if cfg.CacheDSN != "" {
		reportCacheStatus(cmd, cfg, res)
	}

	if cfg.WarningsAsErrors && bag.Len() > 0 {
		return 2
	}
	return bag.ExitCode()
}

func reportCacheStatus(cmd *cobra.Command, cfg *config.Config, res pipeline.Result) {
	db, err := cache.Connect(cfg.CacheDSN, cfg.CacheDebug)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v (continuing without incremental status)\n", err)
		return
	}
	store := cache.NewStore(db)

	for _, uf := range res.Fingerprint.Units {
		unchanged, err := store.Unchanged(uf.Unit, uf.Hash)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
			continue
		}
		status := "changed"
		if unchanged {
			status = "unchanged"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", uf.Unit, status)
	}

	if err := store.SaveUnits(res.Fingerprint.Units); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache: failed to persist fingerprints: %v\n", err)
	}
	if err := store.SaveSymbols(res.Fingerprint.Symbols, nil); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache: failed to persist linkage: %v\n", err)
	}
}
