package config

import "github.com/spf13/pflag"

// BindFlags registers CLI flags on fs whose defaults are cfg's current
// (environment-derived) values, so an explicit flag on the command line
// overrides the environment rather than the other way around.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.CacheDSN, "cache-dsn", cfg.CacheDSN, "incremental-cache database DSN (local file path or libsql URL)")
	fs.BoolVar(&cfg.CacheDebug, "cache-debug", cfg.CacheDebug, "log every SQL statement the incremental cache issues")
	fs.BoolVar(&cfg.WarningsAsErrors, "warnings-as-error", cfg.WarningsAsErrors, "treat warning-severity diagnostics as fatal")
	fs.BoolVar(&cfg.DiagColor, "color", cfg.DiagColor, "colorize diagnostic output")
	fs.IntVar(&cfg.MaxDiagnosticsPerFunction, "max-diagnostics-per-function", cfg.MaxDiagnosticsPerFunction, "per-function diagnostic cap (stored in the config; the pipeline does not truncate diagnostics)")
}
