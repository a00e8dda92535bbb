// Package config loads the compiler's run-time configuration from
// environment variables (optionally sourced from a `.env` file),
// layered under explicit CLI flags — env vars supply the defaults,
// flags on the command line always win.
//
// Config is a flat struct populated from os.Getenv with hard-coded
// fallback defaults and strconv-parsed numeric fields, ignoring a
// malformed value rather than failing the whole load.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the compiler's run-time configuration (spec SUPPLEMENTAL
// AMBIENT STACK "Configuration"): incremental-cache DSN, warning-as-error
// toggle, diagnostic color mode, and the per-function diagnostic cap.
type Config struct {
	CacheDSN                  string
	CacheDebug                bool
	WarningsAsErrors          bool
	DiagColor                 bool
	MaxDiagnosticsPerFunction int
}

const (
	envCacheDSN         = "SUSHIC_CACHE_DSN"
	envCacheDebug       = "SUSHIC_CACHE_DEBUG"
	envWarnAsError      = "SUSHIC_WARNINGS_AS_ERRORS"
	envDiagColor        = "SUSHIC_DIAG_COLOR"
	envMaxDiagsPerFunc  = "SUSHIC_MAX_DIAGNOSTICS_PER_FUNCTION"
	defaultCacheDSN     = "sushic-cache.db"
	defaultMaxDiagsFunc = 50
)

// Load reads a `.env` file from the working directory if present
// (errors ignored — a missing `.env` is normal, not fatal) and then
// builds a Config from environment variables, falling back to defaults
// for anything unset or unparseable.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		CacheDSN:                  os.Getenv(envCacheDSN),
		CacheDebug:                parseBool(os.Getenv(envCacheDebug), false),
		WarningsAsErrors:          parseBool(os.Getenv(envWarnAsError), false),
		DiagColor:                 parseBool(os.Getenv(envDiagColor), true),
		MaxDiagnosticsPerFunction: defaultMaxDiagsFunc,
	}

	if cfg.CacheDSN == "" {
		cfg.CacheDSN = defaultCacheDSN
	}

	if raw := os.Getenv(envMaxDiagsPerFunc); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.MaxDiagnosticsPerFunction = n
		}
	}

	return cfg
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
