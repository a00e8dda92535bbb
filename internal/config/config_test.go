package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envCacheDSN, envCacheDebug, envWarnAsError, envDiagColor, envMaxDiagsPerFunc} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaultsWhenEnvironmentUnset(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	cfg := Load()

	assert.Equal(t, defaultCacheDSN, cfg.CacheDSN)
	assert.False(t, cfg.CacheDebug)
	assert.False(t, cfg.WarningsAsErrors)
	assert.True(t, cfg.DiagColor)
	assert.Equal(t, defaultMaxDiagsFunc, cfg.MaxDiagnosticsPerFunction)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv(envCacheDSN, "libsql://example.turso.io")
	os.Setenv(envCacheDebug, "true")
	os.Setenv(envWarnAsError, "1")
	os.Setenv(envDiagColor, "false")
	os.Setenv(envMaxDiagsPerFunc, "12")

	cfg := Load()

	assert.Equal(t, "libsql://example.turso.io", cfg.CacheDSN)
	assert.True(t, cfg.CacheDebug)
	assert.True(t, cfg.WarningsAsErrors)
	assert.False(t, cfg.DiagColor)
	assert.Equal(t, 12, cfg.MaxDiagnosticsPerFunction)
}

func TestLoadIgnoresUnparseableNumericOverride(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv(envMaxDiagsPerFunc, "not-a-number")

	cfg := Load()
	assert.Equal(t, defaultMaxDiagsFunc, cfg.MaxDiagnosticsPerFunction)
}

func TestBindFlagsOverridesEnvDerivedDefault(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)
	os.Setenv(envCacheDSN, "env-value.db")

	cfg := Load()
	require.Equal(t, "env-value.db", cfg.CacheDSN)

	fs := pflag.NewFlagSet("sushic", pflag.ContinueOnError)
	BindFlags(fs, cfg)
	require.NoError(t, fs.Parse([]string{"--cache-dsn", "flag-value.db"}))

	assert.Equal(t, "flag-value.db", cfg.CacheDSN)
}
