package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Jobs)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lszip.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log_level": "debug",
		"timeout": "5s",
		"rate_limit": 10,
		"headers": {"Authorization": "Bearer x"},
		"jobs": 2
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "5s", cfg.Timeout)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, map[string]string{"Authorization": "Bearer x"}, cfg.Headers)
	// Untouched fields keep their defaults.
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LSZIP_LOG_LEVEL", "warn")
	t.Setenv("LSZIP_JOBS", "8")
	t.Setenv("LSZIP_NO_STORE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Jobs)
	assert.True(t, cfg.NoStore)
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{"LSZIP_RATE_LIMIT": "fast"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	assert.ErrorContains(t, Default().applyEnv(lookup), "LSZIP_RATE_LIMIT")

	env = map[string]string{"LSZIP_OVERWRITE": "maybe"}
	assert.ErrorContains(t, Default().applyEnv(lookup), "LSZIP_OVERWRITE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "log level", modify: func(c *Config) { c.LogLevel = "loud" }},
		{name: "timeout syntax", modify: func(c *Config) { c.Timeout = "soon" }},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = "-1s" }},
		{name: "rate limit", modify: func(c *Config) { c.RateLimit = -1 }},
		{name: "jobs", modify: func(c *Config) { c.Jobs = 0 }},
		{name: "header", modify: func(c *Config) { c.Headers = map[string]string{"Bad Name": "x"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
