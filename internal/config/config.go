// Package config holds the settings of the lszip command. Values come from
// the defaults, then an optional JSON file, then LSZIP_* environment
// variables; command-line flags are applied on top by the caller.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const envPrefix = "LSZIP_"

type Config struct {
	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`

	// Timeout bounds how long a range request may go without receiving
	// data, e.g. "30s".
	Timeout   string            `json:"timeout,omitempty"`
	RateLimit int               `json:"rate_limit,omitempty"` // requests per second, 0 is unlimited
	UserAgent string            `json:"user_agent,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// NoStore disables downloading the whole archive when the server
	// ignores ranges.
	NoStore bool `json:"no_store,omitempty"`

	Jobs      int    `json:"jobs,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		Timeout:   "60s",
		UserAgent: "lszip",
		Jobs:      4,
		OutputDir: ".",
	}
}

// Load returns the defaults overridden by the JSON file at path, if path is
// not empty, and then by the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, name)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, name)
		}
		*dst = b
		return nil
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("TIMEOUT", &c.Timeout)
	str("USER_AGENT", &c.UserAgent)
	str("OUTPUT_DIR", &c.OutputDir)
	if err := num("RATE_LIMIT", &c.RateLimit); err != nil {
		return err
	}
	if err := num("JOBS", &c.Jobs); err != nil {
		return err
	}
	if err := flag("NO_STORE", &c.NoStore); err != nil {
		return err
	}
	return flag("OVERWRITE", &c.Overwrite)
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "invalid timeout")
	}
	return d, nil
}

// Validate checks the settings for values that cannot work.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	d, err := c.TimeoutDuration()
	if err != nil {
		return err
	}
	if d < 0 {
		return errors.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return errors.Errorf("rate limit must not be negative: %d", c.RateLimit)
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1: %d", c.Jobs)
	}
	for k := range c.Headers {
		if k == "" || strings.ContainsAny(k, " :\r\n") {
			return errors.Errorf("invalid header name %q", k)
		}
	}
	return nil
}
