// Command lszip lists and extracts files from a ZIP archive on an HTTP
// server using range requests.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/snabb/lszip"
	"github.com/snabb/lszip/internal/config"
	"github.com/snabb/lszip/internal/logger"
)

var version = "dev"

// app carries the settings shared by the subcommands once the persistent
// flags have been parsed.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	logClose io.Closer

	// transport is used by tests to reach the test server.
	transport http.RoundTripper
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lszip",
		Short:         "List and extract remote ZIP archives",
		Long:          "List and extract files from a ZIP archive served over HTTP without downloading the whole archive.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logClose != nil {
				return a.logClose.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a JSON config file")
	pf.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.String("log-file", "", "Also write JSON logs to this file")
	pf.String("timeout", "", "Give up on a request when no data arrives for this long, e.g. 30s")
	pf.Int("rate-limit", 0, "Maximum range requests per second, 0 for no limit")
	pf.String("user-agent", "", "User-Agent header")
	pf.StringArrayP("header", "H", nil, "Extra request header as \"Name: value\", may be repeated")
	pf.Bool("no-store", false, "Fail instead of downloading the whole archive when the server ignores ranges")

	root.AddCommand(newListCmd(a), newExtractCmd(a))
	return root
}

// setup loads the config file and environment and applies the flags that
// were set on the command line.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("log-file", &cfg.LogFile)
	str("timeout", &cfg.Timeout)
	str("user-agent", &cfg.UserAgent)
	if flags.Changed("rate-limit") {
		cfg.RateLimit, _ = flags.GetInt("rate-limit")
	}
	if flags.Changed("no-store") {
		cfg.NoStore, _ = flags.GetBool("no-store")
	}
	if flags.Changed("header") {
		hs, _ := flags.GetStringArray("header")
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for _, h := range hs {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return errors.Errorf("invalid header %q, want \"Name: value\"", h)
			}
			cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, closer, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg, a.log, a.logClose = cfg, l, closer
	return nil
}

// open lists the archive at url using the configured client and headers.
func (a *app) open(ctx context.Context, url string) (*lszip.Archive, error) {
	timeout, err := a.cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	transport := a.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = timeout
		transport = t
	}
	client := &http.Client{Transport: newIdleTimeoutTransport(transport, timeout)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}

	opts := []lszip.Option{
		lszip.WithLogger(logger.Component(a.log, "lszip")),
		lszip.WithRateLimit(a.cfg.RateLimit),
	}
	if !a.cfg.NoStore {
		opts = append(opts, lszip.WithStore(lszip.NewDefaultStore()))
	}
	return lszip.OpenRequest(ctx, client, req, opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		if a.cfg == nil {
			// Logger not set up yet.
			os.Stderr.WriteString("lszip: " + err.Error() + "\n")
		} else {
			a.log.Error().Err(err).Msg("lszip failed")
		}
		stop()
		os.Exit(1)
	}
}
