package lszip

import (
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
)

// Option configures an Archive or an HTTPFetcher.
type Option func(*options)

type options struct {
	logger  zerolog.Logger
	store   Store
	limiter ratelimit.Limiter
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. Range requests and state changes are logged
// at debug level. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStore sets a Store that the HTTPFetcher falls back to when the server
// does not support range requests: the whole archive is downloaded into it
// once and every later range is served from it.
func WithStore(bs Store) Option {
	return func(o *options) {
		o.store = bs
	}
}

// WithRateLimit limits the HTTPFetcher to perSecond requests per second.
// Zero or less means unlimited.
func WithRateLimit(perSecond int) Option {
	return func(o *options) {
		if perSecond > 0 {
			o.limiter = ratelimit.New(perSecond)
		} else {
			o.limiter = nil
		}
	}
}
