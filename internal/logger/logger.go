// Package logger builds the zerolog loggers used by the lszip command.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and destinations of a logger.
type Options struct {
	Level string

	// File, if set, receives JSON log lines and is rotated at 10 MB.
	File string

	// Console receives human readable output. Defaults to os.Stderr.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger and a Closer that flushes and closes the log file.
func New(o Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if o.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(o.Level)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrapf(err, "invalid log level %q", o.Level)
		}
	}
	console := o.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}}
	var closer io.Closer = nopCloser{}
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, lj)
		closer = lj
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return l, closer, nil
}

// Component returns l tagged with the name of the part of the program that
// logs through it.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
