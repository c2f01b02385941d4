package sndpcm

import (
	"log/slog"
)

// Logger receives records about failures the library recovers from on its own,
// such as secondary teardown errors. It is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Option configures how a PCM handle is opened.
type Option func(*options)

type options struct {
	sys         system
	logger      Logger
	openControl controlOpener
}

// WithLogger sets the logger of the handle. A nil logger discards records.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// withSystem replaces the OS boundary.
func withSystem(sys system) Option {
	return func(o *options) {
		o.sys = sys
	}
}

// withControl replaces how the control session of a card is opened.
func withControl(open controlOpener) Option {
	return func(o *options) {
		o.openControl = open
	}
}

func newOptions(opts []Option) options {
	o := options{
		sys:         unixSystem{},
		logger:      slog.New(slog.DiscardHandler),
		openControl: openControl,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
