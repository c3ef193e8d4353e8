package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger logs through gocore, selected with logger=gocore in settings.conf or --logger gocore.
type GoCoreLogger struct {
	*gocore.Logger
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "headerproof"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)), opts.skip}
}

// New returns a logger for another service, keeping the level unless WithLevel asks for a different one.
func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	defaultLevel := opts.logLevel

	for _, o := range options {
		o(opts)
	}

	level := g.Logger.GetLogLevel()
	if opts.logLevel != defaultLevel {
		level = gocore.NewLogLevelFromString(opts.logLevel)
	}

	return &GoCoreLogger{gocore.Log(service, level), opts.skip}
}

func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	opts := &Options{skip: g.skipFrame}
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{g.Logger, opts.skip}
}

// SetLogLevel is a no-op, the gocore level is fixed when the logger is created.
func (g *GoCoreLogger) SetLogLevel(_ string) {}
