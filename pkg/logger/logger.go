// Package logger builds the process-wide zerolog logger. Call Init once at
// startup and pass the returned logger down; subsystems derive their own
// child loggers with Named.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the logger is built.
type Options struct {
	// Level is the minimum level emitted: trace, debug, info, warn or error.
	// Unrecognised or empty values fall back to info.
	Level string
	// Pretty switches to human-readable console output. Leave false in
	// production so logs stay machine-parseable JSON.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	once     sync.Once
	instance zerolog.Logger
	ready    bool
)

// Init builds the singleton logger. Only the first call takes effect; later
// calls return the logger built by the first one.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		lvl := parseLevel(opts.Level)
		zerolog.SetGlobalLevel(lvl)

		instance = zerolog.New(out).
			Level(lvl).
			With().
			Timestamp().
			Caller().
			Logger()
		ready = true
	})
	return instance
}

// Get returns the singleton logger. Panics when Init has not run yet, which
// always indicates a wiring bug rather than a runtime condition.
func Get() zerolog.Logger {
	if !ready {
		panic("logger: Get called before Init")
	}
	return instance
}

// Named returns a child of the singleton tagged with a component name, so a
// subsystem's lines can be filtered out of the combined stream.
func Named(component string) zerolog.Logger {
	return Get().With().Str("component", component).Logger()
}

// Reset discards the singleton so the next Init rebuilds it. Test helper.
func Reset() {
	once = sync.Once{}
	instance = zerolog.Logger{}
	ready = false
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
