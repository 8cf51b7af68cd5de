package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the global logger.
type Options struct {
	// Production switches to JSON output at info level.
	Production bool
	// Output defaults to stdout.
	Output io.Writer
}

// Init replaces the global zerolog logger. It also becomes the fallback of
// log.Ctx for contexts that carry no request logger.
func Init(opts Options) {
	zerolog.DefaultContextLogger = &log.Logger

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.Production {
		log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

// Discard silences the global logger. Tests use it to keep output clean.
func Discard() {
	log.Logger = zerolog.Nop()
	zerolog.DefaultContextLogger = &log.Logger
}
