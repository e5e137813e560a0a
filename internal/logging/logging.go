package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs a console logger on stderr. Verbose enables debug output,
// which includes every clip placement made by the builder. Each extra writer
// (a --log-file, say) gets the same events as JSON lines.
func Init(verbose bool, files ...io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	if len(files) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{out}, files...)...)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// NewLogger returns a component logger writing JSON lines to w instead of the
// global output, for callers that collect a single component's events.
func NewLogger(w io.Writer, component string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// WithComponent tags the global logger with a component name.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
