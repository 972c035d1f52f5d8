package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const envLocal = "local"

// New builds the process logger: human-readable at debug level for local
// runs, JSON at info level everywhere else.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stderr)
}

func newWithWriter(env string, w io.Writer) zerolog.Logger {
	if env == envLocal {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("env", env).Logger()
}
