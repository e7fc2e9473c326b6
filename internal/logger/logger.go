// Package logger builds the zerolog logger used by the function. Output is
// JSON on stdout, which Lambda forwards to CloudWatch Logs.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger at the given level. Unknown levels fall back to
// info.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "customer-api").Logger()
}
