// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at file, or at stderr with a console
// writer when file is empty. The returned closer releases the file.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)

	if file == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// the terminal belongs to the TUI, so file logs stay JSON
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}
