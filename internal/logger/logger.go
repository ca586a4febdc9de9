// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config selects the log level and output destination.
type Config struct {
	Level     string
	Output    string // stdout (default) or file
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// New creates a zerolog.Logger with the specified level and JSON output
// on stderr, keeping stdout free for command output such as fetched
// templates and API responses. An invalid level defaults to info.
func New(level string) zerolog.Logger {
	return build(level, os.Stderr)
}

// NewFromConfig creates a zerolog.Logger from a Config, writing to a
// rotating file when cfg.Output is "file" and to stderr otherwise.
func NewFromConfig(cfg Config) zerolog.Logger {
	var writer io.Writer = os.Stderr
	if cfg.Output == "file" {
		writer = NewFileWriter(FileConfig{
			Path:      cfg.FilePath,
			MaxSizeMB: cfg.MaxSizeMB,
			MaxFiles:  cfg.MaxFiles,
		})
	}
	return build(cfg.Level, writer)
}

func build(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
