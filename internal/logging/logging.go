package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects where and how much to log. Stdout is never a valid
// destination since it carries the protocol.
type Config struct {
	Level  string
	Format string
	// File receives the log when set; otherwise the fallback writer does.
	File string
}

// New builds the process logger. The returned close function releases the
// log file, if one was opened.
func New(config Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := ParseFormat(config.Format)
	if err != nil {
		return nil, nil, err
	}

	out := fallback
	closeLog := func() error { return nil }
	if path := strings.TrimSpace(config.File); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
		closeLog = file.Close
	}
	if out == nil {
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler).With(slog.String("component", "pinentry-picker"))
	return logger, closeLog, nil
}

func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", value)
	}
}

func ParseFormat(value string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(value)); format {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q", value)
	}
}

// WithSession tags every record with a fresh session id.
func WithSession(logger *slog.Logger) *slog.Logger {
	return logger.With(slog.String("session_id", uuid.NewString()))
}
