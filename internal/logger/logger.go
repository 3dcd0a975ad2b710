// Package logger builds the slog logger used by every catalog component.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatAuto = "auto"
)

// Config holds logger configuration
type Config struct {
	Writer io.Writer // Writer куда пишутся логи, по умолчанию os.Stderr
	Level  string
	Format string
}

// New creates a logger. The auto format writes text to a terminal and JSON otherwise.
func New(cfg Config) (*slog.Logger, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	switch resolveFormat(cfg.Format, cfg.Writer) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(cfg.Writer, opts)), nil
	case FormatText:
		return slog.New(slog.NewTextHandler(cfg.Writer, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// ParseLevel converts a level name to slog.Level. An empty name means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resolveFormat(format string, w io.Writer) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != FormatAuto {
		return format
	}

	// Проверяем, является ли вывод терминалом
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatText
	}
	return FormatJSON
}
