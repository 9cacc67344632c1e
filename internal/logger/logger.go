package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Config struct {
	// Debug forces the debug level regardless of LOG_LEVEL.
	Debug bool
	// Writer receives log output when LOG_FILE is unset; defaults to stderr.
	Writer io.Writer
}

// Init initializes the global slog logger.
// LOG_LEVEL selects the level, LOG_FORMAT=json switches to JSON output and
// LOG_FILE redirects output to a file.
func Init(cfg Config) {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			slog.Error("failed to create log directory, using stderr only", "file", logFile, "error", err)
		} else {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				slog.Error("failed to open log file, using stderr only", "file", logFile, "error", err)
			} else {
				w = f
			}
		}
	}

	slog.SetDefault(slog.New(newHandler(w, os.Getenv("LOG_FORMAT"), opts)))
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewRequestLogger creates a logger with a unique requestId for API handlers.
func NewRequestLogger() *slog.Logger {
	return slog.With("requestId", uuid.Must(uuid.NewV7()).String())
}
