package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var Logger *slog.Logger

func init() {
	// Create logs directory
	os.MkdirAll("logs", 0755)

	// Create log file
	logFile, err := os.OpenFile(filepath.Join("logs", "drivewatch.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		panic(err)
	}

	Logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Configure reopens the logger with the configured log file path and level.
// Called once after config load; before that the default logger is active.
func Configure(path, level string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	Logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	return nil
}

// ConfigureWriter is like Configure but logs to the given writer. Used in tests.
func ConfigureWriter(w io.Writer, level string) {
	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
