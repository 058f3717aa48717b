package logging

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup routes the default slog logger to a rotated log file. The TUI owns
// the terminal, so nothing is written to stdout/stderr; every user-visible
// error is logged here in full before it gets truncated for display.
func Setup(path string) *slog.Logger {
	fileLogger := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     28, // days
	}

	logger := slog.New(slog.NewJSONHandler(fileLogger, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// Discard silences the default logger, for tests.
func Discard() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(devNull{}, nil)))
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }
