package logger

import (
	"log/slog"
	"os"
	"strings"
)

var log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Init configures the package logger for the given environment.
// Production emits JSON, everything else human readable text.
func Init(environment string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	switch strings.ToLower(environment) {
	case "production":
		log = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "development":
		opts.Level = slog.LevelDebug
		log = slog.New(slog.NewTextHandler(os.Stdout, opts))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(log)
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
