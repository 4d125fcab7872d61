package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// setupLogger writes console logs to stderr.
func setupLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

// setupFileLogger writes logs to a file, for commands whose terminal belongs
// to the TUI. The returned func closes the file.
func setupFileLogger(path, level string) (*log.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
	})
	logger.SetLevel(parseLevel(level))
	return logger, func() { _ = f.Close() }, nil
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
