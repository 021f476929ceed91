package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// logging levels
const (
	TRACE = "TRACE"
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

var logger = hclog.New(&hclog.LoggerOptions{
	Name:   "kafkameta",
	Level:  hclog.Info,
	Output: os.Stdout,
})

// SetLogLevel sets the log level for filtering logs. Unknown levels are rejected.
func SetLogLevel(logLevel string) error {
	level := hclog.LevelFromString(strings.TrimSpace(logLevel))
	if level == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	logger.SetLevel(level)
	return nil
}

// SetOutput redirects log output, tests use it to silence or capture logs
func SetOutput(w io.Writer) {
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "kafkameta",
		Level:  logger.GetLevel(),
		Output: w,
	})
}

// Trace logs a message at TRACE level
func Trace(message string, a ...any) {
	if logger.IsTrace() {
		logger.Trace(fmt.Sprintf(message, a...))
	}
}

// Debug logs a message at DEBUG level
func Debug(message string, a ...any) {
	if logger.IsDebug() {
		logger.Debug(fmt.Sprintf(message, a...))
	}
}

// Info logs a message at INFO level
func Info(message string, a ...any) {
	logger.Info(fmt.Sprintf(message, a...))
}

// Warn logs a message at WARN level
func Warn(message string, a ...any) {
	logger.Warn(fmt.Sprintf(message, a...))
}

// Error logs a message at ERROR level
func Error(message string, a ...any) {
	logger.Error(fmt.Sprintf(message, a...))
}
