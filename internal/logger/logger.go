package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Supported log formats
const (
	FormatPlain       = "plain"
	FormatTimestamped = "timestamped"
)

// PlainFormatter prints only the message, with a level prefix for warnings and errors.
// It is the CLI default so that lines like "2 sessions added" read naturally.
type PlainFormatter struct{}

// Format formats a logrus entry as a bare message line
func (f *PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	switch entry.Level {
	case logrus.WarnLevel:
		b.WriteString("Warning: ")
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		b.WriteString("Error: ")
	}
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// TimestampedFormatter formats log messages for long-running server output.
// Format: 2025-05-30 12:21:53,426 - INFO - Starting scheduled sync
type TimestampedFormatter struct{}

// Format formats a logrus entry with timestamp and level
func (f *TimestampedFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05,000")
	level := levelName(entry.Level)

	formatted := fmt.Sprintf("%s - %s - %s\n", timestamp, level, entry.Message)
	return []byte(formatted), nil
}

func levelName(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARNING"
	case logrus.ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

// Setup configures a logger writing to stdout
func Setup(logLevel, format string) *logrus.Logger {
	return New(os.Stdout, logLevel, format)
}

// New configures a logger writing to out
func New(out io.Writer, logLevel, format string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if format == FormatTimestamped {
		logger.SetFormatter(&TimestampedFormatter{})
	} else {
		logger.SetFormatter(&PlainFormatter{})
	}

	logger.SetOutput(out)

	return logger
}

// LogIntegrations logs the configured integrations at startup of long-running modes
func LogIntegrations(logger *logrus.Logger, aliases []string, logLevel string) {
	switch len(aliases) {
	case 0:
		logger.Warn("No integrations configured")
	case 1:
		logger.Infof("Configured integration: %s", aliases[0])
	default:
		logger.Infof("Configured integrations: %s", strings.Join(aliases, ", "))
	}

	logger.Infof("Logging enabled at %s level", logLevel)
}
