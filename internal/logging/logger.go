// internal/logging/logger.go

package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// NewLogger creates a logger configured from LogConfig. Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// NewServiceLogger returns an entry that tags every line with the service name
func NewServiceLogger(cfg config.LogConfig, service string) *logrus.Entry {
	return NewLogger(cfg).WithField("service", service)
}

// Discard returns a logger that drops everything, for tests and optional collaborators
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
