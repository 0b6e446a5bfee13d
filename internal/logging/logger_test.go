package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"agentesocial/internal/config"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(config.LogConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = NewLogger(config.LogConfig{Level: "nonsense", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestNewServiceLogger(t *testing.T) {
	entry := NewServiceLogger(config.LogConfig{Level: "info", Format: "json"}, "svc-a")
	assert.Equal(t, "svc-a", entry.Data["service"])
}
