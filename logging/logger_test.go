package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLoggerTo(&buf, LogLevelInfo, "json")
	logger.Info("provider.call", "provider", "openai")

	out := buf.String()
	assert.Contains(t, out, `"msg":"provider.call"`)
	assert.Contains(t, out, `"provider":"openai"`)

	buf.Reset()
	logger = NewSlogLoggerTo(&buf, LogLevelInfo, "text")
	logger.Warn("agent.tool.failed", "tool", "get_weather")
	assert.True(t, strings.Contains(buf.String(), "agent.tool.failed"))
}

func TestSlogLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLoggerTo(&buf, LogLevelWarn, "json")

	logger.Debug("dropped")
	logger.Info("dropped too")
	assert.Empty(t, buf.String())

	logger.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l := NewSlogLoggerTo(&bytes.Buffer{}, LogLevelInfo, "json")
	assert.Same(t, l.(*SlogAdapter), OrNoOp(l).(*SlogAdapter))
}
