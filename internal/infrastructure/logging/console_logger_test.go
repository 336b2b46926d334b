package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"prinsight.ai/cli/internal/application/ports"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, ports.LogLevelWarn, false)

	l.Log(ports.LogLevelDebug, "hidden debug", nil)
	l.Log(ports.LogLevelInfo, "hidden info", nil)
	l.Log(ports.LogLevelWarn, "shown warn", nil)
	l.LogError(errors.New("boom"), "shown error", nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: shown warn")
	assert.Contains(t, out, "ERROR: shown error: boom")

	buf.Reset()
	l.SetLogLevel(ports.LogLevelDebug)
	assert.Equal(t, ports.LogLevelDebug, l.GetLogLevel())
	l.Log(ports.LogLevelDebug, "now visible", nil)
	assert.Contains(t, buf.String(), "DEBUG: now visible")
}

func TestConsoleLogger_SortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, ports.LogLevelInfo, false)

	l.Log(ports.LogLevelInfo, "Configuration resolved", map[string]interface{}{
		"warnings":   2,
		"repository": "acme/web",
		"cache_hit":  false,
	})

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, "[pri] "))
	assert.True(t, strings.HasSuffix(line, "INFO: Configuration resolved cache_hit=false repository=acme/web warnings=2"), line)
}

func TestDiscard(t *testing.T) {
	var d ports.LoggingGateway = Discard{}
	d.Log(ports.LogLevelError, "x", nil)
	assert.Equal(t, ports.LogLevelError, d.GetLogLevel())
}
