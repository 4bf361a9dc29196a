package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	l.Debug("hidden")
	l.Named("monitor").Info("visible", String("sector", "S1"))
	require.NoError(t, l.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"logger":"monitor"`)
	assert.Contains(t, buf.String(), `"sector":"S1"`)
}

func TestWithFilter(t *testing.T) {
	filter, err := WithFilter("debug:monitor warn:*")
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	l := DevLogger(buf, DebugLevel, filter)

	l.Named("monitor").Debug("from monitor")
	l.Named("telemetry").Info("from telemetry")
	l.Named("telemetry").Warn("warning from telemetry")

	assert.Contains(t, buf.String(), "from monitor")
	assert.NotContains(t, buf.String(), "\tfrom telemetry")
	assert.Contains(t, buf.String(), "warning from telemetry")

	_, err = WithFilter("foo:bar")
	assert.Error(t, err)
}

func TestResetDefault(t *testing.T) {
	old := Default()
	defer ResetDefault(old)
	buf := &bytes.Buffer{}
	ResetDefault(New(buf, DebugLevel))
	Debug("package level")
	assert.Contains(t, buf.String(), "package level")
}
