package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogCategoryThresholds(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)
	SetGlobalLogFloor(LogLevelDebug)

	cat := NewLogCategory("LogThresholdTest")
	cat.SetMinLevel(LogLevelInfo)

	cat.Debugf("dropped %d", 1)
	cat.Infof("kept %d", 2)
	cat.Warnf("kept %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "INFO  LogThresholdTest: kept 2")
	assert.Contains(t, out, "WARN  LogThresholdTest: kept 3")

	cat.SetMinLevel(LogLevelDebug)
	assert.True(t, cat.Enabled(LogLevelDebug))
	buf.Reset()
	cat.Debugf("now visible")
	assert.Contains(t, buf.String(), "DEBUG LogThresholdTest: now visible")
}

func TestGlobalLogFloor(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)

	cat := NewLogCategory("LogFloorTest")
	cat.SetMinLevel(LogLevelDebug)

	SetGlobalLogFloor(LogLevelError)
	defer SetGlobalLogFloor(LogLevelDebug)

	cat.Infof("suppressed")
	cat.Errorf("surfaced")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "ERROR LogFloorTest: surfaced")
}

func TestNewLogCategoryIsShared(t *testing.T) {
	a := NewLogCategory("LogSharedTest")
	b := NewLogCategory("LogSharedTest")
	assert.Same(t, a, b)

	a.SetMinLevel(LogLevelNone)
	assert.False(t, b.Enabled(LogLevelError))
	a.SetMinLevel(LogLevelInfo)
}
