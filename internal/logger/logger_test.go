package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name          string
		level         Level
		logFunc       func(Logger, string)
		expectedInLog bool
	}{
		{"debug at debug", LevelDebug, func(l Logger, m string) { l.Debug(m) }, true},
		{"debug at info", LevelInfo, func(l Logger, m string) { l.Debug(m) }, false},
		{"info at info", LevelInfo, func(l Logger, m string) { l.Info(m) }, true},
		{"warn at error", LevelError, func(l Logger, m string) { l.Warn(m) }, false},
		{"error at error", LevelError, func(l Logger, m string) { l.Error(m) }, true},
		{"error when silent", LevelSilent, func(l Logger, m string) { l.Error(m) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(NewLogger(tt.level, buf), "test message")
			assert.Equal(t, tt.expectedInLog, strings.Contains(buf.String(), "test message"), buf.String())
		})
	}
}

func TestLogger_ConsoleFields(t *testing.T) {
	buf := &bytes.Buffer{}
	NewLogger(LevelInfo, buf).Info("synced", F("file", "a.h"), F("preserved", 2))

	out := buf.String()
	assert.Contains(t, out, "synced")
	assert.Contains(t, out, "file=a.h")
	assert.Contains(t, out, "preserved=2")
	assert.NotContains(t, out, "\x1b[", "buffers get no color codes")
}

func TestLogger_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewJSONLogger(LevelDebug, buf).WithFields(F("cmd", "sync"))
	l.Warn("broken original", F("file", "b.h"), F("error", errors.New("bad tag")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "broken original", entry["message"])
	assert.Equal(t, "sync", entry["cmd"])
	assert.Equal(t, "b.h", entry["file"])
	assert.Equal(t, "bad tag", entry["error"])
}

func TestLogger_SetLevelAffectsChildren(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewLogger(LevelInfo, buf)
	child := parent.WithFields(F("k", "v"))

	parent.SetLevel(LevelError)
	child.Info("hidden")
	assert.Empty(t, buf.String())

	child.SetLevel(LevelDebug)
	parent.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelInfo},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelSilent},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "SILENT", LevelSilent.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := &bytes.Buffer{}
	SetDefault(NewLogger(LevelWarn, buf))

	Info("quiet")
	Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	SetDefault(NewSilentLogger())
	Error("nothing")
	assert.NotContains(t, buf.String(), "nothing")
}
