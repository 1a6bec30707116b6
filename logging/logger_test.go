package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("hidden")
	l.Info("also hidden")
	l.Warn("visible %d", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "visible 1")
	require.Contains(t, out, "WARN")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelDebug)

	child := l.WithFields(map[string]any{"conn": "abc"})
	child.Info("hello")

	require.Contains(t, buf.String(), "conn=abc")
}

func TestLoggerSubscribe(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelDebug)

	ch := l.Subscribe()
	l.Info("subscribed message")

	entry := <-ch
	require.True(t, strings.Contains(entry.Message, "subscribed"))
	require.Equal(t, LevelInfo, entry.Level)
}
