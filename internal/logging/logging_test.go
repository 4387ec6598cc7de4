package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/benbjohnson/clari/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	} {
		level, err := logging.ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, level, tt.in)
	}

	_, err := logging.ParseLevel("loud")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	require.False(t, l.Enabled(slog.LevelInfo))
	require.True(t, l.Enabled(slog.LevelError))

	l.Info("dropped")
	l.With("backend", "z3").Warn("kept", "n", 1)
	require.NotContains(t, buf.String(), "dropped")
	require.True(t, strings.Contains(buf.String(), "backend=z3"), buf.String())
	require.Contains(t, buf.String(), "n=1")

	require.False(t, logging.Discard().Enabled(slog.LevelDebug))
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := logging.NewLevel(base, slog.LevelError)
	require.False(t, l.Enabled(slog.LevelWarn))
	require.True(t, l.Enabled(slog.LevelError))

	l.Debug("dropped")
	l.With("backend", "z3").Warn("dropped")
	l.With("backend", "z3").Error("kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "backend=z3")

	// The wrapped handler still applies its own level.
	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	require.False(t, logging.NewLevel(quiet, slog.LevelDebug).Enabled(slog.LevelInfo))
}
