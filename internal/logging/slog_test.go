package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// newTestManager writes its stdout fallback into the returned buffer.
func newTestManager() (*SlogManager, *bytes.Buffer) {
	var stdout bytes.Buffer
	m := NewSlogManager()
	m.stdout = &stdout
	return m, &stdout
}

func TestSetup_Destination(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		m, stdout := newTestManager()
		var file bytes.Buffer
		m.Setup(Outputs{File: &file}, "info")
		m.Logger().Info("wave spawned")

		assert.Contains(t, file.String(), "wave spawned")
		assert.Contains(t, file.String(), "Logging initialized")
		assert.Empty(t, stdout.String())
	})
	t.Run("stdout", func(t *testing.T) {
		m, stdout := newTestManager()
		m.Setup(Outputs{}, "info")
		m.Logger().Info("wave spawned")

		assert.Contains(t, stdout.String(), "wave spawned")
	})
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{level: "debug", wantDebug: true, wantWarn: true},
		{level: "INFO", wantDebug: false, wantWarn: true},
		{level: "error", wantDebug: false, wantWarn: false},
		{level: "bogus", wantDebug: false, wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			m, out := newTestManager()
			m.Setup(Outputs{}, tt.level)

			m.Logger().Debug("tick debug")
			m.Logger().Warn("tick warn")

			assert.Equal(t, tt.wantDebug, strings.Contains(out.String(), "tick debug"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out.String(), "tick warn"))
		})
	}
}

func TestSetLevel_AppliesWithoutSetup(t *testing.T) {
	m, out := newTestManager()
	var extra bytes.Buffer
	m.Setup(Outputs{Extra: []slog.Handler{
		slog.NewTextHandler(&extra, &slog.HandlerOptions{Level: m.Level()}),
	}}, "info")

	m.Logger().Debug("hidden")
	m.SetLevel("debug")
	m.Logger().Debug("shown")

	for _, s := range []string{out.String(), extra.String()} {
		assert.NotContains(t, s, "hidden")
		assert.Contains(t, s, "shown")
	}
}

func TestSetup_ReplacesLogger(t *testing.T) {
	m, _ := newTestManager()
	var first, second bytes.Buffer

	m.Setup(Outputs{File: &first}, "info")
	m.Logger().Info("one")
	m.Setup(Outputs{File: &second}, "info")
	m.Logger().Info("two")

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), "two")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"debug-2", slog.LevelDebug - 2},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestFlush(t *testing.T) {
	m, _ := newTestManager()
	assert.NoError(t, m.Flush(context.Background()), "no provider")

	m.Setup(Outputs{OTel: sdklog.NewLoggerProvider()}, "info")
	m.Logger().Info("bridged")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestSetup_ContextProvider(t *testing.T) {
	m, out := newTestManager()
	running := 3
	m.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{slog.Int("runningMatches", running)}
	})
	m.Setup(Outputs{}, "info")

	m.Logger().Info("first")
	running = 1
	m.Logger().InfoContext(WithMatch(context.Background(), "m1"), "second")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "runningMatches=3")
	assert.Contains(t, lines[2], "runningMatches=1")
	assert.Contains(t, lines[2], "match=m1")
}

func TestSetup_ExtraHandlers(t *testing.T) {
	m, out := newTestManager()
	var extra bytes.Buffer
	m.Setup(Outputs{Extra: []slog.Handler{slog.NewTextHandler(&extra, nil), nil}}, "info")

	m.Logger().Info("to both")
	assert.Contains(t, out.String(), "to both")
	assert.Contains(t, extra.String(), "to both")
}
