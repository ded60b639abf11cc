package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlewars/arena/internal/dispatcher"
)

var _ dispatcher.Logger = DispatcherLogger{}

func TestDispatcherLogger(t *testing.T) {
	tests := []struct {
		level string
		log   func(DispatcherLogger)
	}{
		{level: "DEBUG", log: func(l DispatcherLogger) { l.Debug("handling event", "command", ":MATCH:START:", "tick", 42) }},
		{level: "INFO", log: func(l DispatcherLogger) { l.Info("handling event", "command", ":MATCH:START:", "tick", 42) }},
		{level: "ERROR", log: func(l DispatcherLogger) { l.Error("handling event", "command", ":MATCH:START:", "tick", 42) }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
			tt.log(dl)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "handling event", entry["msg"])
			assert.Equal(t, "dispatcher", entry["component"])
			assert.Equal(t, ":MATCH:START:", entry["command"])
			assert.EqualValues(t, 42, entry["tick"])
		})
	}
}

func TestDispatcherLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	dl.Debug("dropped")
	assert.Empty(t, buf.String())
}
