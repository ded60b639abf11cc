package logging

import (
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageRecorder struct {
	messages []*gelf.Message
	err      error
}

func (r *messageRecorder) WriteMessage(m *gelf.Message) error {
	r.messages = append(r.messages, m)
	return r.err
}

func TestGELFHandler_Message(t *testing.T) {
	rec := &messageRecorder{}
	logger := slog.New(NewGELFHandler(rec, slog.LevelInfo, "arena"))

	logger.With("match", "m1").WithGroup("tick").Warn("slow tick", "ms", 12, "over", true)

	require.Len(t, rec.messages, 1)
	m := rec.messages[0]
	assert.Equal(t, "slow tick", m.Short)
	assert.Equal(t, "arena", m.Facility)
	assert.Equal(t, int32(4), m.Level)
	assert.Equal(t, "1.1", m.Version)
	assert.Positive(t, m.TimeUnix)
	assert.Equal(t, "m1", m.Extra["_match"])
	assert.Equal(t, int64(12), m.Extra["_tick.ms"])
	assert.Equal(t, true, m.Extra["_tick.over"])
}

func TestGELFHandler_FiltersLevel(t *testing.T) {
	rec := &messageRecorder{}
	logger := slog.New(NewGELFHandler(rec, slog.LevelWarn, "arena"))

	logger.Info("dropped")
	logger.Error("kept")

	require.Len(t, rec.messages, 1)
	assert.Equal(t, "kept", rec.messages[0].Short)
	assert.Equal(t, int32(3), rec.messages[0].Level)
}

func TestGELFHandler_GroupAttr(t *testing.T) {
	rec := &messageRecorder{}
	logger := slog.New(NewGELFHandler(rec, slog.LevelDebug, "arena"))

	logger.Debug("hero", slog.Group("pos", slog.Float64("x", 1.5), slog.Float64("y", 2)))

	require.Len(t, rec.messages, 1)
	assert.Equal(t, int32(7), rec.messages[0].Level)
	assert.Equal(t, 1.5, rec.messages[0].Extra["_pos.x"])
	assert.Equal(t, 2.0, rec.messages[0].Extra["_pos.y"])
}

func TestGELFHandler_WriteErrorIsReturned(t *testing.T) {
	rec := &messageRecorder{err: errors.New("graylog down")}
	h := NewGELFHandler(rec, slog.LevelInfo, "arena")

	// MultiHandler swallows the error so other sinks still receive the record.
	var buf messageRecorder
	logger := slog.New(NewMultiHandler(h, NewGELFHandler(&buf, slog.LevelInfo, "arena")))
	logger.Info("still delivered")
	assert.Len(t, buf.messages, 1)
}

func TestNewGELFWriter_UDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	w, err := NewGELFWriter(conn.LocalAddr().String())
	require.NoError(t, err)
	defer w.Close()

	logger := slog.New(NewGELFHandler(w, slog.LevelInfo, "arena"))
	logger.Info("over the wire")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	assert.Positive(t, n)
}
