package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingHandler accepts every level and fails every record.
type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestMultiHandler_RoutesByLevel(t *testing.T) {
	var info, debug bytes.Buffer
	logger := slog.New(NewMultiHandler(textHandler(&info, slog.LevelInfo), nil, textHandler(&debug, slog.LevelDebug)))

	logger.Debug("bot decided")
	logger.Info("wave spawned")

	assert.NotContains(t, info.String(), "bot decided")
	assert.Contains(t, info.String(), "wave spawned")
	assert.Contains(t, debug.String(), "bot decided")
	assert.Contains(t, debug.String(), "wave spawned")
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))

	infoOnly := NewMultiHandler(textHandler(&buf, slog.LevelInfo))
	assert.False(t, infoOnly.Enabled(ctx, slog.LevelDebug))
	assert.True(t, infoOnly.Enabled(ctx, slog.LevelInfo))

	mixed := NewMultiHandler(textHandler(&buf, slog.LevelInfo), textHandler(&buf, slog.LevelDebug))
	assert.True(t, mixed.Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(failingHandler{}, textHandler(&buf, slog.LevelInfo), failingHandler{})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "cradle destroyed", 0)
	err := multi.Handle(context.Background(), r)

	require.Error(t, err)
	assert.Contains(t, buf.String(), "cradle destroyed", "the healthy sink still gets the record")
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 2)
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(textHandler(&a, slog.LevelInfo), textHandler(&b, slog.LevelInfo))

	assert.Same(t, multi, multi.WithGroup(""))

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "worker")}).WithGroup("snap"))
	logger.Info("recorded", "tick", 12)

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "component=worker")
		assert.Contains(t, out, "snap.tick=12")
	}
}

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	h := NewContextHandler(textHandler(&buf, slog.LevelInfo), func() []slog.Attr {
		calls++
		return []slog.Attr{slog.Int("runningMatches", 2)}
	})
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "match")}))

	logger.InfoContext(WithMatch(context.Background(), "m9"), "match ended")
	logger.Debug("filtered before the provider runs")

	out := buf.String()
	assert.Contains(t, out, "component=match")
	assert.Contains(t, out, "match=m9")
	assert.Contains(t, out, "runningMatches=2")
	assert.Equal(t, 1, calls)
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(textHandler(&buf, slog.LevelInfo), nil))

	logger.Info("no match")
	assert.NotContains(t, buf.String(), "match=")

	h := NewContextHandler(textHandler(&buf, slog.LevelInfo), nil)
	assert.Same(t, h, h.WithGroup(""))
}

func TestMatchFromContext(t *testing.T) {
	_, ok := MatchFromContext(context.Background())
	assert.False(t, ok)

	_, ok = MatchFromContext(WithMatch(context.Background(), ""))
	assert.False(t, ok, "an empty id is not a match")

	id, ok := MatchFromContext(WithMatch(context.Background(), "m1"))
	assert.True(t, ok)
	assert.Equal(t, "m1", id)
}
