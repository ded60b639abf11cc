package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const otelScope = "arena-server"

// Outputs lists where records go. A nil File means stdout.
type Outputs struct {
	File  io.Writer
	OTel  *sdklog.LoggerProvider
	Extra []slog.Handler
}

// SlogManager owns the process logger. Its level is shared by every handler
// built from it, so SetLevel takes effect without another Setup.
type SlogManager struct {
	level   slog.LevelVar
	stdout  io.Writer
	logger  *slog.Logger
	otel    *sdklog.LoggerProvider
	context ContextProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{stdout: os.Stdout}
}

// ParseLevel accepts the slog level names in any case, with an optional
// offset such as "debug-2". Anything else is info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Level is the manager's live level, for handlers built outside Setup.
func (m *SlogManager) Level() slog.Leveler {
	return &m.level
}

func (m *SlogManager) SetLevel(level string) {
	m.level.Set(ParseLevel(level))
}

// SetContextProvider makes every record logged after the next Setup carry
// the attributes p returns.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context = p
}

// Setup replaces the logger. Text records carry UTC RFC3339 times.
func (m *SlogManager) Setup(out Outputs, level string) {
	m.SetLevel(level)
	m.otel = out.OTel

	w := out.File
	if w == nil {
		w = m.stdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       &m.level,
		ReplaceAttr: utcTime,
	})}
	if out.OTel != nil {
		handlers = append(handlers, otelslog.NewHandler(otelScope, otelslog.WithLoggerProvider(out.OTel)))
	}
	handlers = append(handlers, out.Extra...)

	m.logger = slog.New(NewContextHandler(NewMultiHandler(handlers...), m.context))
	m.logger.Info("Logging initialized", "level", m.level.Level().String())
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Logger is slog.Default until Setup runs.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush exports records buffered for OTel.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.otel == nil {
		return nil
	}
	return m.otel.ForceFlush(ctx)
}
