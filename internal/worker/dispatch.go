package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cradlewars/arena/internal/dispatcher"
	"github.com/cradlewars/arena/internal/influx"
	"github.com/cradlewars/arena/internal/logging"
	"github.com/cradlewars/arena/internal/match"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/pkg/core"
)

// EventCommand carries a raw inbound command payload.
const EventCommand = ":COMMAND:"

// DefaultCommandBuffer is the dispatcher queue size for inbound commands.
const DefaultCommandBuffer = 1000

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Match lifecycle - sync into the ordered pipeline, never dropped
	d.Register(match.EventStarted, m.enqueueLifecycle, dispatcher.Logged())
	d.Register(match.EventEnded, m.enqueueLifecycle, dispatcher.Logged())

	// Snapshots - into the same pipeline, dropped when it is full
	d.Register(match.EventSnapshot, m.enqueueSnapshot)

	// Inbound client commands - buffered
	if m.deps.Matches != nil {
		d.Register(EventCommand, m.handleCommand, dispatcher.Buffered(DefaultCommandBuffer), dispatcher.Logged())
	}
}

// enqueueLifecycle waits for room in the pipeline. Once Stop has been called
// it refuses, since the pipeline goroutine may already be gone.
func (m *Manager) enqueueLifecycle(e dispatcher.Event) (any, error) {
	select {
	case <-m.stop:
		return nil, ErrStopped
	default:
	}
	select {
	case m.pipeline <- e:
		return dispatcher.Queued, nil
	case <-m.stop:
		return nil, ErrStopped
	}
}

func (m *Manager) enqueueSnapshot(e dispatcher.Event) (any, error) {
	select {
	case <-m.stop:
		return nil, ErrStopped
	default:
	}
	select {
	case m.pipeline <- e:
		return dispatcher.Queued, nil
	default:
		return nil, ErrPipelineFull
	}
}

// process handles one notification in publish order.
func (m *Manager) process(e dispatcher.Event) {
	ctx := logging.WithMatch(context.Background(), e.MatchID)
	var err error
	switch e.Command {
	case match.EventStarted:
		err = m.handleMatchStarted(e)
	case match.EventSnapshot:
		err = m.handleSnapshot(ctx, e)
	case match.EventEnded:
		err = m.handleMatchEnded(ctx, e)
	default:
		err = fmt.Errorf("%w: %s", dispatcher.ErrUnknownCommand, e.Command)
	}
	if err != nil {
		m.log.ErrorContext(ctx, "Failed to process event", "command", e.Command, "error", err)
	}
}

func (m *Manager) handleMatchStarted(e dispatcher.Event) error {
	info, ok := e.Payload.(core.MatchInfo)
	if !ok {
		return fmt.Errorf("unexpected payload %T for match start", e.Payload)
	}
	if m.backend == nil {
		return nil
	}
	if err := m.backend.StartMatch(&info); err != nil {
		return fmt.Errorf("failed to record match start: %w", err)
	}
	return nil
}

func (m *Manager) handleSnapshot(ctx context.Context, e dispatcher.Event) error {
	snap, ok := e.Payload.(core.Snapshot)
	if !ok {
		return fmt.Errorf("unexpected payload %T for snapshot", e.Payload)
	}

	if m.deps.Influx != nil {
		if err := m.deps.Influx.WritePoint(m.deps.Influx.TickBucket(), influx.TickPoint(snap)); err != nil {
			m.log.DebugContext(ctx, "Failed to write tick point", "error", err)
		}
	}

	if m.backend == nil {
		return nil
	}
	if err := m.backend.RecordSnapshot(&snap); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

func (m *Manager) handleMatchEnded(ctx context.Context, e dispatcher.Event) error {
	result, ok := e.Payload.(core.MatchResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T for match end", e.Payload)
	}
	if m.backend == nil {
		return nil
	}
	if err := m.backend.EndMatch(&result); err != nil {
		return fmt.Errorf("failed to record match end: %w", err)
	}
	m.log.InfoContext(ctx, "Match recorded", "winner", result.Winner, "ticks", result.Ticks)

	if m.deps.Uploader == nil {
		return nil
	}
	up, ok := m.backend.(storage.Uploadable)
	if !ok {
		return nil
	}
	path, meta, ok := up.ExportedFile(result.MatchID)
	if !ok {
		return nil
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	if err := m.deps.Uploader.Upload(uploadCtx, path, meta); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	m.log.InfoContext(ctx, "Match uploaded", "file", path)
	return nil
}

// handleCommand parses a raw command payload and submits it to its match.
func (m *Manager) handleCommand(e dispatcher.Event) (any, error) {
	var raw []byte
	switch p := e.Payload.(type) {
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	default:
		return nil, fmt.Errorf("unexpected payload %T for command", e.Payload)
	}

	cmd, err := m.deps.Parser.ParseCommand(raw)
	if err != nil {
		return nil, err
	}
	if err := m.deps.Matches.Submit(cmd.MatchID, cmd.Action); err != nil {
		return nil, fmt.Errorf("failed to submit command to match %s: %w", cmd.MatchID, err)
	}
	return nil, nil
}

// CommandForwarder returns a callback that hands raw command payloads to the
// dispatcher, for the streaming backend's inbound channel.
func CommandForwarder(d *dispatcher.Dispatcher) func([]byte) {
	return func(payload []byte) {
		_, _ = d.Dispatch(dispatcher.Event{Command: EventCommand, Payload: payload, Timestamp: time.Now()})
	}
}
