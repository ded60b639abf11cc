// Package websocket streams match data to a replication service and accepts
// client commands from it.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/pkg/core"
	"github.com/cradlewars/arena/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	// SnapshotEvery sends every Nth tick's snapshot. Values below 1 send all.
	SnapshotEvery int
	// OnCommand receives the payload of every inbound command message.
	OnCommand func(payload []byte)
	Logger    *slog.Logger
}

// Backend streams match data over WebSocket. It implements storage.Backend
// but not storage.Uploadable.
type Backend struct {
	conn *connection
	cfg  Config
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SnapshotEvery < 1 {
		cfg.SnapshotEvery = 1
	}
	return &Backend{
		conn: newConnection(cfg.Logger.With("component", "websocket"), cfg.OnCommand),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartMatch announces the match and waits for the server ack.
func (b *Backend) StartMatch(info *core.MatchInfo) error {
	data, err := marshalEnvelope(streaming.TypeStartMatch, streaming.StartMatchPayload{Match: *info})
	if err != nil {
		return err
	}
	b.conn.announce(info.ID, data)
	return b.conn.sendAndWait(data, streaming.TypeStartMatch, ackTimeout)
}

// RecordSnapshot sends every SnapshotEvery-th snapshot, and always the one
// that finishes the match (fire-and-forget).
func (b *Backend) RecordSnapshot(s *core.Snapshot) error {
	if s.Tick%uint64(b.cfg.SnapshotEvery) != 0 && s.Phase != core.PhaseFinished {
		return nil
	}
	data, err := marshalEnvelope(streaming.TypeSnapshot, streaming.SnapshotPayload{Snapshot: *s})
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// EndMatch sends the result and waits for the server ack.
func (b *Backend) EndMatch(result *core.MatchResult) error {
	// Forget the match regardless of the outcome.
	defer b.conn.retire(result.MatchID)

	data, err := marshalEnvelope(streaming.TypeEndMatch, streaming.EndMatchPayload{Result: *result})
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, streaming.TypeEndMatch, ackTimeout)
}
