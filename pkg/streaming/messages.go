package streaming

import (
	"encoding/json"

	"github.com/cradlewars/arena/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMatch = "start_match"
	TypeSnapshot   = "snapshot"
	TypeEndMatch   = "end_match"
	TypeAck        = "ack"

	// TypeCommand is sent by the replication service: a client intent for a
	// running match.
	TypeCommand = "command"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload announces a match.
type StartMatchPayload struct {
	Match core.MatchInfo `json:"match"`
}

// SnapshotPayload is one post-tick snapshot.
type SnapshotPayload struct {
	Snapshot core.Snapshot `json:"snapshot"`
}

// EndMatchPayload carries the final result of a match.
type EndMatchPayload struct {
	Result core.MatchResult `json:"result"`
}

// CommandPayload is an inbound client intent. Type is an engine action type
// such as MOVE_HERO; Payload holds its fields.
type CommandPayload struct {
	MatchID string          `json:"matchId"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
