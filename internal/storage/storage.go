package storage

import "github.com/cradlewars/arena/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Calls for one match arrive in order: StartMatch, any number of
// RecordSnapshot, then EndMatch. Calls for different matches may interleave.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management
	StartMatch(info *core.MatchInfo) error
	EndMatch(result *core.MatchResult) error

	// State recording
	RecordSnapshot(s *core.Snapshot) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the results API.
type Uploadable interface {
	// ExportedFile returns the file written for a finished match.
	ExportedFile(matchID string) (path string, meta core.UploadMetadata, ok bool)
}

// EventCursor tracks the highest event id seen per match so backends record
// each event once even though every snapshot carries the retained log.
type EventCursor map[string]uint64

// Advance returns the events of s not seen before and moves the cursor.
func (c EventCursor) Advance(s *core.Snapshot) core.Events {
	fresh := s.Events.Since(c[s.MatchID])
	if s.Events.NextID > c[s.MatchID] {
		c[s.MatchID] = s.Events.NextID
	}
	return fresh
}
