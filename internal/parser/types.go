package parser

import "github.com/cradlewars/arena/internal/engine"

// Command is a parsed client intent addressed to a match.
type Command struct {
	MatchID string
	Action  engine.Action
}

// Wire payloads. Pointer fields are required; a missing one is an error
// rather than a zero coordinate.

type spawnPayload struct {
	PlayerID string `json:"playerId"`
	Team     string `json:"team"`
	Ability  string `json:"ability"`
	Bot      bool   `json:"bot"`
}

type removePayload struct {
	PlayerID string `json:"playerId"`
}

type movePayload struct {
	HeroID  string   `json:"heroId"`
	TargetX *float64 `json:"targetX"`
	TargetY *float64 `json:"targetY"`
}

type abilityPayload struct {
	HeroID string   `json:"heroId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

type rewardPayload struct {
	HeroID   string `json:"heroId"`
	RewardID string `json:"rewardId"`
}

type endPayload struct {
	WinningTeam string `json:"winningTeam"`
}
