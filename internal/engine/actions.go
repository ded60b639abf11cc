package engine

import "github.com/cradlewars/arena/pkg/core"

// Action is one input to ProcessAction. Types this package does not know
// are ignored.
type Action interface {
	ActionType() string
}

// Action type names, as carried on the wire.
const (
	TypeSetupGame    = "SETUP_GAME"
	TypeSpawnPlayer  = "SPAWN_PLAYER"
	TypeRemovePlayer = "REMOVE_PLAYER"
	TypeMoveHero     = "MOVE_HERO"
	TypeUpdateGame   = "UPDATE_GAME"
	TypeEndGame      = "END_GAME"
	TypeUseAbility   = "USE_ABILITY"
	TypeChooseReward = "CHOOSE_REWARD"
)

// SetupGame places both cradles, the turrets and the obstacles and starts
// play.
type SetupGame struct{}

// SpawnPlayer creates a hero near its team's cradle. An empty Ability uses
// the configured default.
type SpawnPlayer struct {
	PlayerID string
	Team     core.Team
	Ability  core.AbilityType
	Bot      bool
}

// RemovePlayer deletes a hero, typically on disconnect.
type RemovePlayer struct {
	PlayerID string
}

// MoveHero steps a hero toward a target point.
type MoveHero struct {
	HeroID  string
	TargetX float64
	TargetY float64
}

// UpdateGame advances the match by DeltaTime milliseconds.
type UpdateGame struct {
	DeltaTime int64
}

// EndGame finishes the match with the given winner.
type EndGame struct {
	WinningTeam core.Team
}

// UseAbility fires a hero's ability toward a point.
type UseAbility struct {
	HeroID string
	X      float64
	Y      float64
}

// ChooseReward spends one pending level-up reward.
type ChooseReward struct {
	HeroID   string
	RewardID string
}

func (SetupGame) ActionType() string    { return TypeSetupGame }
func (SpawnPlayer) ActionType() string  { return TypeSpawnPlayer }
func (RemovePlayer) ActionType() string { return TypeRemovePlayer }
func (MoveHero) ActionType() string     { return TypeMoveHero }
func (UpdateGame) ActionType() string   { return TypeUpdateGame }
func (EndGame) ActionType() string      { return TypeEndGame }
func (UseAbility) ActionType() string   { return TypeUseAbility }
func (ChooseReward) ActionType() string { return TypeChooseReward }
