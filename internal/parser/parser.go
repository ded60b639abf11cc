package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/cradlewars/arena/internal/ability"
	"github.com/cradlewars/arena/internal/economy"
	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/pkg/core"
	"github.com/cradlewars/arena/pkg/streaming"
)

// ErrInvalidCommand wraps every rejection of client input.
var ErrInvalidCommand = errors.New("invalid command")

// maxIDLength bounds player and hero ids.
const maxIDLength = 64

// Parser provides pure JSON -> engine action conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseCommand parses a raw command message: {"matchId", "type", "payload"}.
func (p *Parser) ParseCommand(data []byte) (Command, error) {
	var msg streaming.CommandPayload
	if err := json.Unmarshal(data, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: malformed message: %v", ErrInvalidCommand, err)
	}
	return p.Parse(msg)
}

// Parse converts a decoded command message to an engine action.
func (p *Parser) Parse(msg streaming.CommandPayload) (Command, error) {
	if msg.MatchID == "" {
		return Command{}, fmt.Errorf("%w: missing matchId", ErrInvalidCommand)
	}

	var (
		a   engine.Action
		err error
	)
	switch strings.ToUpper(msg.Type) {
	case engine.TypeSpawnPlayer:
		a, err = parseSpawn(msg.Payload)
	case engine.TypeRemovePlayer:
		a, err = parseRemove(msg.Payload)
	case engine.TypeMoveHero:
		a, err = parseMove(msg.Payload)
	case engine.TypeUseAbility:
		a, err = parseAbility(msg.Payload)
	case engine.TypeChooseReward:
		a, err = parseReward(msg.Payload)
	case engine.TypeEndGame:
		a, err = parseEnd(msg.Payload)
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, msg.Type)
	}
	if err != nil {
		p.logger.Debug("Rejected command", "match", msg.MatchID, "type", msg.Type, "error", err)
		return Command{}, err
	}
	return Command{MatchID: msg.MatchID, Action: a}, nil
}

func decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidCommand)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return nil
}

func parseSpawn(raw json.RawMessage) (engine.Action, error) {
	var pl spawnPayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	if err := checkID("playerId", pl.PlayerID); err != nil {
		return nil, err
	}
	team, err := parseTeam(pl.Team)
	if err != nil {
		return nil, err
	}
	t := core.AbilityType(strings.ToLower(pl.Ability))
	if t != "" && !ability.Valid(t) {
		return nil, fmt.Errorf("%w: unknown ability %q", ErrInvalidCommand, pl.Ability)
	}
	return engine.SpawnPlayer{PlayerID: pl.PlayerID, Team: team, Ability: t, Bot: pl.Bot}, nil
}

func parseRemove(raw json.RawMessage) (engine.Action, error) {
	var pl removePayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	if err := checkID("playerId", pl.PlayerID); err != nil {
		return nil, err
	}
	return engine.RemovePlayer{PlayerID: pl.PlayerID}, nil
}

func parseMove(raw json.RawMessage) (engine.Action, error) {
	var pl movePayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	if err := checkID("heroId", pl.HeroID); err != nil {
		return nil, err
	}
	x, y, err := point(pl.TargetX, pl.TargetY)
	if err != nil {
		return nil, err
	}
	return engine.MoveHero{HeroID: pl.HeroID, TargetX: x, TargetY: y}, nil
}

func parseAbility(raw json.RawMessage) (engine.Action, error) {
	var pl abilityPayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	if err := checkID("heroId", pl.HeroID); err != nil {
		return nil, err
	}
	x, y, err := point(pl.X, pl.Y)
	if err != nil {
		return nil, err
	}
	return engine.UseAbility{HeroID: pl.HeroID, X: x, Y: y}, nil
}

func parseReward(raw json.RawMessage) (engine.Action, error) {
	var pl rewardPayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	if err := checkID("heroId", pl.HeroID); err != nil {
		return nil, err
	}
	switch pl.RewardID {
	case economy.RewardHealth, economy.RewardStrength, economy.RewardSpeed, economy.RewardAbility:
	default:
		return nil, fmt.Errorf("%w: unknown reward %q", ErrInvalidCommand, pl.RewardID)
	}
	return engine.ChooseReward{HeroID: pl.HeroID, RewardID: pl.RewardID}, nil
}

func parseEnd(raw json.RawMessage) (engine.Action, error) {
	var pl endPayload
	if err := decode(raw, &pl); err != nil {
		return nil, err
	}
	team, err := parseTeam(pl.WinningTeam)
	if err != nil {
		return nil, err
	}
	return engine.EndGame{WinningTeam: team}, nil
}

func checkID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidCommand, field)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: %s longer than %d", ErrInvalidCommand, field, maxIDLength)
	}
	return nil
}

func parseTeam(s string) (core.Team, error) {
	switch t := core.Team(strings.ToLower(s)); t {
	case core.TeamRed, core.TeamBlue:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown team %q", ErrInvalidCommand, s)
}

func point(x, y *float64) (float64, float64, error) {
	if x == nil || y == nil {
		return 0, 0, fmt.Errorf("%w: missing coordinate", ErrInvalidCommand)
	}
	if !finite(*x) || !finite(*y) {
		return 0, 0, fmt.Errorf("%w: coordinate is not finite", ErrInvalidCommand)
	}
	return *x, *y, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
