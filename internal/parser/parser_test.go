package parser

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestNewParser(t *testing.T) {
	require.NotNil(t, NewParser(nil))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  engine.Action
	}{
		{
			"spawn",
			`{"matchId":"m1","type":"SPAWN_PLAYER","payload":{"playerId":"p1","team":"red","ability":"hookshot"}}`,
			engine.SpawnPlayer{PlayerID: "p1", Team: core.TeamRed, Ability: core.AbilityHookshot},
		},
		{
			"spawn default ability bot",
			`{"matchId":"m1","type":"SPAWN_PLAYER","payload":{"playerId":"b1","team":"BLUE","bot":true}}`,
			engine.SpawnPlayer{PlayerID: "b1", Team: core.TeamBlue, Bot: true},
		},
		{
			"remove",
			`{"matchId":"m1","type":"REMOVE_PLAYER","payload":{"playerId":"p1"}}`,
			engine.RemovePlayer{PlayerID: "p1"},
		},
		{
			"move lowercase type",
			`{"matchId":"m1","type":"move_hero","payload":{"heroId":"p1","targetX":10.5,"targetY":0}}`,
			engine.MoveHero{HeroID: "p1", TargetX: 10.5, TargetY: 0},
		},
		{
			"ability",
			`{"matchId":"m1","type":"USE_ABILITY","payload":{"heroId":"p1","x":-3,"y":4}}`,
			engine.UseAbility{HeroID: "p1", X: -3, Y: 4},
		},
		{
			"reward",
			`{"matchId":"m1","type":"CHOOSE_REWARD","payload":{"heroId":"p1","rewardId":"speed"}}`,
			engine.ChooseReward{HeroID: "p1", RewardID: "speed"},
		},
		{
			"end",
			`{"matchId":"m1","type":"END_GAME","payload":{"winningTeam":"blue"}}`,
			engine.EndGame{WinningTeam: core.TeamBlue},
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseCommand([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, "m1", got.MatchID)
			assert.Equal(t, tt.want, got.Action)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	long := strings.Repeat("x", maxIDLength+1)

	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{"matchId":`},
		{"missing match", `{"type":"REMOVE_PLAYER","payload":{"playerId":"p1"}}`},
		{"unknown type", `{"matchId":"m1","type":"FLY","payload":{}}`},
		{"update rejected", `{"matchId":"m1","type":"UPDATE_GAME","payload":{"deltaTime":50}}`},
		{"setup rejected", `{"matchId":"m1","type":"SETUP_GAME","payload":{}}`},
		{"missing payload", `{"matchId":"m1","type":"REMOVE_PLAYER"}`},
		{"null payload", `{"matchId":"m1","type":"REMOVE_PLAYER","payload":null}`},
		{"unknown field", `{"matchId":"m1","type":"REMOVE_PLAYER","payload":{"playerId":"p1","hp":1}}`},
		{"empty player", `{"matchId":"m1","type":"REMOVE_PLAYER","payload":{"playerId":""}}`},
		{"long player", `{"matchId":"m1","type":"REMOVE_PLAYER","payload":{"playerId":"` + long + `"}}`},
		{"bad team", `{"matchId":"m1","type":"SPAWN_PLAYER","payload":{"playerId":"p1","team":"green"}}`},
		{"bad ability", `{"matchId":"m1","type":"SPAWN_PLAYER","payload":{"playerId":"p1","team":"red","ability":"wizard"}}`},
		{"missing x", `{"matchId":"m1","type":"MOVE_HERO","payload":{"heroId":"p1","targetY":1}}`},
		{"string coordinate", `{"matchId":"m1","type":"USE_ABILITY","payload":{"heroId":"p1","x":"1","y":1}}`},
		{"missing hero", `{"matchId":"m1","type":"USE_ABILITY","payload":{"x":1,"y":1}}`},
		{"bad reward", `{"matchId":"m1","type":"CHOOSE_REWARD","payload":{"heroId":"p1","rewardId":"gold"}}`},
		{"end without team", `{"matchId":"m1","type":"END_GAME","payload":{}}`},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseCommand([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCommand), "got %v", err)
			assert.Nil(t, got.Action)
		})
	}
}

func TestPoint_NonFinite(t *testing.T) {
	nan, inf, one := math.NaN(), math.Inf(1), 1.0

	_, _, err := point(&nan, &one)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	_, _, err = point(&one, &inf)
	assert.ErrorIs(t, err, ErrInvalidCommand)

	x, y, err := point(&one, &one)
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1.0, y)
}
