package bot

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlewars/arena/internal/ability"
	"github.com/cradlewars/arena/internal/economy"
	"github.com/cradlewars/arena/pkg/core"
)

func arena(cfg core.GameConfig) *core.State {
	s := core.NewState()
	s.Phase = core.PhasePlaying
	s.Now = 10000
	s.Combatants = []core.Combatant{
		economy.FromStats("red-cradle", core.KindCradle, core.TeamRed, cfg.Red.Cradle, cfg.Cradle),
		economy.FromStats("blue-cradle", core.KindCradle, core.TeamBlue, cfg.Blue.Cradle, cfg.Cradle),
		economy.FromStats("red-turret", core.KindTurret, core.TeamRed, cfg.Red.Turrets[0], cfg.Turret),
		economy.FromStats("blue-turret", core.KindTurret, core.TeamBlue, cfg.Blue.Turrets[0], cfg.Turret),
	}
	return s
}

func hero(id string, team core.Team, t core.AbilityType, pos core.Vec2, cfg core.GameConfig) core.Combatant {
	c := economy.FromStats(id, core.KindHero, team, pos, cfg.Hero.Stats)
	c.Hero = &core.HeroData{
		State:      core.HeroAlive,
		Level:      1,
		Controller: core.ControllerBot,
		Ability:    ability.New(t, cfg),
	}
	return c
}

func decide(t *testing.T, s *core.State, id string, cfg core.GameConfig) Decision {
	t.Helper()
	d, ok := Decide(s, id, cfg, rand.New(rand.NewSource(7)))
	require.True(t, ok)
	s.Get(id).Hero.Bot = d.Memory
	return d
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		ability core.AbilityType
		want    Strategy
	}{
		{core.AbilityHookshot, Hookshot},
		{core.AbilityMercenary, Mercenary},
		{core.AbilityDefault, Simpleton},
		{core.AbilityPyromancer, Simpleton},
		{core.AbilityThorndive, Simpleton},
		{core.AbilityType("unknown"), Simpleton},
	}
	for _, tt := range tests {
		t.Run(string(tt.ability), func(t *testing.T) {
			got := reflect.ValueOf(StrategyFor(tt.ability)).Pointer()
			assert.Equal(t, reflect.ValueOf(tt.want).Pointer(), got)
		})
	}
}

func TestDecide_OnlyBots(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	h := hero("human", core.TeamRed, core.AbilityDefault, core.Vec2{X: 300, Y: 450}, cfg)
	h.Hero.Controller = core.ControllerHuman
	s.Combatants = append(s.Combatants, h)

	_, ok := Decide(s, "human", cfg, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
	_, ok = Decide(s, "missing", cfg, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestDecide_ChoosesPreferredReward(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	b := hero("bot", core.TeamRed, core.AbilityDefault, core.Vec2{X: 300, Y: 450}, cfg)
	b.Hero.PendingRewards = 1
	s.Combatants = append(s.Combatants, b)

	d := decide(t, s, "bot", cfg)
	assert.Equal(t, cfg.Rewards.Preference[0], d.Intents.Reward)
}

func TestHookshot_FollowsBehindTeammate(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Combatants = append(s.Combatants,
		hero("hook", core.TeamRed, core.AbilityHookshot, core.Vec2{X: 300, Y: 450}, cfg),
		hero("mate", core.TeamRed, core.AbilityDefault, core.Vec2{X: 700, Y: 450}, cfg),
		hero("rear", core.TeamRed, core.AbilityDefault, core.Vec2{X: 400, Y: 450}, cfg),
	)

	d := decide(t, s, "hook", cfg)
	require.NotNil(t, d.Intents.Move)
	assert.Nil(t, d.Intents.Ability)

	move := *d.Intents.Move
	assert.InDelta(t, 700-cfg.Bot.FollowDistance, move.X, 1e-9)
	assert.InDelta(t, 450, move.Y, 1e-9)
	// Behind the lead, toward the bot's own base.
	assert.Less(t, move.Dist(cfg.Red.Cradle), core.Vec2{X: 700, Y: 450}.Dist(cfg.Red.Cradle))
}

func TestHookshot_HooksWeakestThenHolds(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	weak := hero("weak", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 400}, cfg)
	weak.Health = 300
	strong := hero("strong", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 500}, cfg)
	strong.Health = 500
	s.Combatants = append(s.Combatants,
		hero("hook", core.TeamRed, core.AbilityHookshot, core.Vec2{X: 800, Y: 450}, cfg),
		strong, weak,
	)

	d := decide(t, s, "hook", cfg)
	require.NotNil(t, d.Intents.Ability)
	assert.Equal(t, weak.Position, *d.Intents.Ability)
	assert.Nil(t, d.Intents.Move)
	assert.Equal(t, s.Now+cfg.Bot.HookRecoveryMs, d.Memory.HoldUntil)

	s.Get("hook").Hero.Ability.LastUsedTime = s.Now
	s.Now += 2000
	d = decide(t, s, "hook", cfg)
	assert.True(t, d.Intents.Empty(), "holds during recovery")

	s.Now += 1000
	d = decide(t, s, "hook", cfg)
	assert.NotNil(t, d.Intents.Move, "repositions after recovery")
}

func TestDefensive_EntersImmediatelyAndLeavesAfterCooldown(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Combatants = append(s.Combatants,
		hero("bot", core.TeamRed, core.AbilityDefault, core.Vec2{X: 800, Y: 300}, cfg),
		hero("e1", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 900, Y: 300}, cfg),
		hero("e2", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 900, Y: 350}, cfg),
		hero("e3", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 850, Y: 250}, cfg),
	)

	d := decide(t, s, "bot", cfg)
	require.NotNil(t, d.Intents.Move)
	retreat := core.Vec2{X: cfg.Red.Cradle.X + cfg.Healing.CradleRadius/2, Y: cfg.Red.Cradle.Y}
	assert.Equal(t, retreat, *d.Intents.Move)
	assert.Equal(t, s.Now+cfg.Bot.DefensiveCooldownMs, d.Memory.DefensiveUntil)

	// Threat gone: still defensive inside the hysteresis window.
	s.Combatants = s.Combatants[:5]
	s.Now += cfg.Bot.DefensiveCooldownMs / 2
	d = decide(t, s, "bot", cfg)
	require.NotNil(t, d.Intents.Move)
	assert.Equal(t, retreat, *d.Intents.Move)

	s.Now = d.Memory.DefensiveUntil
	d = decide(t, s, "bot", cfg)
	if d.Intents.Move != nil {
		assert.NotEqual(t, retreat, *d.Intents.Move)
	}
}

func TestDefensive_PositionConditional(t *testing.T) {
	cfg := core.DefaultGameConfig()

	for _, tt := range []struct {
		name    string
		pos     core.Vec2
		enemies int
		want    bool
	}{
		{"outnumbered by two in the open", core.Vec2{X: 800, Y: 300}, 3, true},
		{"outnumbered by two under own turret", core.Vec2{X: 520, Y: 450}, 3, false},
		{"outnumbered by three under own turret", core.Vec2{X: 520, Y: 450}, 4, true},
		{"outnumbered by one in the open", core.Vec2{X: 800, Y: 300}, 2, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := arena(cfg)
			s.Combatants = append(s.Combatants, hero("bot", core.TeamRed, core.AbilityDefault, tt.pos, cfg))
			for i := range tt.enemies {
				offset := core.Vec2{X: 100, Y: float64(i*30 - 45)}
				s.Combatants = append(s.Combatants,
					hero(s.NextID("enemy"), core.TeamBlue, core.AbilityDefault, tt.pos.Add(offset), cfg))
			}
			v := &View{State: s, Self: s.Get("bot").Clone(), Config: cfg, Rng: rand.New(rand.NewSource(1))}
			assert.Equal(t, tt.want, v.Defensive())
		})
	}
}

func TestZoneEscape(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Zones = []core.Zone{{ID: "z", Team: core.TeamBlue, Position: core.Vec2{X: 800, Y: 300}, Radius: 50}}
	s.Combatants = append(s.Combatants, hero("bot", core.TeamRed, core.AbilityDefault, core.Vec2{X: 810, Y: 300}, cfg))

	d := decide(t, s, "bot", cfg)
	require.NotNil(t, d.Intents.Move)
	assert.InDelta(t, 800+50+cfg.Hero.Stats.Size+cfg.Bot.ZoneExitMargin, d.Intents.Move.X, 1e-9)
	assert.InDelta(t, 300, d.Intents.Move.Y, 1e-9)

	// A nearly dead enemy in reach is worth standing in the fire for.
	prey := hero("prey", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 850, Y: 300}, cfg)
	prey.Health = prey.MaxHealth * 0.1
	s.Combatants = append(s.Combatants, prey)
	d = decide(t, s, "bot", cfg)
	assert.Nil(t, d.Intents.Move)
}

func TestSimpleton_PrefersHeroes(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Combatants = append(s.Combatants,
		hero("bot", core.TeamRed, core.AbilityDefault, core.Vec2{X: 800, Y: 300}, cfg),
		economy.NewMinion(s, cfg, core.MinionWarrior, core.TeamBlue, core.Vec2{X: 830, Y: 300}),
		hero("enemy", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 300}, cfg),
	)

	for seed := int64(0); seed < 10; seed++ {
		d, ok := Decide(s, "bot", cfg, rand.New(rand.NewSource(seed)))
		require.True(t, ok)
		require.NotNil(t, d.Intents.Move)
		assert.Equal(t, core.Vec2{X: 1000, Y: 300}, *d.Intents.Move)
		require.NotNil(t, d.Intents.Ability)
		assert.Equal(t, core.Vec2{X: 1000, Y: 300}, *d.Intents.Ability)
	}
}

func TestSimpleton_RespectsJitteredCooldown(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Combatants = append(s.Combatants,
		hero("bot", core.TeamRed, core.AbilityDefault, core.Vec2{X: 800, Y: 300}, cfg),
		hero("enemy", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 300}, cfg),
	)
	bot := s.Get("bot")
	bot.Hero.Ability.LastUsedTime = s.Now - cfg.Abilities.Default.Cooldown
	bot.Hero.Bot.CooldownJitter = 1.5

	d := decide(t, s, "bot", cfg)
	assert.Nil(t, d.Intents.Ability)

	s.Now += cfg.Abilities.Default.Cooldown / 2
	d = decide(t, s, "bot", cfg)
	require.NotNil(t, d.Intents.Ability)
	assert.GreaterOrEqual(t, d.Memory.CooldownJitter, cfg.Bot.CooldownJitterMin)
	assert.LessOrEqual(t, d.Memory.CooldownJitter, cfg.Bot.CooldownJitterMax)
}

func TestMercenary_HealingThresholds(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	merc := hero("merc", core.TeamRed, core.AbilityMercenary, core.Vec2{X: 600, Y: 450}, cfg)
	merc.Health = merc.MaxHealth * 0.30
	s.Combatants = append(s.Combatants, merc)
	healPoint := core.Vec2{X: cfg.Red.Cradle.X - cfg.Bot.HealOffset, Y: cfg.Red.Cradle.Y}

	d := decide(t, s, "merc", cfg)
	assert.True(t, d.Memory.Healing)
	require.NotNil(t, d.Intents.Move)
	assert.Equal(t, healPoint, *d.Intents.Move)

	// Hit again while retreating.
	s.Now += 500
	s.Get("merc").Health = merc.MaxHealth * 0.28
	d = decide(t, s, "merc", cfg)
	assert.True(t, d.Memory.Healing)
	assert.Equal(t, s.Now, d.Memory.LastDamagedAt)

	// Healed above the exit threshold but damaged too recently.
	s.Now += 500
	s.Get("merc").Health = merc.MaxHealth * 0.75
	d = decide(t, s, "merc", cfg)
	assert.True(t, d.Memory.Healing)

	s.Now += 500
	d = decide(t, s, "merc", cfg)
	assert.False(t, d.Memory.Healing)
}

func TestMercenary_RageChasesHeroesOnly(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	merc := hero("merc", core.TeamRed, core.AbilityMercenary, core.Vec2{X: 800, Y: 450}, cfg)
	merc.AddEffect(core.Effect{Type: core.EffectHunter, Duration: 5000, AppliedAt: s.Now, RadiusMultiplier: 0.6, StrengthMultiplier: 1.5})
	s.Combatants = append(s.Combatants,
		merc,
		economy.NewMinion(s, cfg, core.MinionWarrior, core.TeamBlue, core.Vec2{X: 830, Y: 450}),
		hero("enemy", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 450}, cfg),
	)

	d := decide(t, s, "merc", cfg)
	require.NotNil(t, d.Intents.Move)
	assert.Equal(t, core.Vec2{X: 1000, Y: 450}, *d.Intents.Move)
	assert.Nil(t, d.Intents.Ability)
}

func TestMercenary_GoesHuntingWhenHeroInRange(t *testing.T) {
	cfg := core.DefaultGameConfig()
	s := arena(cfg)
	s.Combatants = append(s.Combatants,
		hero("merc", core.TeamRed, core.AbilityMercenary, core.Vec2{X: 800, Y: 300}, cfg),
		hero("enemy", core.TeamBlue, core.AbilityDefault, core.Vec2{X: 1000, Y: 300}, cfg),
	)

	d := decide(t, s, "merc", cfg)
	require.NotNil(t, d.Intents.Ability)
}
