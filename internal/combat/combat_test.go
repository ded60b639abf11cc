package combat

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlewars/arena/pkg/core"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func unit(id string, team core.Team, kind core.Kind, x float64) core.Combatant {
	c := core.Combatant{
		ID:             id,
		Kind:           kind,
		Team:           team,
		Position:       core.Vec2{X: x},
		Health:         100,
		MaxHealth:      100,
		AttackRadius:   50,
		AttackStrength: 10,
		AttackSpeed:    1,
		LastAttackTime: core.Never,
		Size:           10,
	}
	if kind == core.KindHero {
		c.Hero = &core.HeroData{State: core.HeroAlive, Level: 1}
	}
	return c
}

func TestMitigate(t *testing.T) {
	tests := []struct {
		name  string
		raw   float64
		armor float64
		want  float64
	}{
		{"no armor", 80, 0, 80},
		{"hundred halves", 80, 100, 40},
		{"fifty", 90, 50, 60},
		{"negative treated as none", 80, -10, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mitigate(tt.raw, tt.armor), 1e-9)
		})
	}

	assert.Less(t, Mitigate(100, 1e12), 1e-6)
}

func TestDamageCombatant_ArmorByKind(t *testing.T) {
	s := core.NewState()
	target := unit("t", core.TeamBlue, core.KindMinion, 0)
	target.BulletArmor = 100
	target.AbilityArmor = 50
	s.Combatants = []core.Combatant{target}

	tg := &s.Combatants[0]
	assert.InDelta(t, 10, DamageCombatant(s, tg, 20, "x", core.DamageAutoAttack, false), 1e-9)
	assert.InDelta(t, 20, DamageCombatant(s, tg, 30, "x", core.DamageAbility, false), 1e-9)
	assert.InDelta(t, 15, DamageCombatant(s, tg, 15, "x", core.DamageBurn, false), 1e-9)
	assert.InDelta(t, 55, tg.Health, 1e-9)

	require.Len(t, s.Events.Damage, 3)
	assert.InDelta(t, 20, s.Events.Damage[0].OriginalAmount, 1e-9)
	assert.InDelta(t, 10, s.Events.Damage[0].Amount, 1e-9)
}

func TestDamageCombatant_ClampsAndKills(t *testing.T) {
	s := core.NewState()
	s.Combatants = []core.Combatant{
		unit("hero", core.TeamRed, core.KindHero, 0),
		unit("minion", core.TeamBlue, core.KindMinion, 10),
	}
	s.Combatants[1].Health = 10

	actual := DamageCombatant(s, &s.Combatants[1], 50, "hero", core.DamageAutoAttack, false)
	assert.InDelta(t, 10, actual, 1e-9)
	assert.Equal(t, 0.0, s.Combatants[1].Health)
	assert.Equal(t, "hero", s.Combatants[1].KilledBy)

	require.Len(t, s.Events.Kills, 1)
	require.Len(t, s.Events.DeathEffects, 1)
	assert.Equal(t, core.KindMinion, s.Events.Kills[0].VictimKind)
	assert.Equal(t, 1, s.Combatants[0].Hero.Stats.MinionKills)
	assert.InDelta(t, 10, s.Combatants[0].Hero.Stats.DamageDealt, 1e-9)

	// Already dead: nothing more happens.
	assert.Zero(t, DamageCombatant(s, &s.Combatants[1], 50, "hero", core.DamageAutoAttack, false))
	assert.Len(t, s.Events.Kills, 1)
}

func TestDamageCombatant_ReflectIsOneHop(t *testing.T) {
	s := core.NewState()
	a := unit("a", core.TeamRed, core.KindHero, 0)
	b := unit("b", core.TeamBlue, core.KindHero, 20)
	for _, c := range []*core.Combatant{&a, &b} {
		c.AddEffect(core.Effect{Type: core.EffectReflect, Percentage: 50})
		c.AddEffect(core.Effect{Type: core.EffectReflect, Percentage: 50})
	}
	s.Combatants = []core.Combatant{a, b}

	DamageCombatant(s, &s.Combatants[1], 40, "a", core.DamageAutoAttack, false)

	assert.InDelta(t, 60, s.Combatants[1].Health, 1e-9)
	assert.InDelta(t, 80, s.Combatants[0].Health, 1e-9)
	require.Len(t, s.Events.Damage, 2)
	assert.False(t, s.Events.Damage[0].Reflected)
	assert.True(t, s.Events.Damage[1].Reflected)
	assert.Equal(t, "a", s.Events.Damage[1].TargetID)
}

func TestDamageCombatant_AbilityIsNotReflected(t *testing.T) {
	s := core.NewState()
	a := unit("a", core.TeamRed, core.KindHero, 0)
	b := unit("b", core.TeamBlue, core.KindHero, 20)
	b.AddEffect(core.Effect{Type: core.EffectReflect, Percentage: 50})
	s.Combatants = []core.Combatant{a, b}

	DamageCombatant(s, &s.Combatants[1], 40, "a", core.DamageAbility, false)
	assert.Equal(t, 100.0, s.Combatants[0].Health)
	assert.Len(t, s.Events.Damage, 1)
}

func TestDamageCombatant_KillStreakMilestones(t *testing.T) {
	s := core.NewState()
	s.Combatants = []core.Combatant{unit("killer", core.TeamRed, core.KindHero, 0)}
	s.Combatants[0].Hero.KillStreak = 4

	for i := range 6 {
		victim := unit("victim", core.TeamBlue, core.KindHero, 10)
		victim.Hero.KillStreak = 3
		s.Combatants = append(s.Combatants[:1], victim)
		s.Now = int64(i)
		DamageCombatant(s, &s.Combatants[1], 1000, "killer", core.DamageBurn, false)
		assert.Zero(t, s.Combatants[1].Hero.KillStreak)
		assert.Equal(t, 1, s.Combatants[1].Hero.Stats.Deaths)
	}

	assert.Equal(t, 10, s.Combatants[0].Hero.KillStreak)
	assert.Equal(t, 6, s.Combatants[0].Hero.Stats.HeroKills)
	require.Len(t, s.Events.KillStreaks, 2)
	assert.Equal(t, 5, s.Events.KillStreaks[0].Streak)
	assert.Equal(t, 10, s.Events.KillStreaks[1].Streak)
}

func TestResolveAttacks_AttackSpeedWindow(t *testing.T) {
	s := core.NewState()
	attacker := unit("a", core.TeamRed, core.KindTurret, 0)
	target := unit("t", core.TeamBlue, core.KindCradle, 30)
	target.Health, target.MaxHealth = 1e6, 1e6
	target.AttackStrength = 0
	s.Combatants = []core.Combatant{attacker, target}

	for now := int64(0); now < 2000; now += 10 {
		s.Now = now
		ResolveAttacks(s, discard)
	}

	require.Len(t, s.Events.Attacks, 2)
	assert.Equal(t, int64(0), s.Events.Attacks[0].Time)
	assert.Equal(t, int64(1000), s.Events.Attacks[1].Time)
}

func TestResolveAttacks_NearestTieGoesToLowerID(t *testing.T) {
	s := core.NewState()
	s.Combatants = []core.Combatant{
		unit("a", core.TeamRed, core.KindTurret, 0),
		unit("far", core.TeamBlue, core.KindMinion, 40),
		unit("tie-2", core.TeamBlue, core.KindMinion, 20),
		unit("tie-1", core.TeamBlue, core.KindMinion, -20),
	}
	for i := 1; i < 4; i++ {
		s.Combatants[i].AttackStrength = 0
	}

	ResolveAttacks(s, discard)
	require.Len(t, s.Events.Attacks, 1)
	assert.Equal(t, "tie-1", s.Events.Attacks[0].TargetID)
	assert.Equal(t, "tie-1", s.Combatants[0].TargetID)
}

func TestResolveAttacks_WindUp(t *testing.T) {
	s := core.NewState()
	a := unit("a", core.TeamRed, core.KindTurret, 0)
	a.WindUp = 300
	b := unit("b", core.TeamBlue, core.KindMinion, 20)
	b.AttackStrength = 0
	s.Combatants = []core.Combatant{a, b}

	ResolveAttacks(s, discard)
	assert.Empty(t, s.Events.Attacks)
	assert.Equal(t, int64(300), s.Combatants[0].AttackReadyAt)

	s.Now = 299
	ResolveAttacks(s, discard)
	assert.Empty(t, s.Events.Attacks)

	s.Now = 300
	ResolveAttacks(s, discard)
	assert.Len(t, s.Events.Attacks, 1)
}

func TestResolveAttacks_HunterOnlyTargetsHeroes(t *testing.T) {
	s := core.NewState()
	merc := unit("merc", core.TeamRed, core.KindHero, 0)
	merc.AddEffect(core.Effect{Type: core.EffectHunter, RadiusMultiplier: 1, StrengthMultiplier: 2})
	minion := unit("m", core.TeamBlue, core.KindMinion, 10)
	minion.AttackStrength = 0
	hero := unit("h", core.TeamBlue, core.KindHero, 40)
	hero.AttackStrength = 0
	s.Combatants = []core.Combatant{merc, minion, hero}

	ResolveAttacks(s, discard)
	require.Len(t, s.Events.Attacks, 1)
	assert.Equal(t, "h", s.Events.Attacks[0].TargetID)
	assert.InDelta(t, 80, s.Combatants[2].Health, 1e-9)
}

func TestResolveAttacks_SkipsInactive(t *testing.T) {
	s := core.NewState()
	dead := unit("dead", core.TeamRed, core.KindHero, 0)
	dead.Hero.State = core.HeroRespawning
	dead.Health = 0
	target := unit("t", core.TeamBlue, core.KindMinion, 10)
	target.AttackStrength = 0
	s.Combatants = []core.Combatant{dead, target}

	ResolveAttacks(s, discard)
	assert.Empty(t, s.Events.Attacks)
	assert.Equal(t, 100.0, s.Combatants[1].Health)
}

func TestResolveAttacks_PanicIsIsolated(t *testing.T) {
	orig := strike
	t.Cleanup(func() { strike = orig })
	strike = func(s *core.State, i int) {
		if s.Combatants[i].ID == "broken" {
			panic("corrupt combatant")
		}
		orig(s, i)
	}

	s := core.NewState()
	s.Combatants = []core.Combatant{
		unit("broken", core.TeamRed, core.KindTurret, 0),
		unit("a", core.TeamRed, core.KindTurret, 0),
		unit("t", core.TeamBlue, core.KindMinion, 30),
	}
	s.Combatants[2].AttackStrength = 0

	var buf bytes.Buffer
	ResolveAttacks(s, slog.New(slog.NewTextHandler(&buf, nil)))

	require.Len(t, s.Events.Attacks, 1)
	assert.Equal(t, "a", s.Events.Attacks[0].AttackerID)
	assert.InDelta(t, 90, s.Combatants[2].Health, 1e-9)
	assert.Contains(t, buf.String(), "combatant=broken")
	assert.Contains(t, buf.String(), "corrupt combatant")
}
