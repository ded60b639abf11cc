package economy

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/cradlewars/arena/internal/collision"
	"github.com/cradlewars/arena/internal/combat"
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// ExpectedWave is the number of waves that should have spawned by now.
func ExpectedWave(now int64, cfg core.MinionConfig) int {
	if now < cfg.FirstWaveDelayMs || cfg.WaveIntervalMs <= 0 {
		return 0
	}
	return int((now-cfg.FirstWaveDelayMs)/cfg.WaveIntervalMs) + 1
}

// SpawnWaves spawns every wave that is due and not yet spawned. Calling it
// again at the same time spawns nothing. It returns the number of waves
// spawned.
func SpawnWaves(s *core.State, cfg core.GameConfig, rng *rand.Rand) int {
	spawned := 0
	for expected := ExpectedWave(s.Now, cfg.Minions); s.Wave < expected; s.Wave++ {
		spawnWave(s, cfg, rng, core.TeamRed)
		spawnWave(s, cfg, rng, core.TeamBlue)
		spawned++
	}
	return spawned
}

func spawnWave(s *core.State, cfg core.GameConfig, rng *rand.Rand, team core.Team) {
	origin := cfg.Layout(team).Cradle
	if c := s.Cradle(team); c != nil {
		origin = c.Position
	}
	for range cfg.Minions.WarriorsPerWave {
		s.Combatants = append(s.Combatants, NewMinion(s, cfg, core.MinionWarrior, team, spawnPoint(origin, cfg, rng)))
	}
	for range cfg.Minions.ArchersPerWave {
		s.Combatants = append(s.Combatants, NewMinion(s, cfg, core.MinionArcher, team, spawnPoint(origin, cfg, rng)))
	}
}

func spawnPoint(origin core.Vec2, cfg core.GameConfig, rng *rand.Rand) core.Vec2 {
	angle := rng.Float64() * 2 * math.Pi
	dist := rng.Float64() * cfg.Minions.SpawnRadius
	offset := core.Vec2{X: math.Cos(angle) * dist, Y: math.Sin(angle) * dist}
	return cfg.World.Clamp(origin.Add(offset))
}

// NewMinion builds a minion of type t at pos.
func NewMinion(s *core.State, cfg core.GameConfig, t core.MinionType, team core.Team, pos core.Vec2) core.Combatant {
	stats := cfg.Minions.Warrior
	if t == core.MinionArcher {
		stats = cfg.Minions.Archer
	}
	c := FromStats(s.NextID("minion"), core.KindMinion, team, pos, stats)
	c.Minion = &core.MinionData{Type: t}
	return c
}

// FromStats builds a combatant of kind from an archetype's base stats.
func FromStats(id string, kind core.Kind, team core.Team, pos core.Vec2, st core.CombatStats) core.Combatant {
	return core.Combatant{
		ID:             id,
		Kind:           kind,
		Team:           team,
		Position:       pos,
		Health:         st.MaxHealth,
		MaxHealth:      st.MaxHealth,
		AttackRadius:   st.AttackRadius,
		AttackStrength: st.AttackStrength,
		AttackSpeed:    st.AttackSpeed,
		LastAttackTime: core.Never,
		WindUp:         st.WindUp,
		Size:           st.Size,
		MoveSpeed:      st.MoveSpeed,
		BulletArmor:    st.BulletArmor,
		AbilityArmor:   st.AbilityArmor,
	}
}

// MoveMinions marches every active minion toward the enemy cradle for dt
// milliseconds. A minion with an enemy in reach holds its position.
func MoveMinions(s *core.State, cfg core.GameConfig, dt int64, log *slog.Logger) {
	for i := range s.Combatants {
		if s.Combatants[i].Kind != core.KindMinion {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("minion movement failed", "combatant", s.Combatants[i].ID, "panic", r)
				}
			}()
			march(s, cfg, i, dt)
		}()
	}
}

// march is the per-minion step of MoveMinions.
var march = moveMinion

func moveMinion(s *core.State, cfg core.GameConfig, i int, dt int64) {
	m := &s.Combatants[i]
	if !m.Active() || m.MoveSpeed <= 0 {
		return
	}
	if combat.NearestInReach(s, m) >= 0 {
		return
	}
	goal := s.Cradle(m.Team.Opponent())
	if goal == nil {
		return
	}
	step := m.MoveSpeed * float64(dt) / 1000
	// Stop at the cradle's edge rather than its centre.
	if m.Position.Dist(goal.Position) <= goal.Size+m.Size {
		return
	}
	m.Position = cfg.World.Clamp(geometry.MoveToward(m.Position, goal.Position, step))
	collision.ResolveCombatant(m, s.Obstacles)
}
