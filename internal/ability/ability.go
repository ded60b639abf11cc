// Package ability is the catalogue of hero abilities: construction from
// configuration and the effect of using one.
package ability

import (
	"fmt"
	"math"

	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// dashPhaseMs is how long a thorndive dash ignores obstacles.
const dashPhaseMs = 250

// Types lists every known ability type.
var Types = []core.AbilityType{
	core.AbilityDefault,
	core.AbilityPyromancer,
	core.AbilityThorndive,
	core.AbilityHookshot,
	core.AbilityMercenary,
}

// Valid reports whether t is a known ability type.
func Valid(t core.AbilityType) bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// New returns a fresh, ready ability of type t. An unknown type is a
// configuration bug and panics.
func New(t core.AbilityType, cfg core.GameConfig) core.Ability {
	stats, ok := cfg.AbilityStats(t)
	if !ok {
		panic(fmt.Sprintf("ability: unknown ability type %q", t))
	}
	return core.Ability{
		Type:               t,
		LastUsedTime:       core.Never,
		Base:               stats,
		StrengthMultiplier: 1,
	}
}

// Use fires the ability of the hero at s.Combatants[idx] toward target.
// It reports false when the hero cannot act or the ability is on cooldown.
func Use(s *core.State, cfg core.GameConfig, idx int, target core.Vec2) bool {
	hero := &s.Combatants[idx]
	if !hero.IsHero() || !hero.Active() {
		return false
	}
	a := &hero.Hero.Ability
	if !a.Ready(s.Now) {
		return false
	}

	dir := geometry.Direction(hero.Position, target)
	switch a.Type {
	case core.AbilityDefault:
		s.Projectiles = append(s.Projectiles, core.Projectile{
			ID:          s.NextID("fireball"),
			OwnerID:     hero.ID,
			Team:        hero.Team,
			Type:        core.ProjectileFireball,
			Position:    hero.Position,
			Direction:   dir,
			Speed:       a.Speed(),
			Duration:    -1,
			CreatedAt:   s.Now,
			MaxDistance: a.Range(),
			Radius:      8,
			OnHit: []core.OnHit{
				{Kind: core.HitDamage, Amount: a.Strength(), DamageKind: core.DamageAbility},
			},
		})

	case core.AbilityPyromancer:
		dist := math.Min(hero.Position.Dist(target), a.Range())
		s.Projectiles = append(s.Projectiles, core.Projectile{
			ID:          s.NextID("firebomb"),
			OwnerID:     hero.ID,
			Team:        hero.Team,
			Type:        core.ProjectileFirebomb,
			Position:    hero.Position,
			Direction:   dir,
			Speed:       a.Speed(),
			Duration:    -1,
			CreatedAt:   s.Now,
			MaxDistance: dist,
			Lobbed:      true,
			Radius:      a.Radius(),
			OnHit: []core.OnHit{
				{Kind: core.HitDamage, Amount: a.Strength(), DamageKind: core.DamageAbility},
				{Kind: core.HitSpawnZone, Zone: &core.Zone{
					OwnerID:         hero.ID,
					Team:            hero.Team,
					Radius:          a.Radius(),
					DamagePerSecond: a.Burn(),
					Duration:        a.Duration(),
				}},
			},
		})

	case core.AbilityThorndive:
		dist := math.Min(hero.Position.Dist(target), a.Range())
		hero.Position = cfg.World.Clamp(hero.Position.Add(dir.Scale(dist)))
		hero.RefreshEffect(core.Effect{
			Type:      core.EffectNoCollision,
			Duration:  dashPhaseMs,
			AppliedAt: s.Now,
			SourceID:  hero.ID,
		})
		hero.RefreshEffect(core.Effect{
			Type:       core.EffectReflect,
			Duration:   a.Duration(),
			AppliedAt:  s.Now,
			SourceID:   hero.ID,
			Percentage: a.Percentage(),
		})

	case core.AbilityHookshot:
		s.Projectiles = append(s.Projectiles, core.Projectile{
			ID:          s.NextID("hook"),
			OwnerID:     hero.ID,
			Team:        hero.Team,
			Type:        core.ProjectileHook,
			Position:    hero.Position,
			Direction:   dir,
			Speed:       a.Speed(),
			Duration:    -1,
			CreatedAt:   s.Now,
			MaxDistance: a.Range(),
			Radius:      10,
			OnHit: []core.OnHit{
				{Kind: core.HitDamage, Amount: a.Strength(), DamageKind: core.DamageAbility},
				{Kind: core.HitPull},
			},
		})

	case core.AbilityMercenary:
		hero.RefreshEffect(core.Effect{
			Type:               core.EffectHunter,
			Duration:           a.Duration(),
			AppliedAt:          s.Now,
			SourceID:           hero.ID,
			RadiusMultiplier:   a.Percentage() / 100,
			StrengthMultiplier: a.Multiplier(),
		})

	default:
		panic(fmt.Sprintf("ability: unknown ability type %q", a.Type))
	}

	a.LastUsedTime = s.Now
	return true
}
