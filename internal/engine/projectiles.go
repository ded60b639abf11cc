package engine

import (
	"math"

	"github.com/cradlewars/arena/internal/collision"
	"github.com/cradlewars/arena/internal/combat"
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// stepProjectiles moves every projectile by dt and resolves what it hits.
func (e *Engine) stepProjectiles(s *core.State, dt int64) {
	if len(s.Projectiles) == 0 {
		return
	}
	kept := s.Projectiles[:0]
	for _, p := range s.Projectiles {
		if e.stepProjectile(s, &p, dt) {
			kept = append(kept, p)
		}
	}
	s.Projectiles = kept
}

// stepProjectile advances p and reports whether it is still in flight.
func (e *Engine) stepProjectile(s *core.State, p *core.Projectile, dt int64) (alive bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("projectile step failed", "projectile", p.ID, "panic", r)
			alive = false
		}
	}()

	if p.Duration >= 0 && s.Now-p.CreatedAt >= p.Duration {
		return false
	}

	step := p.Speed * float64(dt) / 1000
	if p.MaxDistance > 0 {
		step = math.Min(step, p.MaxDistance-p.Traveled)
	}
	next := p.Position.Add(p.Direction.Scale(step))

	wallAt, blocked := collision.ProjectileEntry(p, next, s.Obstacles)

	if p.Lobbed {
		if blocked {
			return false
		}
		p.Position = next
		p.Traveled += step
		if p.Traveled >= p.MaxDistance-1e-9 {
			e.burst(s, p, -1)
			return false
		}
		return true
	}

	// Whichever of the first enemy and the first wall comes first along the
	// step wins.
	if j, along := firstHit(s, p, next); j >= 0 && (!blocked || along <= wallAt) {
		e.burst(s, p, j)
		return false
	}
	if blocked {
		return false
	}

	p.Position = next
	p.Traveled += step
	if p.MaxDistance > 0 && p.Traveled >= p.MaxDistance-1e-9 {
		return false
	}
	return e.cfg.World.Contains(p.Position)
}

// firstHit returns the index of the first enemy along the segment from p's
// position to next and how far along it lies, or -1.
func firstHit(s *core.State, p *core.Projectile, next core.Vec2) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for j := range s.Combatants {
		c := &s.Combatants[j]
		if c.Team == p.Team || !c.Active() {
			continue
		}
		if !geometry.SegmentIntersectsCircle(p.Position, next, c.Position, c.Size+p.Radius) {
			continue
		}
		along := p.Position.Dist(geometry.ClosestPointOnSegment(c.Position, p.Position, next))
		if along < bestDist {
			best, bestDist = j, along
		}
	}
	return best, bestDist
}

// burst applies p's on-hit list. target is the index of the combatant hit,
// or -1 for an area burst at p's position.
func (e *Engine) burst(s *core.State, p *core.Projectile, target int) {
	for _, hit := range p.OnHit {
		switch hit.Kind {
		case core.HitDamage:
			if target >= 0 {
				combat.DamageCombatant(s, &s.Combatants[target], hit.Amount, p.OwnerID, hit.DamageKind, false)
				continue
			}
			s.Events.AddAOEDamage(core.AOEDamageEvent{
				Time: s.Now, SourceID: p.OwnerID, Position: p.Position, Radius: p.Radius, Amount: hit.Amount,
			})
			for j := range s.Combatants {
				c := &s.Combatants[j]
				if c.Team != p.Team && c.Active() && c.Position.Dist(p.Position) <= p.Radius+c.Size {
					combat.DamageCombatant(s, c, hit.Amount, p.OwnerID, hit.DamageKind, false)
				}
			}

		case core.HitEffect:
			if target < 0 || hit.Effect == nil {
				continue
			}
			ef := *hit.Effect
			ef.AppliedAt = s.Now
			ef.SourceID = p.OwnerID
			s.Combatants[target].AddEffect(ef)

		case core.HitPull:
			if target < 0 {
				continue
			}
			owner := s.Get(p.OwnerID)
			victim := &s.Combatants[target]
			if owner == nil || !owner.Active() || !victim.Active() {
				continue
			}
			dir := geometry.Direction(owner.Position, victim.Position)
			victim.Position = e.cfg.World.Clamp(owner.Position.Add(dir.Scale(owner.Size + victim.Size)))
			collision.ResolveCombatant(victim, s.Obstacles)

		case core.HitSpawnZone:
			if hit.Zone == nil {
				continue
			}
			z := *hit.Zone
			z.ID = s.NextID("zone")
			z.Position = p.Position
			if target >= 0 {
				z.Position = s.Combatants[target].Position
			}
			z.CreatedAt = s.Now
			s.Zones = append(s.Zones, z)
		}
	}
}

// burnZones expires zones and burns enemies standing in them.
func (e *Engine) burnZones(s *core.State, dt int64) {
	if len(s.Zones) == 0 {
		return
	}
	kept := s.Zones[:0]
	for _, z := range s.Zones {
		if z.Expired(s.Now) {
			continue
		}
		kept = append(kept, z)
		// A zone starts burning on the tick after it lands.
		if z.DamagePerSecond <= 0 || dt == 0 || z.CreatedAt == s.Now {
			continue
		}
		for j := range s.Combatants {
			c := &s.Combatants[j]
			if c.Team != z.Team && c.Active() && z.Contains(c.Position) {
				combat.DamageCombatant(s, c, z.DamagePerSecond*float64(dt)/1000, z.OwnerID, core.DamageBurn, false)
			}
		}
	}
	s.Zones = kept
}
