// Package collision keeps combatants out of obstacles and stops projectiles
// that fly into them.
package collision

import (
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// projectileCollides is the per-type allow-list of projectiles stopped by
// obstacles. Types not listed pass through.
var projectileCollides = map[core.ProjectileType]bool{
	core.ProjectileFireball: true,
	core.ProjectileHook:     true,
	core.ProjectileFirebomb: false,
}

// CollidesWithObstacles reports whether projectiles of type t are stopped by
// obstacles.
func CollidesWithObstacles(t core.ProjectileType) bool {
	return projectileCollides[t]
}

// Rect returns the rectangle geometry of a rect obstacle.
func Rect(o core.Obstacle) geometry.Rect {
	return geometry.Rect{Center: o.Position, Width: o.Width, Height: o.Height, Rotation: o.Rotation}
}

// Contact tests a circle at c with radius r against o.
func Contact(c core.Vec2, r float64, o core.Obstacle) geometry.Contact {
	if o.Shape == core.ShapeCircle {
		return geometry.CircleCircle(c, r, o.Position, o.Radius)
	}
	return geometry.CircleRect(c, r, Rect(o))
}

// PushOut returns p moved out of every movement-blocking obstacle it
// overlaps, each by exactly its penetration depth.
func PushOut(p core.Vec2, r float64, obstacles []core.Obstacle) core.Vec2 {
	for _, o := range obstacles {
		if !o.BlocksMovement {
			continue
		}
		if ct := Contact(p, r, o); ct.Overlap {
			p = p.Add(ct.Normal.Scale(ct.Depth))
		}
	}
	return p
}

// ResolveCombatant pushes c out of obstacles unless it carries the
// no-collision effect. It reports whether c moved.
func ResolveCombatant(c *core.Combatant, obstacles []core.Obstacle) bool {
	if c.HasEffect(core.EffectNoCollision) || len(obstacles) == 0 {
		return false
	}
	p := PushOut(c.Position, c.Size, obstacles)
	if p == c.Position {
		return false
	}
	c.Position = p
	return true
}

// SegmentBlocked reports whether the segment from a to b crosses any
// projectile-blocking obstacle.
func SegmentBlocked(a, b core.Vec2, obstacles []core.Obstacle) bool {
	for _, o := range obstacles {
		if !o.BlocksProjectiles {
			continue
		}
		if o.Shape == core.ShapeCircle {
			if geometry.SegmentIntersectsCircle(a, b, o.Position, o.Radius) {
				return true
			}
			continue
		}
		if geometry.SegmentIntersectsRect(a, b, Rect(o)) {
			return true
		}
	}
	return false
}

// ProjectileBlocked reports whether p, stepping from its current position to
// next, is stopped by an obstacle.
func ProjectileBlocked(p *core.Projectile, next core.Vec2, obstacles []core.Obstacle) bool {
	_, blocked := ProjectileEntry(p, next, obstacles)
	return blocked
}

// ProjectileEntry returns how far p travels from its current position toward
// next before it enters the nearest projectile-blocking obstacle.
func ProjectileEntry(p *core.Projectile, next core.Vec2, obstacles []core.Obstacle) (float64, bool) {
	if !CollidesWithObstacles(p.Type) {
		return 0, false
	}
	best, found := 1.0, false
	for _, o := range obstacles {
		if !o.BlocksProjectiles {
			continue
		}
		var (
			t  float64
			ok bool
		)
		if o.Shape == core.ShapeCircle {
			t, ok = geometry.SegmentEntryCircle(p.Position, next, o.Position, o.Radius)
		} else {
			t, ok = geometry.SegmentEntryRect(p.Position, next, Rect(o))
		}
		if ok && (!found || t < best) {
			best, found = t, true
		}
	}
	if !found {
		return 0, false
	}
	return best * p.Position.Dist(next), true
}
