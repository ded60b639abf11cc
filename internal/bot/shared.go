package bot

import (
	"math"

	"github.com/cradlewars/arena/internal/combat"
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

func vec(p core.Vec2) *core.Vec2 { return &p }

// enemies returns pointers to every active enemy of the bot within radius.
// A negative radius means unlimited.
func (v *View) enemies(radius float64, kinds ...core.Kind) []*core.Combatant {
	var out []*core.Combatant
	for i := range v.State.Combatants {
		c := &v.State.Combatants[i]
		if c.Team == v.Self.Team || !c.Active() || !kindIn(c.Kind, kinds) {
			continue
		}
		if radius >= 0 && v.Self.Position.Dist(c.Position) > radius {
			continue
		}
		out = append(out, c)
	}
	return out
}

// allies returns the bot's active team mates of the given kinds within
// radius, excluding the bot itself.
func (v *View) allies(radius float64, kinds ...core.Kind) []*core.Combatant {
	var out []*core.Combatant
	for i := range v.State.Combatants {
		c := &v.State.Combatants[i]
		if c.Team != v.Self.Team || c.ID == v.Self.ID || !c.Active() || !kindIn(c.Kind, kinds) {
			continue
		}
		if radius >= 0 && v.Self.Position.Dist(c.Position) > radius {
			continue
		}
		out = append(out, c)
	}
	return out
}

func kindIn(k core.Kind, kinds []core.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// homeCradle is the position of the bot's own cradle, falling back to the
// configured layout once it is gone.
func (v *View) homeCradle() core.Vec2 {
	if c := v.State.Cradle(v.Self.Team); c != nil {
		return c.Position
	}
	return v.Config.Layout(v.Self.Team).Cradle
}

func (v *View) enemyCradle() core.Vec2 {
	if c := v.State.Cradle(v.Self.Team.Opponent()); c != nil {
		return c.Position
	}
	return v.Config.Layout(v.Self.Team.Opponent()).Cradle
}

// nearStructure reports whether a friendly turret or cradle is within radius.
func (v *View) nearStructure(radius float64) bool {
	return len(v.allies(radius, core.KindTurret, core.KindCradle)) > 0
}

// Defensive updates the defensive hysteresis and reports whether the bot
// should retreat. Being outnumbered by two counts only away from friendly
// structures; by three it always counts. Entering is immediate, leaving waits
// out the configured cooldown.
func (v *View) Defensive() bool {
	cfg := v.Config.Bot
	enemies := len(v.enemies(cfg.AwarenessRadius, core.KindHero))
	friends := len(v.allies(cfg.AwarenessRadius, core.KindHero)) + 1
	diff := enemies - friends

	disadvantaged := diff >= 3 || (diff >= 2 && !v.nearStructure(cfg.SafeRadius))
	if disadvantaged {
		v.Memory.DefensiveUntil = v.Now() + cfg.DefensiveCooldownMs
		return true
	}
	return v.Now() < v.Memory.DefensiveUntil
}

// RetreatPoint is where a defensive bot runs to: just in front of its own
// cradle.
func (v *View) RetreatPoint() core.Vec2 {
	home := v.homeCradle()
	dir := geometry.Direction(home, v.enemyCradle())
	return v.Config.World.Clamp(home.Add(dir.Scale(v.Config.Healing.CradleRadius / 2)))
}

// ZoneEscape returns the nearest point outside an enemy zone the bot stands
// in. It reports false when the bot is not in one or when a low-health enemy
// is within attack reach.
func (v *View) ZoneEscape() (core.Vec2, bool) {
	for _, z := range v.State.Zones {
		if z.Team == v.Self.Team || !z.Contains(v.Self.Position) {
			continue
		}
		if v.lowHealthEnemyInReach() {
			return core.Vec2{}, false
		}
		dir := geometry.Direction(z.Position, v.Self.Position)
		exit := z.Position.Add(dir.Scale(z.Radius + v.Self.Size + v.Config.Bot.ZoneExitMargin))
		return v.Config.World.Clamp(exit), true
	}
	return core.Vec2{}, false
}

func (v *View) lowHealthEnemyInReach() bool {
	for _, e := range v.enemies(-1) {
		if e.HealthFraction() < v.Config.Bot.LowHealthThreshold && v.Self.CanReach(e) {
			return true
		}
	}
	return false
}

// AbilityReady reports whether the ability cooldown, stretched by the bot's
// current jitter factor, has elapsed.
func (v *View) AbilityReady() bool {
	a := v.Self.Hero.Ability
	jitter := v.Memory.CooldownJitter
	if jitter <= 0 {
		jitter = 1
	}
	return float64(v.Now()-a.LastUsedTime) >= float64(a.Cooldown())*jitter
}

// UseAbility returns an ability intent at target and samples the jitter for
// the next cooldown.
func (v *View) UseAbility(target core.Vec2) *core.Vec2 {
	lo, hi := v.Config.Bot.CooldownJitterMin, v.Config.Bot.CooldownJitterMax
	if hi < lo {
		lo, hi = hi, lo
	}
	v.Memory.CooldownJitter = lo + v.Rng.Float64()*(hi-lo)
	return vec(target)
}

// InAbilityRange reports whether c is within the bot's ability range.
func (v *View) InAbilityRange(c *core.Combatant) bool {
	return v.Self.Position.Dist(c.Position) <= v.Self.Hero.Ability.Range()
}

// nearest returns the combatant in cs closest to p, nil for none. Ties go
// to the lower id, as in auto-attack targeting.
func nearest(p core.Vec2, cs []*core.Combatant) *core.Combatant {
	var best *core.Combatant
	bestDist := math.Inf(1)
	for _, c := range cs {
		if d := p.Dist(c.Position); d < bestDist || (d == bestDist && c.ID < best.ID) {
			best, bestDist = c, d
		}
	}
	return best
}

// weakest returns the combatant in cs with the lowest health fraction.
func weakest(cs []*core.Combatant) *core.Combatant {
	var best *core.Combatant
	for _, c := range cs {
		if best == nil || c.HealthFraction() < best.HealthFraction() {
			best = c
		}
	}
	return best
}

// approach returns a move intent toward target unless the bot already
// reaches it.
func (v *View) approach(target *core.Combatant) *core.Vec2 {
	if v.Self.CanReach(target) {
		return nil
	}
	return vec(target.Position)
}

// moveTo returns a move intent toward p or nil when the bot is already there.
func (v *View) moveTo(p core.Vec2) *core.Vec2 {
	if v.Self.Position.Dist(p) <= v.Config.Hero.StopDistance {
		return nil
	}
	return vec(p)
}

// frontStructure is the enemy turret closest to the bot, or the enemy cradle
// once every turret has fallen.
func (v *View) frontStructure() *core.Combatant {
	if t := nearest(v.Self.Position, v.enemies(-1, core.KindTurret)); t != nil {
		return t
	}
	return v.State.Cradle(v.Self.Team.Opponent())
}

// canAttack reports whether the bot's auto-attack may target c at all.
func (v *View) canAttack(c *core.Combatant) bool {
	return combat.Targetable(&v.Self, c)
}
