package bot

import (
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// Mercenary has two modes. With the hunter effect up it chases enemy heroes
// only. Otherwise it fights targets that are safe to stand next to, goes
// hunting when a hero is in range, and falls back behind its cradle to heal
// when hurt.
func Mercenary(v *View) Intents {
	v.trackDamage()

	if exit, ok := v.ZoneEscape(); ok {
		return Intents{Move: vec(exit)}
	}

	if v.healing() {
		return Intents{Move: v.moveTo(v.HealPoint())}
	}

	awareness := v.Config.Bot.AwarenessRadius
	if v.Self.HasEffect(core.EffectHunter) {
		if t := nearest(v.Self.Position, v.enemies(awareness, core.KindHero)); t != nil {
			return Intents{Move: v.approach(t)}
		}
		if t := nearest(v.Self.Position, v.enemies(-1, core.KindHero)); t != nil {
			return Intents{Move: vec(t.Position)}
		}
		return Intents{}
	}

	if v.Defensive() {
		return Intents{Move: v.moveTo(v.RetreatPoint())}
	}

	if v.AbilityReady() {
		for _, e := range v.enemies(awareness, core.KindHero) {
			if v.InAbilityRange(e) {
				return Intents{Ability: v.UseAbility(e.Position)}
			}
		}
	}

	if t := v.safeTarget(awareness); t != nil {
		if v.Self.CanReach(t) {
			return Intents{}
		}
		return Intents{Move: vec(v.attackSpot(t))}
	}
	return Intents{Move: v.moveTo(v.RetreatPoint())}
}

// trackDamage notes the time of the last health loss.
func (v *View) trackDamage() {
	if v.Self.Health < v.Memory.LastHealth {
		v.Memory.LastDamagedAt = v.Now()
	}
	v.Memory.LastHealth = v.Self.Health
}

// healing runs the healing state machine: enter below the enter threshold,
// leave above the exit threshold once no damage came in for the interrupt
// window.
func (v *View) healing() bool {
	cfg := v.Config.Bot
	frac := v.Self.HealthFraction()
	if !v.Memory.Healing && frac < cfg.HealEnterThreshold {
		v.Memory.Healing = true
	}
	if v.Memory.Healing && frac > cfg.HealExitThreshold && v.Now()-v.Memory.LastDamagedAt >= cfg.HealInterruptMs {
		v.Memory.Healing = false
	}
	return v.Memory.Healing
}

// HealPoint is behind the bot's own cradle as seen from the enemy base.
func (v *View) HealPoint() core.Vec2 {
	home := v.homeCradle()
	back := geometry.Direction(v.enemyCradle(), home)
	return v.Config.World.Clamp(home.Add(back.Scale(v.Config.Bot.HealOffset)))
}

// attackSpot is where the bot would stand to hit t: on the line from t to the
// bot, just inside attack reach.
func (v *View) attackSpot(t *core.Combatant) core.Vec2 {
	dir := geometry.Direction(t.Position, v.Self.Position)
	reach := v.Self.EffectiveAttackRadius() + t.Size
	return v.Config.World.Clamp(t.Position.Add(dir.Scale(reach * 0.9)))
}

// threats counts active enemies whose attack would cover the bot standing at p.
func (v *View) threats(p core.Vec2) int {
	n := 0
	for _, e := range v.enemies(-1) {
		if e.AttackStrength > 0 && e.Position.Dist(p) <= e.EffectiveAttackRadius()+v.Self.Size {
			n++
		}
	}
	return n
}

// safeTarget is the nearest attackable enemy whose attack spot is covered by
// no more than the configured number of enemies.
func (v *View) safeTarget(radius float64) *core.Combatant {
	var safe []*core.Combatant
	for _, e := range v.enemies(radius) {
		if !v.canAttack(e) {
			continue
		}
		if v.threats(v.attackSpot(e)) <= v.Config.Bot.MaxThreats {
			safe = append(safe, e)
		}
	}
	return nearest(v.Self.Position, safe)
}
