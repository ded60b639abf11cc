package bot

import (
	"github.com/cradlewars/arena/pkg/core"
)

// Simpleton is the generic strategy: fight whatever is near, prefer heroes,
// push toward the enemy structures otherwise.
func Simpleton(v *View) Intents {
	if exit, ok := v.ZoneEscape(); ok {
		return Intents{Move: vec(exit)}
	}

	awareness := v.Config.Bot.AwarenessRadius
	if v.Defensive() {
		in := Intents{Move: v.moveTo(v.RetreatPoint())}
		if v.AbilityReady() {
			if t := nearest(v.Self.Position, v.enemies(awareness, core.KindHero)); t != nil && v.InAbilityRange(t) {
				in.Ability = v.UseAbility(t.Position)
			}
		}
		return in
	}

	target := v.pickTarget(awareness)
	if target == nil {
		if front := v.frontStructure(); front != nil {
			return Intents{Move: v.approach(front)}
		}
		return Intents{}
	}

	in := Intents{Move: v.approach(target)}
	if v.AbilityReady() && v.InAbilityRange(target) {
		in.Ability = v.UseAbility(target.Position)
	}
	return in
}

// pickTarget chooses among nearby enemy heroes, or minions and structures when
// no hero is near. The roll decides between nearest, weakest and random.
func (v *View) pickTarget(radius float64) *core.Combatant {
	candidates := v.enemies(radius, core.KindHero)
	if len(candidates) == 0 {
		candidates = v.enemies(radius, core.KindMinion)
	}
	if len(candidates) == 0 {
		candidates = v.enemies(radius, core.KindTurret, core.KindCradle)
	}
	var kept []*core.Combatant
	for _, c := range candidates {
		if v.canAttack(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	cfg := v.Config.Bot
	roll := v.Rng.Float64()
	switch {
	case roll < cfg.NearestTargetChance:
		return nearest(v.Self.Position, kept)
	case roll < cfg.NearestTargetChance+cfg.LowestHealthTargetChance:
		return weakest(kept)
	default:
		return kept[v.Rng.Intn(len(kept))]
	}
}
