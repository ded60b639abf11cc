// Package combat applies damage and runs the per-tick auto-attack pass.
package combat

import (
	"github.com/cradlewars/arena/pkg/core"
)

// streakMilestones are the kill streak values that raise a KillStreakEvent.
var streakMilestones = map[int]bool{5: true, 10: true, 15: true}

// Mitigate returns raw reduced by armor: raw*(1-armor/(armor+100)).
func Mitigate(raw, armor float64) float64 {
	if armor <= 0 {
		return raw
	}
	return raw * (1 - armor/(armor+100))
}

// armorFor returns the armor of target that applies to kind. Burn is true
// damage.
func armorFor(target *core.Combatant, kind core.DamageKind) float64 {
	switch kind {
	case core.DamageAutoAttack:
		return target.BulletArmor
	case core.DamageAbility:
		return target.AbilityArmor
	}
	return 0
}

// DamageCombatant applies raw damage of kind from sourceID to target and
// returns the health actually removed. A reflect hop is itself never
// reflected.
func DamageCombatant(s *core.State, target *core.Combatant, raw float64, sourceID string, kind core.DamageKind, reflectHop bool) float64 {
	if target == nil || target.Health <= 0 || raw <= 0 {
		return 0
	}

	before := target.Health
	target.SetHealth(before - Mitigate(raw, armorFor(target, kind)))
	actual := before - target.Health

	source := s.Get(sourceID)
	if source != nil && source.IsHero() {
		source.Hero.Stats.DamageDealt += actual
	}
	if target.IsHero() {
		target.Hero.Stats.DamageTaken += actual
	}

	if actual > 0 {
		s.Events.AddDamage(core.DamageEvent{
			Time:           s.Now,
			SourceID:       sourceID,
			TargetID:       target.ID,
			Amount:         actual,
			OriginalAmount: raw,
			Kind:           kind,
			Reflected:      reflectHop,
		})
	}

	if !reflectHop && kind == core.DamageAutoAttack && source != nil && source.ID != target.ID {
		if e, ok := target.Effect(core.EffectReflect); ok && e.Percentage > 0 {
			DamageCombatant(s, source, raw*e.Percentage/100, target.ID, core.DamageAutoAttack, true)
		}
	}

	if target.Health <= 0 {
		kill(s, target, source, sourceID)
	}
	return actual
}

func kill(s *core.State, victim, source *core.Combatant, sourceID string) {
	victim.KilledBy = sourceID
	s.Events.AddKill(core.KillEvent{
		Time:       s.Now,
		KillerID:   sourceID,
		VictimID:   victim.ID,
		VictimKind: victim.Kind,
		VictimTeam: victim.Team,
	})
	s.Events.AddDeathEffect(core.DeathEffectEvent{
		Time:     s.Now,
		VictimID: victim.ID,
		Kind:     victim.Kind,
		Position: victim.Position,
	})

	if victim.IsHero() {
		victim.Hero.Stats.Deaths++
		victim.Hero.KillStreak = 0
	}

	if source == nil || !source.IsHero() {
		return
	}
	switch victim.Kind {
	case core.KindMinion:
		source.Hero.Stats.MinionKills++
	case core.KindTurret:
		source.Hero.Stats.TurretKills++
	case core.KindHero:
		source.Hero.Stats.HeroKills++
		source.Hero.KillStreak++
		if streakMilestones[source.Hero.KillStreak] {
			s.Events.AddKillStreak(core.KillStreakEvent{
				Time:   s.Now,
				HeroID: source.ID,
				Streak: source.Hero.KillStreak,
			})
		}
	}
}
