package combat

import (
	"log/slog"
	"math"

	"github.com/cradlewars/arena/pkg/core"
)

// Targetable reports whether attacker may pick target at all, ignoring range.
// A hunter only attacks heroes.
func Targetable(attacker, target *core.Combatant) bool {
	if target.Team == attacker.Team || !target.Active() {
		return false
	}
	if attacker.HasEffect(core.EffectHunter) && target.Kind != core.KindHero {
		return false
	}
	return true
}

// NearestInReach returns the index of the nearest enemy attacker can reach,
// or -1. Equal distances go to the lower id.
func NearestInReach(s *core.State, attacker *core.Combatant) int {
	best := -1
	bestDist := math.Inf(1)
	for j := range s.Combatants {
		t := &s.Combatants[j]
		if t.ID == attacker.ID || !Targetable(attacker, t) || !attacker.CanReach(t) {
			continue
		}
		d := attacker.Position.Dist(t.Position)
		if d < bestDist || (d == bestDist && t.ID < s.Combatants[best].ID) {
			best, bestDist = j, d
		}
	}
	return best
}

// AttackReady reports whether c's attack interval has elapsed at now.
func AttackReady(c *core.Combatant, now int64) bool {
	if c.AttackSpeed <= 0 {
		return false
	}
	return float64(now-c.LastAttackTime) >= 1000/c.AttackSpeed
}

// ResolveAttacks runs one auto-attack pass: every active combatant whose
// interval has elapsed strikes the nearest enemy in reach once. A panic
// while handling one attacker is logged and the pass continues.
func ResolveAttacks(s *core.State, log *slog.Logger) {
	for i := range s.Combatants {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("attack pass failed for combatant",
						"combatant", s.Combatants[i].ID, "panic", r)
				}
			}()
			strike(s, i)
		}()
	}
}

// strike is the per-attacker step of ResolveAttacks.
var strike = attack

func attack(s *core.State, i int) {
	a := &s.Combatants[i]
	if !a.Active() || a.AttackStrength <= 0 {
		return
	}

	j := NearestInReach(s, a)
	if j < 0 {
		a.TargetID = ""
		return
	}
	target := &s.Combatants[j]
	if target.ID != a.TargetID {
		a.TargetID = target.ID
		a.AttackReadyAt = s.Now + a.WindUp
	}
	if s.Now < a.AttackReadyAt || !AttackReady(a, s.Now) {
		return
	}

	a.LastAttackTime = s.Now
	s.Events.AddAttack(core.AttackEvent{Time: s.Now, AttackerID: a.ID, TargetID: target.ID})
	DamageCombatant(s, target, a.EffectiveAttackStrength(), a.ID, core.DamageAutoAttack, false)
}
