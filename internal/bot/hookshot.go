package bot

import (
	"math"

	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// Hookshot supports from behind the front-most team mate and hooks the
// weakest enemy hero in range. After a hook it holds and fights for the
// recovery window before repositioning.
func Hookshot(v *View) Intents {
	if exit, ok := v.ZoneEscape(); ok {
		return Intents{Move: vec(exit)}
	}
	if v.Defensive() {
		return Intents{Move: v.moveTo(v.RetreatPoint())}
	}

	if v.AbilityReady() {
		var inRange []*core.Combatant
		for _, e := range v.enemies(-1, core.KindHero) {
			if v.InAbilityRange(e) {
				inRange = append(inRange, e)
			}
		}
		if t := weakest(inRange); t != nil {
			v.Memory.HoldUntil = v.Now() + v.Config.Bot.HookRecoveryMs
			return Intents{Ability: v.UseAbility(t.Position)}
		}
	}

	if v.Now() < v.Memory.HoldUntil {
		return Intents{}
	}
	return Intents{Move: v.moveTo(v.FollowPoint())}
}

// FollowPoint is a spot behind the team mate closest to the enemy cradle,
// offset toward the bot's own cradle. Without a team mate the bot holds just
// in front of its own cradle.
func (v *View) FollowPoint() core.Vec2 {
	enemyBase := v.enemyCradle()
	var lead *core.Combatant
	bestDist := math.Inf(1)
	for _, a := range v.allies(-1, core.KindHero) {
		if d := a.Position.Dist(enemyBase); d < bestDist {
			lead, bestDist = a, d
		}
	}
	if lead == nil {
		return v.RetreatPoint()
	}
	back := geometry.Direction(lead.Position, v.homeCradle())
	return v.Config.World.Clamp(lead.Position.Add(back.Scale(v.Config.Bot.FollowDistance)))
}
