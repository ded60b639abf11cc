package engine

import (
	"slices"

	"github.com/cradlewars/arena/internal/collision"
	"github.com/cradlewars/arena/internal/combat"
	"github.com/cradlewars/arena/internal/economy"
	"github.com/cradlewars/arena/pkg/core"
)

// updateGame is one tick. Passes run in a fixed order, each over the
// combatants in iteration order.
func (e *Engine) updateGame(s *core.State, dt int64) {
	if s.Phase != core.PhasePlaying || dt < 0 {
		return
	}
	s.Now += dt
	s.Events.Prune(s.Now, e.cfg.EventRetentionMs)

	e.each(s, "effects", func(c *core.Combatant) { e.tickEffects(s, c, dt) })
	combat.ResolveAttacks(s, e.log)
	e.stepProjectiles(s, dt)
	e.burnZones(s, dt)
	economy.SpawnWaves(s, e.cfg, e.rng)
	economy.MoveMinions(s, e.cfg, dt, e.log)
	e.each(s, "respawn", func(c *core.Combatant) { e.heroLifecycle(s, c) })
	e.removeDead(s)
	economy.ResolveLevelUps(s, e.cfg)
	e.checkEnd(s)
}

// each runs fn for every combatant. A panic in fn is logged and the pass
// moves on to the next combatant.
func (e *Engine) each(s *core.State, pass string, fn func(c *core.Combatant)) {
	for i := range s.Combatants {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Error("combatant pass failed", "pass", pass, "combatant", s.Combatants[i].ID, "panic", r)
				}
			}()
			fn(&s.Combatants[i])
		}()
	}
}

// tickEffects expires effects, heals and keeps heroes out of obstacles once
// a dash has ended.
func (e *Engine) tickEffects(s *core.State, c *core.Combatant, dt int64) {
	c.ExpireEffects(s.Now)
	if !c.Active() {
		return
	}

	heal := 0.0
	for _, ef := range c.Effects {
		if ef.Type == core.EffectPassiveHealing {
			heal += ef.HealPerSecond
		}
	}
	if c.IsHero() {
		if home := s.Cradle(c.Team); home != nil && c.Position.Dist(home.Position) <= e.cfg.Healing.CradleRadius {
			heal += e.cfg.Healing.HealPerSecond
		}
		collision.ResolveCombatant(c, s.Obstacles)
	}
	if heal > 0 {
		c.SetHealth(c.Health + heal*float64(dt)/1000)
	}
}

// heroLifecycle moves a dead hero to respawning at its spawn point and brings
// it back once its respawn time has come.
func (e *Engine) heroLifecycle(s *core.State, c *core.Combatant) {
	if !c.IsHero() {
		return
	}
	h := c.Hero
	switch h.State {
	case core.HeroRespawning:
		if s.Now >= h.RespawnTime {
			h.State = core.HeroAlive
			c.Health = c.MaxHealth
			c.Position = h.SpawnPoint
			c.KilledBy = ""
			c.LastAttackTime = core.Never
		}
	case core.HeroAlive:
		if c.Health > 0 {
			return
		}
		h.State = core.HeroRespawning
		h.RespawnTime = s.Now + h.RespawnDuration
		c.Health = 0
		c.Position = h.SpawnPoint
		c.Effects = nil
		c.TargetID = ""
		if killer := s.Get(c.KilledBy); killer != nil && killer.IsHero() && killer.Team != c.Team {
			economy.GrantXP(s, killer, e.cfg.XP.HeroKill, core.KindHero, e.cfg)
		}
	}
}

// removeDead drops minions and turrets at zero health and pays the opposing
// heroes for them.
func (e *Engine) removeDead(s *core.State) {
	var dead []core.Combatant
	for _, c := range s.Combatants {
		if (c.Kind == core.KindMinion || c.Kind == core.KindTurret) && c.Health <= 0 {
			dead = append(dead, c)
		}
	}
	if len(dead) == 0 {
		return
	}
	s.Combatants = slices.DeleteFunc(s.Combatants, func(c core.Combatant) bool {
		return (c.Kind == core.KindMinion || c.Kind == core.KindTurret) && c.Health <= 0
	})
	for _, c := range dead {
		economy.DistributeXP(s, c.Team, economy.XPForKill(c.Kind, e.cfg.XP), c.Kind, e.cfg)
	}
}

// checkEnd finishes the match once a cradle has fallen.
func (e *Engine) checkEnd(s *core.State) {
	for _, team := range []core.Team{core.TeamRed, core.TeamBlue} {
		if c := s.Cradle(team); c == nil || c.Health <= 0 {
			s.Phase = core.PhaseFinished
			s.Winner = team.Opponent()
			s.EndTime = s.Now
			return
		}
	}
}
