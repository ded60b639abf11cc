// Package economy owns the minion wave cadence, minion marching, experience
// and level growth.
package economy

import (
	"github.com/cradlewars/arena/pkg/core"
)

// Reward ids a hero can spend a pending level-up on.
const (
	RewardHealth   = "health"
	RewardStrength = "strength"
	RewardSpeed    = "speed"
	RewardAbility  = "ability"
)

// XPForLevel is the total experience a level-1 hero needs to reach level.
func XPForLevel(level, mult int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += l * mult
	}
	return total
}

// XPForKill returns the experience granted for killing a combatant of kind.
func XPForKill(kind core.Kind, cfg core.XPConfig) int {
	switch kind {
	case core.KindMinion:
		return cfg.Minion
	case core.KindTurret:
		return cfg.Turret
	case core.KindHero:
		return cfg.HeroKill
	}
	return 0
}

// GrantXP adds amount experience to hero and resolves every level it earns.
// It returns the number of levels gained.
func GrantXP(s *core.State, hero *core.Combatant, amount int, source core.Kind, cfg core.GameConfig) int {
	if hero == nil || !hero.IsHero() || amount <= 0 {
		return 0
	}
	hero.Hero.Experience += amount
	hero.Hero.Stats.TotalExperience += amount
	s.Events.AddXP(core.XPEvent{Time: s.Now, HeroID: hero.ID, Amount: amount, Source: source})
	return LevelUp(s, hero, cfg)
}

// DistributeXP grants amount to every active hero that is not on victimTeam.
func DistributeXP(s *core.State, victimTeam core.Team, amount int, source core.Kind, cfg core.GameConfig) {
	for i := range s.Combatants {
		c := &s.Combatants[i]
		if c.IsHero() && c.Team != victimTeam && c.Active() {
			GrantXP(s, c, amount, source, cfg)
		}
	}
}

// LevelUp raises hero while its experience covers the current level's
// threshold. The threshold uses the level before the increment, so one grant
// can cascade through several levels.
func LevelUp(s *core.State, hero *core.Combatant, cfg core.GameConfig) int {
	mult := cfg.XP.LevelMultiplier
	if mult <= 0 {
		return 0
	}
	h := hero.Hero
	gained := 0
	for h.Experience >= h.Level*mult {
		if cfg.XP.MaxLevel > 0 && h.Level >= cfg.XP.MaxLevel {
			break
		}
		h.Experience -= h.Level * mult
		h.Level++
		h.PendingRewards++
		gained++
		grow(hero, cfg.Growth)
		s.Events.AddLevelUp(core.LevelUpEvent{Time: s.Now, HeroID: hero.ID, Level: h.Level})
	}
	return gained
}

// ResolveLevelUps settles any hero whose experience already covers a level.
func ResolveLevelUps(s *core.State, cfg core.GameConfig) {
	for i := range s.Combatants {
		if s.Combatants[i].IsHero() {
			LevelUp(s, &s.Combatants[i], cfg)
		}
	}
}

func grow(c *core.Combatant, g core.GrowthConfig) {
	c.MaxHealth = scale(c.MaxHealth, g.Health)
	if c.Active() {
		c.Health = c.MaxHealth
	}
	c.AttackStrength = scale(c.AttackStrength, g.AttackStrength)
	c.AttackRadius = scale(c.AttackRadius, g.AttackRadius)
	c.AttackSpeed = scale(c.AttackSpeed, g.AttackSpeed)
	a := &c.Hero.Ability
	if a.StrengthMultiplier == 0 {
		a.StrengthMultiplier = 1
	}
	a.StrengthMultiplier = scale(a.StrengthMultiplier, g.AbilityStrength)
	c.Hero.RespawnDuration = int64(scale(float64(c.Hero.RespawnDuration), g.RespawnDuration))
}

// ApplyReward spends one pending reward of hero on rewardID. It reports
// false for an unknown id or when nothing is pending.
func ApplyReward(hero *core.Combatant, rewardID string, cfg core.RewardConfig) bool {
	if hero == nil || !hero.IsHero() || hero.Hero.PendingRewards <= 0 {
		return false
	}
	switch rewardID {
	case RewardHealth:
		frac := hero.HealthFraction()
		hero.MaxHealth = scale(hero.MaxHealth, cfg.Health)
		hero.SetHealth(hero.MaxHealth * frac)
	case RewardStrength:
		hero.AttackStrength = scale(hero.AttackStrength, cfg.Strength)
	case RewardSpeed:
		hero.MoveSpeed = scale(hero.MoveSpeed, cfg.Speed)
	case RewardAbility:
		a := &hero.Hero.Ability
		if a.StrengthMultiplier == 0 {
			a.StrengthMultiplier = 1
		}
		a.StrengthMultiplier = scale(a.StrengthMultiplier, cfg.Ability)
	default:
		return false
	}
	hero.Hero.PendingRewards--
	return true
}

// scale multiplies v by f; a zero factor leaves v unchanged.
func scale(v, f float64) float64 {
	if f == 0 {
		return v
	}
	return v * f
}
