package core

import (
	"math"
	"slices"
)

// Never is the timestamp used for "has not happened yet". It is far enough in
// the past that any cooldown or attack interval has elapsed at time zero.
const Never int64 = -1 << 40

// Team identifies one side of the match.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Kind is the discriminant of the Combatant union.
type Kind string

const (
	KindHero   Kind = "hero"
	KindMinion Kind = "minion"
	KindTurret Kind = "turret"
	KindCradle Kind = "cradle"
)

// HeroState is the life state of a hero.
type HeroState string

const (
	HeroAlive      HeroState = "alive"
	HeroRespawning HeroState = "respawning"
)

// Controller is who drives a hero.
type Controller string

const (
	ControllerHuman Controller = "human"
	ControllerBot   Controller = "bot"
)

// MinionType is the minion archetype.
type MinionType string

const (
	MinionWarrior MinionType = "warrior"
	MinionArcher  MinionType = "archer"
)

// RoundStats are the per-match counters of a hero.
type RoundStats struct {
	TotalExperience int     `json:"totalExperience"`
	MinionKills     int     `json:"minionKills"`
	HeroKills       int     `json:"heroKills"`
	TurretKills     int     `json:"turretKills"`
	Deaths          int     `json:"deaths"`
	DamageTaken     float64 `json:"damageTaken"`
	DamageDealt     float64 `json:"damageDealt"`
}

// BotMemory is the small amount of state bot strategies carry between ticks.
type BotMemory struct {
	DefensiveUntil int64   `json:"defensiveUntil"`
	HoldUntil      int64   `json:"holdUntil"`
	Healing        bool    `json:"healing"`
	LastHealth     float64 `json:"lastHealth"`
	LastDamagedAt  int64   `json:"lastDamagedAt"`
	CooldownJitter float64 `json:"cooldownJitter"`
}

// HeroData is the hero-only payload of a Combatant.
type HeroData struct {
	State           HeroState  `json:"state"`
	RespawnTime     int64      `json:"respawnTime"`
	RespawnDuration int64      `json:"respawnDuration"`
	Experience      int        `json:"experience"`
	Level           int        `json:"level"`
	Stats           RoundStats `json:"stats"`
	Ability         Ability    `json:"ability"`
	Controller      Controller `json:"controller"`
	KillStreak      int        `json:"killStreak"`
	PendingRewards  int        `json:"pendingRewards"`
	SpawnPoint      Vec2       `json:"spawnPoint"`
	Bot             BotMemory  `json:"bot"`
}

// MinionData is the minion-only payload of a Combatant.
type MinionData struct {
	Type MinionType `json:"type"`
}

// Combatant is anything that has health and can attack. Kind selects which
// of the variant payloads is set; it never changes after creation.
type Combatant struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Team     Team   `json:"team"`
	Position Vec2   `json:"position"`

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`

	AttackRadius   float64 `json:"attackRadius"`
	AttackStrength float64 `json:"attackStrength"`
	AttackSpeed    float64 `json:"attackSpeed"`
	LastAttackTime int64   `json:"lastAttackTime"`
	WindUp         int64   `json:"windUp"`
	AttackReadyAt  int64   `json:"attackReadyAt"`
	TargetID       string  `json:"targetId,omitempty"`
	KilledBy       string  `json:"killedBy,omitempty"`

	Size         float64 `json:"size"`
	MoveSpeed    float64 `json:"moveSpeed"`
	BulletArmor  float64 `json:"bulletArmor"`
	AbilityArmor float64 `json:"abilityArmor"`

	Effects []Effect `json:"effects"`

	Hero   *HeroData   `json:"hero,omitempty"`
	Minion *MinionData `json:"minion,omitempty"`
}

// Clone returns a copy that shares no memory with c.
func (c Combatant) Clone() Combatant {
	out := c
	out.Effects = slices.Clone(c.Effects)
	if c.Hero != nil {
		h := *c.Hero
		out.Hero = &h
	}
	if c.Minion != nil {
		m := *c.Minion
		out.Minion = &m
	}
	return out
}

// IsHero reports whether c is a hero.
func (c *Combatant) IsHero() bool { return c.Kind == KindHero && c.Hero != nil }

// Active reports whether c is alive and, for heroes, not respawning.
func (c *Combatant) Active() bool {
	if c.Health <= 0 {
		return false
	}
	if c.Kind == KindHero {
		return c.Hero != nil && c.Hero.State == HeroAlive
	}
	return true
}

// SetHealth assigns health clamped to [0, MaxHealth].
func (c *Combatant) SetHealth(h float64) {
	c.Health = math.Max(0, math.Min(c.MaxHealth, h))
}

// HealthFraction returns Health/MaxHealth, or 0 for a zero max.
func (c *Combatant) HealthFraction() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return c.Health / c.MaxHealth
}

// Effect returns the first effect of type t.
func (c *Combatant) Effect(t EffectType) (Effect, bool) {
	for _, e := range c.Effects {
		if e.Type == t {
			return e, true
		}
	}
	return Effect{}, false
}

// HasEffect reports whether c carries an effect of type t.
func (c *Combatant) HasEffect(t EffectType) bool {
	_, ok := c.Effect(t)
	return ok
}

// AddEffect appends e. Effects of the same type stack.
func (c *Combatant) AddEffect(e Effect) {
	c.Effects = append(c.Effects, e)
}

// RefreshEffect replaces any effect of e's type with e.
func (c *Combatant) RefreshEffect(e Effect) {
	c.RemoveEffect(e.Type)
	c.Effects = append(c.Effects, e)
}

// RemoveEffect drops every effect of type t.
func (c *Combatant) RemoveEffect(t EffectType) {
	c.Effects = slices.DeleteFunc(c.Effects, func(e Effect) bool { return e.Type == t })
}

// ExpireEffects drops effects that have run out at now.
func (c *Combatant) ExpireEffects(now int64) {
	c.Effects = slices.DeleteFunc(c.Effects, func(e Effect) bool { return e.Expired(now) })
}

// EffectiveAttackRadius is the attack radius after hunter scaling.
func (c *Combatant) EffectiveAttackRadius() float64 {
	if e, ok := c.Effect(EffectHunter); ok && e.RadiusMultiplier > 0 {
		return c.AttackRadius * e.RadiusMultiplier
	}
	return c.AttackRadius
}

// EffectiveAttackStrength is the attack strength after hunter scaling.
func (c *Combatant) EffectiveAttackStrength() float64 {
	if e, ok := c.Effect(EffectHunter); ok && e.StrengthMultiplier > 0 {
		return c.AttackStrength * e.StrengthMultiplier
	}
	return c.AttackStrength
}

// CanReach reports whether target's edge is inside c's attack radius.
func (c *Combatant) CanReach(target *Combatant) bool {
	return c.Position.Dist(target.Position) <= c.EffectiveAttackRadius()+target.Size
}
