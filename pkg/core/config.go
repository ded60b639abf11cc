package core

import (
	"errors"
	"fmt"
	"time"
)

// CombatStats are the base numbers of a combatant archetype.
type CombatStats struct {
	MaxHealth      float64 `json:"maxHealth" mapstructure:"maxHealth"`
	AttackRadius   float64 `json:"attackRadius" mapstructure:"attackRadius"`
	AttackStrength float64 `json:"attackStrength" mapstructure:"attackStrength"`
	AttackSpeed    float64 `json:"attackSpeed" mapstructure:"attackSpeed"`
	WindUp         int64   `json:"windUpMs" mapstructure:"windUpMs"`
	Size           float64 `json:"size" mapstructure:"size"`
	MoveSpeed      float64 `json:"moveSpeed" mapstructure:"moveSpeed"`
	BulletArmor    float64 `json:"bulletArmor" mapstructure:"bulletArmor"`
	AbilityArmor   float64 `json:"abilityArmor" mapstructure:"abilityArmor"`
}

// TeamLayout places a team's structures.
type TeamLayout struct {
	Cradle  Vec2   `json:"cradle" mapstructure:"cradle"`
	Turrets []Vec2 `json:"turrets" mapstructure:"turrets"`
}

// HeroConfig holds hero archetype settings.
type HeroConfig struct {
	Stats          CombatStats `json:"stats" mapstructure:"stats"`
	StopDistance   float64     `json:"stopDistance" mapstructure:"stopDistance"`
	SpawnDistance  float64     `json:"spawnDistance" mapstructure:"spawnDistance"`
	RespawnMs      int64       `json:"respawnMs" mapstructure:"respawnMs"`
	StartingLevel  int         `json:"startingLevel" mapstructure:"startingLevel"`
	DefaultAbility AbilityType `json:"defaultAbility" mapstructure:"defaultAbility"`
}

// MinionConfig holds wave cadence and minion archetypes.
type MinionConfig struct {
	Warrior          CombatStats `json:"warrior" mapstructure:"warrior"`
	Archer           CombatStats `json:"archer" mapstructure:"archer"`
	WarriorsPerWave  int         `json:"warriorsPerWave" mapstructure:"warriorsPerWave"`
	ArchersPerWave   int         `json:"archersPerWave" mapstructure:"archersPerWave"`
	FirstWaveDelayMs int64       `json:"firstWaveDelayMs" mapstructure:"firstWaveDelayMs"`
	WaveIntervalMs   int64       `json:"waveIntervalMs" mapstructure:"waveIntervalMs"`
	SpawnRadius      float64     `json:"spawnRadius" mapstructure:"spawnRadius"`
}

// XPConfig holds experience amounts and the level threshold multiplier.
type XPConfig struct {
	Minion          int `json:"minion" mapstructure:"minion"`
	Turret          int `json:"turret" mapstructure:"turret"`
	HeroKill        int `json:"heroKill" mapstructure:"heroKill"`
	LevelMultiplier int `json:"levelMultiplier" mapstructure:"levelMultiplier"`
	MaxLevel        int `json:"maxLevel" mapstructure:"maxLevel"` // 0 = uncapped
}

// GrowthConfig holds the per-level multipliers.
type GrowthConfig struct {
	Health          float64 `json:"health" mapstructure:"health"`
	AttackStrength  float64 `json:"attackStrength" mapstructure:"attackStrength"`
	AttackRadius    float64 `json:"attackRadius" mapstructure:"attackRadius"`
	AttackSpeed     float64 `json:"attackSpeed" mapstructure:"attackSpeed"`
	AbilityStrength float64 `json:"abilityStrength" mapstructure:"abilityStrength"`
	RespawnDuration float64 `json:"respawnDuration" mapstructure:"respawnDuration"`
}

// AbilityConfig holds the base stats of every ability type.
type AbilityConfig struct {
	Default    AbilityStats `json:"default" mapstructure:"default"`
	Pyromancer AbilityStats `json:"pyromancer" mapstructure:"pyromancer"`
	Thorndive  AbilityStats `json:"thorndive" mapstructure:"thorndive"`
	Hookshot   AbilityStats `json:"hookshot" mapstructure:"hookshot"`
	Mercenary  AbilityStats `json:"mercenary" mapstructure:"mercenary"`
}

// RewardConfig holds the level-up reward boosts.
type RewardConfig struct {
	Health     float64  `json:"health" mapstructure:"health"`
	Strength   float64  `json:"strength" mapstructure:"strength"`
	Speed      float64  `json:"speed" mapstructure:"speed"`
	Ability    float64  `json:"ability" mapstructure:"ability"`
	Preference []string `json:"preference" mapstructure:"preference"`
}

// HealingConfig controls the cradle healing aura.
type HealingConfig struct {
	CradleRadius  float64 `json:"cradleRadius" mapstructure:"cradleRadius"`
	HealPerSecond float64 `json:"healPerSecond" mapstructure:"healPerSecond"`
}

// BotConfig holds bot tuning values.
type BotConfig struct {
	AwarenessRadius     float64 `json:"awarenessRadius" mapstructure:"awarenessRadius"`
	SafeRadius          float64 `json:"safeRadius" mapstructure:"safeRadius"`
	DefensiveCooldownMs int64   `json:"defensiveCooldownMs" mapstructure:"defensiveCooldownMs"`
	LowHealthThreshold  float64 `json:"lowHealthThreshold" mapstructure:"lowHealthThreshold"`
	ZoneExitMargin      float64 `json:"zoneExitMargin" mapstructure:"zoneExitMargin"`

	NearestTargetChance      float64 `json:"nearestTargetChance" mapstructure:"nearestTargetChance"`
	LowestHealthTargetChance float64 `json:"lowestHealthTargetChance" mapstructure:"lowestHealthTargetChance"`
	CooldownJitterMin        float64 `json:"cooldownJitterMin" mapstructure:"cooldownJitterMin"`
	CooldownJitterMax        float64 `json:"cooldownJitterMax" mapstructure:"cooldownJitterMax"`

	HookRecoveryMs int64   `json:"hookRecoveryMs" mapstructure:"hookRecoveryMs"`
	FollowDistance float64 `json:"followDistance" mapstructure:"followDistance"`

	HealEnterThreshold float64 `json:"healEnterThreshold" mapstructure:"healEnterThreshold"`
	HealExitThreshold  float64 `json:"healExitThreshold" mapstructure:"healExitThreshold"`
	HealInterruptMs    int64   `json:"healInterruptMs" mapstructure:"healInterruptMs"`
	HealOffset         float64 `json:"healOffset" mapstructure:"healOffset"`
	MaxThreats         int     `json:"maxThreats" mapstructure:"maxThreats"`
}

// GameConfig is everything the engine is parameterised by. It is read-only
// once a match is created.
type GameConfig struct {
	TickIntervalMs   int64         `json:"tickIntervalMs" mapstructure:"tickIntervalMs"`
	World            Bounds        `json:"world" mapstructure:"world"`
	EventRetentionMs int64         `json:"eventRetentionMs" mapstructure:"eventRetentionMs"`
	Red              TeamLayout    `json:"red" mapstructure:"red"`
	Blue             TeamLayout    `json:"blue" mapstructure:"blue"`
	Cradle           CombatStats   `json:"cradle" mapstructure:"cradle"`
	Turret           CombatStats   `json:"turret" mapstructure:"turret"`
	Hero             HeroConfig    `json:"hero" mapstructure:"hero"`
	Minions          MinionConfig  `json:"minions" mapstructure:"minions"`
	XP               XPConfig      `json:"xp" mapstructure:"xp"`
	Growth           GrowthConfig  `json:"growth" mapstructure:"growth"`
	Abilities        AbilityConfig `json:"abilities" mapstructure:"abilities"`
	Rewards          RewardConfig  `json:"rewards" mapstructure:"rewards"`
	Healing          HealingConfig `json:"healing" mapstructure:"healing"`
	Bot              BotConfig     `json:"bot" mapstructure:"bot"`
	Obstacles        []Obstacle    `json:"obstacles" mapstructure:"obstacles"`
}

// TickInterval is the wall-clock length of one tick.
func (c GameConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Layout returns the structure layout of team.
func (c GameConfig) Layout(team Team) TeamLayout {
	if team == TeamBlue {
		return c.Blue
	}
	return c.Red
}

// AbilityStats returns the configured stats of t and whether t is known.
func (c GameConfig) AbilityStats(t AbilityType) (AbilityStats, bool) {
	switch t {
	case AbilityDefault:
		return c.Abilities.Default, true
	case AbilityPyromancer:
		return c.Abilities.Pyromancer, true
	case AbilityThorndive:
		return c.Abilities.Thorndive, true
	case AbilityHookshot:
		return c.Abilities.Hookshot, true
	case AbilityMercenary:
		return c.Abilities.Mercenary, true
	}
	return AbilityStats{}, false
}

// Validate reports configuration that the engine cannot run with.
func (c GameConfig) Validate() error {
	var errs []error
	if c.TickIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("tickIntervalMs must be positive, got %d", c.TickIntervalMs))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world bounds must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if _, ok := c.AbilityStats(c.Hero.DefaultAbility); !ok {
		errs = append(errs, fmt.Errorf("unknown default ability %q", c.Hero.DefaultAbility))
	}
	if c.XP.LevelMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("xp.levelMultiplier must be positive, got %d", c.XP.LevelMultiplier))
	}
	if c.Minions.WaveIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("minions.waveIntervalMs must be positive, got %d", c.Minions.WaveIntervalMs))
	}
	return errors.Join(errs...)
}

// DefaultGameConfig returns the stock arena.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TickIntervalMs:   50,
		World:            Bounds{Width: 1600, Height: 900},
		EventRetentionMs: 1000,
		Red: TeamLayout{
			Cradle:  Vec2{X: 150, Y: 450},
			Turrets: []Vec2{{X: 500, Y: 450}},
		},
		Blue: TeamLayout{
			Cradle:  Vec2{X: 1450, Y: 450},
			Turrets: []Vec2{{X: 1100, Y: 450}},
		},
		Cradle: CombatStats{
			MaxHealth: 3000, AttackRadius: 250, AttackStrength: 80, AttackSpeed: 1,
			Size: 60, BulletArmor: 50, AbilityArmor: 50,
		},
		Turret: CombatStats{
			MaxHealth: 1500, AttackRadius: 200, AttackStrength: 60, AttackSpeed: 1,
			Size: 40, BulletArmor: 40, AbilityArmor: 40,
		},
		Hero: HeroConfig{
			Stats: CombatStats{
				MaxHealth: 600, AttackRadius: 60, AttackStrength: 30, AttackSpeed: 1,
				Size: 20, MoveSpeed: 10, BulletArmor: 10, AbilityArmor: 10,
			},
			StopDistance:   5,
			SpawnDistance:  90,
			RespawnMs:      5000,
			StartingLevel:  1,
			DefaultAbility: AbilityDefault,
		},
		Minions: MinionConfig{
			Warrior: CombatStats{
				MaxHealth: 200, AttackRadius: 30, AttackStrength: 12, AttackSpeed: 1,
				Size: 15, MoveSpeed: 60,
			},
			Archer: CombatStats{
				MaxHealth: 120, AttackRadius: 120, AttackStrength: 10, AttackSpeed: 0.8,
				Size: 12, MoveSpeed: 55,
			},
			WarriorsPerWave:  3,
			ArchersPerWave:   2,
			FirstWaveDelayMs: 5000,
			WaveIntervalMs:   30000,
			SpawnRadius:      80,
		},
		XP: XPConfig{Minion: 20, Turret: 150, HeroKill: 100, LevelMultiplier: 100},
		Growth: GrowthConfig{
			Health: 1.1, AttackStrength: 1.08, AttackRadius: 1.02,
			AttackSpeed: 1.03, AbilityStrength: 1.1, RespawnDuration: 1.1,
		},
		Abilities: AbilityConfig{
			Default:    AbilityStats{Cooldown: 4000, Strength: 80, Range: 400, Speed: 600},
			Pyromancer: AbilityStats{Cooldown: 8000, Strength: 60, Range: 350, Speed: 400, Duration: 3000, Radius: 90, Burn: 25},
			Thorndive:  AbilityStats{Cooldown: 7000, Range: 250, Duration: 3000, Percentage: 30},
			Hookshot:   AbilityStats{Cooldown: 6000, Strength: 70, Range: 450, Speed: 800},
			Mercenary:  AbilityStats{Cooldown: 12000, Range: 500, Duration: 5000, Percentage: 60, Multiplier: 1.5},
		},
		Rewards: RewardConfig{
			Health: 1.1, Strength: 1.1, Speed: 1.1, Ability: 1.15,
			Preference: []string{"strength", "health", "ability", "speed"},
		},
		Healing: HealingConfig{CradleRadius: 200, HealPerSecond: 40},
		Bot: BotConfig{
			AwarenessRadius:          400,
			SafeRadius:               220,
			DefensiveCooldownMs:      1000,
			LowHealthThreshold:       0.3,
			ZoneExitMargin:           10,
			NearestTargetChance:      0.5,
			LowestHealthTargetChance: 0.3,
			CooldownJitterMin:        1.0,
			CooldownJitterMax:        1.5,
			HookRecoveryMs:           3000,
			FollowDistance:           80,
			HealEnterThreshold:       0.33,
			HealExitThreshold:        0.70,
			HealInterruptMs:          1000,
			HealOffset:               100,
			MaxThreats:               1,
		},
	}
}
