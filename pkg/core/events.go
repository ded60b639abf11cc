package core

import "slices"

// AttackRetention is how long attack events stay in the log (ms).
const AttackRetention int64 = 1000

// DamageKind is the category of a damage source. It selects which armor applies.
type DamageKind string

const (
	DamageAutoAttack DamageKind = "auto_attack"
	DamageAbility    DamageKind = "ability"
	DamageBurn       DamageKind = "burn"
)

// AttackEvent is one auto-attack swing.
type AttackEvent struct {
	ID         uint64 `json:"id"`
	Time       int64  `json:"time"`
	AttackerID string `json:"attackerId"`
	TargetID   string `json:"targetId"`
}

// DamageEvent records health actually removed from a combatant.
type DamageEvent struct {
	ID             uint64     `json:"id"`
	Time           int64      `json:"time"`
	SourceID       string     `json:"sourceId"`
	TargetID       string     `json:"targetId"`
	Amount         float64    `json:"amount"`
	OriginalAmount float64    `json:"originalAmount"`
	Kind           DamageKind `json:"kind"`
	Reflected      bool       `json:"reflected,omitempty"`
}

// KillEvent records a combatant reaching zero health.
type KillEvent struct {
	ID         uint64 `json:"id"`
	Time       int64  `json:"time"`
	KillerID   string `json:"killerId"`
	VictimID   string `json:"victimId"`
	VictimKind Kind   `json:"victimKind"`
	VictimTeam Team   `json:"victimTeam"`
}

// DeathEffectEvent is a visual trigger for a death at a position.
type DeathEffectEvent struct {
	ID       uint64 `json:"id"`
	Time     int64  `json:"time"`
	VictimID string `json:"victimId"`
	Kind     Kind   `json:"kind"`
	Position Vec2   `json:"position"`
}

// XPEvent records experience granted to a hero.
type XPEvent struct {
	ID     uint64 `json:"id"`
	Time   int64  `json:"time"`
	HeroID string `json:"heroId"`
	Amount int    `json:"amount"`
	Source Kind   `json:"source,omitempty"`
}

// LevelUpEvent records a hero gaining a level.
type LevelUpEvent struct {
	ID     uint64 `json:"id"`
	Time   int64  `json:"time"`
	HeroID string `json:"heroId"`
	Level  int    `json:"level"`
}

// KillStreakEvent fires when a hero's streak hits a milestone.
type KillStreakEvent struct {
	ID     uint64 `json:"id"`
	Time   int64  `json:"time"`
	HeroID string `json:"heroId"`
	Streak int    `json:"streak"`
}

// AOEDamageEvent marks an area burst.
type AOEDamageEvent struct {
	ID       uint64  `json:"id"`
	Time     int64   `json:"time"`
	SourceID string  `json:"sourceId"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
	Amount   float64 `json:"amount"`
}

// Events holds the append-only event logs of a match.
type Events struct {
	NextID uint64 `json:"nextId"`

	Attacks      []AttackEvent      `json:"attacks"`
	Damage       []DamageEvent      `json:"damage"`
	Kills        []KillEvent        `json:"kills"`
	DeathEffects []DeathEffectEvent `json:"deathEffects"`
	XP           []XPEvent          `json:"xp"`
	LevelUps     []LevelUpEvent     `json:"levelUps"`
	KillStreaks  []KillStreakEvent  `json:"killStreaks"`
	AOEDamage    []AOEDamageEvent   `json:"aoeDamage"`
}

func (e *Events) nextID() uint64 {
	e.NextID++
	return e.NextID
}

func (e *Events) AddAttack(ev AttackEvent) {
	ev.ID = e.nextID()
	e.Attacks = append(e.Attacks, ev)
}

func (e *Events) AddDamage(ev DamageEvent) {
	ev.ID = e.nextID()
	e.Damage = append(e.Damage, ev)
}

func (e *Events) AddKill(ev KillEvent) {
	ev.ID = e.nextID()
	e.Kills = append(e.Kills, ev)
}

func (e *Events) AddDeathEffect(ev DeathEffectEvent) {
	ev.ID = e.nextID()
	e.DeathEffects = append(e.DeathEffects, ev)
}

func (e *Events) AddXP(ev XPEvent) {
	ev.ID = e.nextID()
	e.XP = append(e.XP, ev)
}

func (e *Events) AddLevelUp(ev LevelUpEvent) {
	ev.ID = e.nextID()
	e.LevelUps = append(e.LevelUps, ev)
}

func (e *Events) AddKillStreak(ev KillStreakEvent) {
	ev.ID = e.nextID()
	e.KillStreaks = append(e.KillStreaks, ev)
}

func (e *Events) AddAOEDamage(ev AOEDamageEvent) {
	ev.ID = e.nextID()
	e.AOEDamage = append(e.AOEDamage, ev)
}

// Prune drops attack events older than AttackRetention and every other event
// older than retention, both measured back from now.
func (e *Events) Prune(now, retention int64) {
	e.Attacks = pruneBefore(e.Attacks, now-AttackRetention, func(ev AttackEvent) int64 { return ev.Time })
	cutoff := now - retention
	e.Damage = pruneBefore(e.Damage, cutoff, func(ev DamageEvent) int64 { return ev.Time })
	e.Kills = pruneBefore(e.Kills, cutoff, func(ev KillEvent) int64 { return ev.Time })
	e.DeathEffects = pruneBefore(e.DeathEffects, cutoff, func(ev DeathEffectEvent) int64 { return ev.Time })
	e.XP = pruneBefore(e.XP, cutoff, func(ev XPEvent) int64 { return ev.Time })
	e.LevelUps = pruneBefore(e.LevelUps, cutoff, func(ev LevelUpEvent) int64 { return ev.Time })
	e.KillStreaks = pruneBefore(e.KillStreaks, cutoff, func(ev KillStreakEvent) int64 { return ev.Time })
	e.AOEDamage = pruneBefore(e.AOEDamage, cutoff, func(ev AOEDamageEvent) int64 { return ev.Time })
}

// Clone returns a copy that shares no memory with e.
func (e Events) Clone() Events {
	return Events{
		NextID:       e.NextID,
		Attacks:      slices.Clone(e.Attacks),
		Damage:       slices.Clone(e.Damage),
		Kills:        slices.Clone(e.Kills),
		DeathEffects: slices.Clone(e.DeathEffects),
		XP:           slices.Clone(e.XP),
		LevelUps:     slices.Clone(e.LevelUps),
		KillStreaks:  slices.Clone(e.KillStreaks),
		AOEDamage:    slices.Clone(e.AOEDamage),
	}
}

func pruneBefore[T any](items []T, cutoff int64, at func(T) int64) []T {
	return slices.DeleteFunc(items, func(it T) bool { return at(it) < cutoff })
}

// Since returns the events with an ID greater than id. Snapshots carry the
// whole retained log, so consumers use it to pick up only what is new.
func (e Events) Since(id uint64) Events {
	return Events{
		NextID:       e.NextID,
		Attacks:      after(e.Attacks, id, func(ev AttackEvent) uint64 { return ev.ID }),
		Damage:       after(e.Damage, id, func(ev DamageEvent) uint64 { return ev.ID }),
		Kills:        after(e.Kills, id, func(ev KillEvent) uint64 { return ev.ID }),
		DeathEffects: after(e.DeathEffects, id, func(ev DeathEffectEvent) uint64 { return ev.ID }),
		XP:           after(e.XP, id, func(ev XPEvent) uint64 { return ev.ID }),
		LevelUps:     after(e.LevelUps, id, func(ev LevelUpEvent) uint64 { return ev.ID }),
		KillStreaks:  after(e.KillStreaks, id, func(ev KillStreakEvent) uint64 { return ev.ID }),
		AOEDamage:    after(e.AOEDamage, id, func(ev AOEDamageEvent) uint64 { return ev.ID }),
	}
}

func after[T any](items []T, id uint64, idOf func(T) uint64) []T {
	var out []T
	for _, it := range items {
		if idOf(it) > id {
			out = append(out, it)
		}
	}
	return out
}
