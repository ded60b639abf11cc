package core

import (
	"fmt"
	"slices"
)

// Phase is the match lifecycle phase.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// ProjectileType names a projectile archetype.
type ProjectileType string

const (
	ProjectileFireball ProjectileType = "fireball"
	ProjectileHook     ProjectileType = "hook"
	ProjectileFirebomb ProjectileType = "firebomb"
)

// HitKind discriminates the OnHit variants.
type HitKind string

const (
	HitDamage    HitKind = "apply_damage"
	HitEffect    HitKind = "apply_effect"
	HitPull      HitKind = "pull"
	HitSpawnZone HitKind = "spawn_zone"
)

// OnHit is one step applied when a projectile connects or bursts.
type OnHit struct {
	Kind       HitKind    `json:"kind"`
	Amount     float64    `json:"amount,omitempty"`
	DamageKind DamageKind `json:"damageKind,omitempty"`
	Effect     *Effect    `json:"effect,omitempty"`
	Zone       *Zone      `json:"zone,omitempty"`
}

// Projectile is a moving ability payload.
type Projectile struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"ownerId"`
	Team        Team           `json:"team"`
	Type        ProjectileType `json:"type"`
	Position    Vec2           `json:"position"`
	Direction   Vec2           `json:"direction"`
	Speed       float64        `json:"speed"`
	Duration    int64          `json:"duration"` // ms, -1 = infinite
	CreatedAt   int64          `json:"createdAt"`
	MaxDistance float64        `json:"maxDistance"`
	Traveled    float64        `json:"traveled"`

	// Lobbed projectiles fly over combatants and burst at MaxDistance.
	Lobbed bool    `json:"lobbed,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	OnHit  []OnHit `json:"onHit"`
}

// Zone is a team-owned damage area.
type Zone struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"ownerId"`
	Team            Team    `json:"team"`
	Position        Vec2    `json:"position"`
	Radius          float64 `json:"radius"`
	DamagePerSecond float64 `json:"damagePerSecond"`
	CreatedAt       int64   `json:"createdAt"`
	Duration        int64   `json:"duration"` // ms, 0 = permanent
}

// Contains reports whether p is inside the zone.
func (z Zone) Contains(p Vec2) bool {
	return z.Position.Dist(p) < z.Radius
}

// Expired reports whether the zone has run out at now.
func (z Zone) Expired(now int64) bool {
	return z.Duration > 0 && now-z.CreatedAt >= z.Duration
}

// ShapeType is the geometry of an obstacle.
type ShapeType string

const (
	ShapeRect   ShapeType = "rect"
	ShapeCircle ShapeType = "circle"
)

// Obstacle is static map geometry. Position is the centre of the shape;
// Rotation is in radians around that centre.
type Obstacle struct {
	ID                string    `json:"id" mapstructure:"id"`
	Shape             ShapeType `json:"shape" mapstructure:"shape"`
	Position          Vec2      `json:"position" mapstructure:"position"`
	Width             float64   `json:"width" mapstructure:"width"`
	Height            float64   `json:"height" mapstructure:"height"`
	Rotation          float64   `json:"rotation" mapstructure:"rotation"`
	Radius            float64   `json:"radius" mapstructure:"radius"`
	BlocksMovement    bool      `json:"blocksMovement" mapstructure:"blocksMovement"`
	BlocksProjectiles bool      `json:"blocksProjectiles" mapstructure:"blocksProjectiles"`
}

// State is the whole world of one match. The slices are kept in creation
// order, which is the iteration order of every simulation pass.
type State struct {
	Phase     Phase  `json:"phase"`
	Now       int64  `json:"now"`
	EndTime   int64  `json:"endTime"`
	Winner    Team   `json:"winner,omitempty"`
	Wave      int    `json:"wave"`
	NextSeqID uint64 `json:"nextSeqId"`

	Combatants  []Combatant  `json:"combatants"`
	Projectiles []Projectile `json:"projectiles"`
	Zones       []Zone       `json:"zones"`
	Obstacles   []Obstacle   `json:"obstacles"`
	Events      Events       `json:"events"`
}

// NewState returns an empty world in the waiting phase.
func NewState() *State {
	return &State{Phase: PhaseWaiting}
}

// NextID returns a fresh id with the given prefix.
func (s *State) NextID(prefix string) string {
	s.NextSeqID++
	return fmt.Sprintf("%s-%d", prefix, s.NextSeqID)
}

// Index returns the slice index of the combatant with id, or -1.
func (s *State) Index(id string) int {
	for i := range s.Combatants {
		if s.Combatants[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a pointer into Combatants for id. The pointer is invalidated by
// any append or removal on Combatants.
func (s *State) Get(id string) *Combatant {
	if i := s.Index(id); i >= 0 {
		return &s.Combatants[i]
	}
	return nil
}

// Cradle returns the cradle of team, or nil.
func (s *State) Cradle(team Team) *Combatant {
	for i := range s.Combatants {
		if s.Combatants[i].Kind == KindCradle && s.Combatants[i].Team == team {
			return &s.Combatants[i]
		}
	}
	return nil
}

// Heroes returns the ids of all heroes in iteration order.
func (s *State) Heroes() []string {
	var ids []string
	for i := range s.Combatants {
		if s.Combatants[i].IsHero() {
			ids = append(ids, s.Combatants[i].ID)
		}
	}
	return ids
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := *s
	out.Combatants = slices.Clone(s.Combatants)
	for i := range out.Combatants {
		out.Combatants[i] = out.Combatants[i].Clone()
	}
	out.Projectiles = slices.Clone(s.Projectiles)
	for i := range out.Projectiles {
		out.Projectiles[i].OnHit = slices.Clone(out.Projectiles[i].OnHit)
	}
	out.Zones = slices.Clone(s.Zones)
	out.Obstacles = slices.Clone(s.Obstacles)
	out.Events = s.Events.Clone()
	return &out
}
