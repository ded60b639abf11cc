package core

// EffectType discriminates the Effect variants.
type EffectType string

const (
	EffectReflect        EffectType = "reflect"
	EffectPassiveHealing EffectType = "passive_healing"
	EffectNoCollision    EffectType = "no_collision"
	EffectHunter         EffectType = "hunter"
)

// Effect is a timed modifier attached to a combatant. Only the payload fields
// of its Type are meaningful.
type Effect struct {
	Type      EffectType `json:"type"`
	Duration  int64      `json:"duration"` // ms, 0 = permanent
	AppliedAt int64      `json:"appliedAt"`
	SourceID  string     `json:"sourceId,omitempty"`

	// reflect
	Percentage float64 `json:"percentage,omitempty"`
	// passive_healing
	HealPerSecond float64 `json:"healPerSecond,omitempty"`
	// hunter
	RadiusMultiplier   float64 `json:"radiusMultiplier,omitempty"`
	StrengthMultiplier float64 `json:"strengthMultiplier,omitempty"`
}

// Expired reports whether a timed effect has run out at now.
func (e Effect) Expired(now int64) bool {
	return e.Duration > 0 && now-e.AppliedAt >= e.Duration
}
