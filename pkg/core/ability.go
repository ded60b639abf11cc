package core

// AbilityType names a hero's special action.
type AbilityType string

const (
	AbilityDefault    AbilityType = "default"
	AbilityPyromancer AbilityType = "pyromancer"
	AbilityThorndive  AbilityType = "thorndive"
	AbilityHookshot   AbilityType = "hookshot"
	AbilityMercenary  AbilityType = "mercenary"
)

// AbilityStats are the configured base numbers of one ability type.
// Fields not used by a type are left zero.
type AbilityStats struct {
	Cooldown   int64   `json:"cooldownMs" mapstructure:"cooldownMs"`
	Strength   float64 `json:"strength" mapstructure:"strength"`
	Range      float64 `json:"range" mapstructure:"range"`
	Duration   int64   `json:"durationMs" mapstructure:"durationMs"`
	Speed      float64 `json:"speed" mapstructure:"speed"`
	Radius     float64 `json:"radius" mapstructure:"radius"`
	Percentage float64 `json:"percentage" mapstructure:"percentage"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
	Burn       float64 `json:"burn" mapstructure:"burn"`
}

// Ability is the equipped special action of a hero. Stats are read through
// the getters so level growth stays invisible to callers.
type Ability struct {
	Type               AbilityType  `json:"type"`
	LastUsedTime       int64        `json:"lastUsedTime"`
	Base               AbilityStats `json:"base"`
	StrengthMultiplier float64      `json:"strengthMultiplier"`
}

func (a Ability) Cooldown() int64 { return a.Base.Cooldown }
func (a Ability) Range() float64 { return a.Base.Range }
func (a Ability) Duration() int64 { return a.Base.Duration }
func (a Ability) Speed() float64 { return a.Base.Speed }
func (a Ability) Radius() float64 { return a.Base.Radius }
func (a Ability) Percentage() float64 { return a.Base.Percentage }
func (a Ability) Multiplier() float64 { return a.Base.Multiplier }
func (a Ability) Burn() float64 { return a.Base.Burn * a.multiplier() }
func (a Ability) Strength() float64 { return a.Base.Strength * a.multiplier() }

func (a Ability) multiplier() float64 {
	if a.StrengthMultiplier == 0 {
		return 1
	}
	return a.StrengthMultiplier
}

// Ready reports whether the cooldown has elapsed at now.
func (a Ability) Ready(now int64) bool {
	return now-a.LastUsedTime >= a.Cooldown()
}
