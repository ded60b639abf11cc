// Package bot decides what bot-controlled heroes do each tick. A strategy is
// chosen from the hero's equipped ability every time it is asked, so a bot
// that changes ability changes behaviour on the next tick.
package bot

import (
	"math/rand"

	"github.com/cradlewars/arena/internal/economy"
	"github.com/cradlewars/arena/pkg/core"
)

// Intents is what a bot wants to do next tick: at most one move, at most one
// ability use and optionally a reward choice.
type Intents struct {
	Move    *core.Vec2
	Ability *core.Vec2
	Reward  string
}

// Empty reports whether no intent was produced.
func (i Intents) Empty() bool {
	return i.Move == nil && i.Ability == nil && i.Reward == ""
}

// Decision is the output of Decide: the intents plus the bot's updated memory.
type Decision struct {
	BotID   string
	Intents Intents
	Memory  core.BotMemory
}

// Strategy maps a view of the world to intents. It may update v.Memory.
type Strategy func(v *View) Intents

// View is what a strategy sees. Self is a copy; strategies never write to the
// state.
type View struct {
	State  *core.State
	Self   core.Combatant
	Config core.GameConfig
	Rng    *rand.Rand
	Memory core.BotMemory
}

// Now is the game time of the view.
func (v *View) Now() int64 { return v.State.Now }

// StrategyFor returns the strategy that drives a hero with ability t.
func StrategyFor(t core.AbilityType) Strategy {
	switch t {
	case core.AbilityHookshot:
		return Hookshot
	case core.AbilityMercenary:
		return Mercenary
	default:
		return Simpleton
	}
}

// Decide runs the strategy of the bot hero botID. It reports false when botID
// is not an alive bot hero.
func Decide(s *core.State, botID string, cfg core.GameConfig, rng *rand.Rand) (Decision, bool) {
	c := s.Get(botID)
	if c == nil || !c.IsHero() || c.Hero.Controller != core.ControllerBot {
		return Decision{}, false
	}

	v := &View{
		State:  s,
		Self:   c.Clone(),
		Config: cfg,
		Rng:    rng,
		Memory: c.Hero.Bot,
	}

	var in Intents
	if c.Active() {
		in = StrategyFor(c.Hero.Ability.Type)(v)
	}
	if c.Hero.PendingRewards > 0 {
		in.Reward = chooseReward(cfg.Rewards)
	}
	return Decision{BotID: botID, Intents: in, Memory: v.Memory}, true
}

// DecideAll runs Decide for every bot hero in iteration order.
func DecideAll(s *core.State, cfg core.GameConfig, rng *rand.Rand) []Decision {
	var out []Decision
	for _, id := range s.Heroes() {
		if d, ok := Decide(s, id, cfg, rng); ok {
			out = append(out, d)
		}
	}
	return out
}

func chooseReward(cfg core.RewardConfig) string {
	if len(cfg.Preference) == 0 {
		return economy.RewardStrength
	}
	return cfg.Preference[0]
}
