package match

import (
	"cmp"
	"slices"

	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/internal/queue"
)

// Command is an action queued for the next tick.
type Command struct {
	Action engine.Action
	// Bot marks commands produced by the bot decision pass.
	Bot bool
}

// Actor is the player or hero the command is about, or "" for match-wide
// commands.
func (c Command) Actor() string {
	switch a := c.Action.(type) {
	case engine.SpawnPlayer:
		return a.PlayerID
	case engine.RemovePlayer:
		return a.PlayerID
	case engine.MoveHero:
		return a.HeroID
	case engine.UseAbility:
		return a.HeroID
	case engine.ChooseReward:
		return a.HeroID
	}
	return ""
}

// Kind is the action type of the command.
func (c Command) Kind() string {
	if c.Action == nil {
		return ""
	}
	return c.Action.ActionType()
}

// Lifecycle reports whether the command changes who is in the match or
// whether it runs. Lifecycle commands are applied in arrival order and never
// collapsed.
func (c Command) Lifecycle() bool {
	switch c.Action.(type) {
	case engine.SetupGame, engine.SpawnPlayer, engine.RemovePlayer, engine.EndGame:
		return true
	}
	return false
}

type intentKey struct {
	actor string
	kind  string
}

func keyOf(c Command) (intentKey, bool) {
	if c.Lifecycle() {
		return intentKey{}, false
	}
	return intentKey{c.Actor(), c.Kind()}, true
}

// order collapses a drained batch to the latest command per actor and
// intent kind, then puts lifecycle commands first in arrival order and the
// intents after them sorted by actor and kind.
func order(batch []Command) []Command {
	batch = queue.Latest(batch, keyOf)

	var lifecycle, intents []Command
	for _, c := range batch {
		if c.Lifecycle() {
			lifecycle = append(lifecycle, c)
		} else {
			intents = append(intents, c)
		}
	}
	slices.SortStableFunc(intents, func(a, b Command) int {
		return cmp.Or(cmp.Compare(a.Actor(), b.Actor()), cmp.Compare(a.Kind(), b.Kind()))
	})
	return append(lifecycle, intents...)
}
