// Package engine is the state transition function of a match. It never
// performs I/O; the only randomness comes from the generator it is built
// with.
package engine

import (
	"log/slog"
	"math/rand"
	"slices"

	"github.com/cradlewars/arena/internal/ability"
	"github.com/cradlewars/arena/internal/collision"
	"github.com/cradlewars/arena/internal/economy"
	"github.com/cradlewars/arena/internal/geometry"
	"github.com/cradlewars/arena/pkg/core"
)

// Engine applies actions to a match state.
type Engine struct {
	cfg core.GameConfig
	rng *rand.Rand
	log *slog.Logger
}

// New returns an engine for cfg. rng drives spawn jitter; log receives
// isolated per-combatant failures.
func New(cfg core.GameConfig, rng *rand.Rand, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, rng: rng, log: log}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() core.GameConfig { return e.cfg }

// ProcessAction applies a to s and returns the next state. The engine takes
// ownership of s; callers that need the previous state must Clone it first.
// Unknown actions and actions naming unknown actors leave s unchanged.
func (e *Engine) ProcessAction(s *core.State, a Action) *core.State {
	if s == nil {
		s = core.NewState()
	}
	switch a := a.(type) {
	case SetupGame:
		return e.setupGame(s)
	case SpawnPlayer:
		e.spawnPlayer(s, a)
	case RemovePlayer:
		e.removePlayer(s, a)
	case MoveHero:
		e.moveHero(s, a)
	case UpdateGame:
		e.updateGame(s, a.DeltaTime)
	case EndGame:
		e.endGame(s, a.WinningTeam)
	case UseAbility:
		e.useAbility(s, a)
	case ChooseReward:
		e.chooseReward(s, a)
	default:
		if a != nil {
			e.log.Debug("ignoring unknown action", "type", a.ActionType())
		}
	}
	return s
}

func (e *Engine) setupGame(prev *core.State) *core.State {
	s := core.NewState()
	s.Phase = core.PhasePlaying
	s.NextSeqID = prev.NextSeqID

	for _, o := range e.cfg.Obstacles {
		if o.ID == "" {
			o.ID = s.NextID("obstacle")
		}
		if o.Shape == "" {
			o.Shape = core.ShapeRect
		}
		s.Obstacles = append(s.Obstacles, o)
	}

	for _, team := range []core.Team{core.TeamRed, core.TeamBlue} {
		layout := e.cfg.Layout(team)
		s.Combatants = append(s.Combatants,
			economy.FromStats(string(team)+"-cradle", core.KindCradle, team, layout.Cradle, e.cfg.Cradle))
		for _, pos := range layout.Turrets {
			s.Combatants = append(s.Combatants,
				economy.FromStats(s.NextID(string(team)+"-turret"), core.KindTurret, team, pos, e.cfg.Turret))
		}
	}

	// Heroes that joined before setup stay in the match at their spawn points.
	for _, c := range prev.Combatants {
		if !c.IsHero() {
			continue
		}
		c.Position = c.Hero.SpawnPoint
		s.Combatants = append(s.Combatants, c)
	}
	return s
}

func (e *Engine) spawnPlayer(s *core.State, a SpawnPlayer) {
	if a.PlayerID == "" || s.Index(a.PlayerID) >= 0 {
		return
	}
	if a.Team != core.TeamRed && a.Team != core.TeamBlue {
		e.log.Debug("spawn with unknown team", "player", a.PlayerID, "team", a.Team)
		return
	}
	t := a.Ability
	if t == "" {
		t = e.cfg.Hero.DefaultAbility
	}

	spawn := e.spawnPoint(s, a.Team)
	c := economy.FromStats(a.PlayerID, core.KindHero, a.Team, spawn, e.cfg.Hero.Stats)
	c.Hero = &core.HeroData{
		State:           core.HeroAlive,
		RespawnDuration: e.cfg.Hero.RespawnMs,
		Level:           1,
		Ability:         ability.New(t, e.cfg),
		Controller:      core.ControllerHuman,
	}
	if a.Bot {
		c.Hero.Controller = core.ControllerBot
	}
	collision.ResolveCombatant(&c, s.Obstacles)
	c.Hero.SpawnPoint = c.Position
	s.Combatants = append(s.Combatants, c)

	if lvl := e.cfg.Hero.StartingLevel; lvl > 1 {
		hero := &s.Combatants[len(s.Combatants)-1]
		economy.GrantXP(s, hero, economy.XPForLevel(lvl, e.cfg.XP.LevelMultiplier), "", e.cfg)
	}
}

// spawnPoint is in front of the team's cradle, spread sideways by the number
// of heroes already on the team.
func (e *Engine) spawnPoint(s *core.State, team core.Team) core.Vec2 {
	home := e.cfg.Layout(team).Cradle
	if c := s.Cradle(team); c != nil {
		home = c.Position
	}
	enemy := e.cfg.Layout(team.Opponent()).Cradle
	forward := geometry.Direction(home, enemy)
	side := core.Vec2{X: -forward.Y, Y: forward.X}

	n := 0
	for i := range s.Combatants {
		if s.Combatants[i].IsHero() && s.Combatants[i].Team == team {
			n++
		}
	}
	lane := float64(n%3-1) * e.cfg.Hero.Stats.Size * 2
	p := home.Add(forward.Scale(e.cfg.Hero.SpawnDistance)).Add(side.Scale(lane))
	return e.cfg.World.Clamp(p)
}

func (e *Engine) removePlayer(s *core.State, a RemovePlayer) {
	i := s.Index(a.PlayerID)
	if i < 0 || !s.Combatants[i].IsHero() {
		return
	}
	s.Combatants = slices.Delete(s.Combatants, i, i+1)
}

func (e *Engine) moveHero(s *core.State, a MoveHero) {
	c := s.Get(a.HeroID)
	if c == nil || !c.IsHero() || !c.Active() {
		return
	}
	target := core.Vec2{X: a.TargetX, Y: a.TargetY}
	if c.Position.Dist(target) <= e.cfg.Hero.StopDistance {
		return
	}
	c.Position = e.cfg.World.Clamp(geometry.MoveToward(c.Position, target, c.MoveSpeed))
	collision.ResolveCombatant(c, s.Obstacles)
}

func (e *Engine) useAbility(s *core.State, a UseAbility) {
	if s.Phase != core.PhasePlaying {
		return
	}
	i := s.Index(a.HeroID)
	if i < 0 {
		return
	}
	ability.Use(s, e.cfg, i, core.Vec2{X: a.X, Y: a.Y})
}

func (e *Engine) chooseReward(s *core.State, a ChooseReward) {
	economy.ApplyReward(s.Get(a.HeroID), a.RewardID, e.cfg.Rewards)
}

func (e *Engine) endGame(s *core.State, winner core.Team) {
	if s.Phase != core.PhaseFinished {
		s.EndTime = s.Now
	}
	s.Phase = core.PhaseFinished
	s.Winner = winner
}
