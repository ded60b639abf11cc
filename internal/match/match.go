// Package match runs matches: one goroutine per match advances the engine on
// a fixed tick, feeding it the commands queued since the previous tick and
// the bots' decisions, and hands every post-tick snapshot to the dispatcher.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cradlewars/arena/internal/ability"
	"github.com/cradlewars/arena/internal/bot"
	"github.com/cradlewars/arena/internal/dispatcher"
	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/internal/queue"
	"github.com/cradlewars/arena/pkg/core"
)

// Post-tick notifications dispatched by a match.
const (
	EventStarted  = ":MATCH:START:"
	EventSnapshot = ":MATCH:SNAPSHOT:"
	EventEnded    = ":MATCH:END:"
)

// DefaultCommandLimit bounds the commands a match buffers between ticks.
const DefaultCommandLimit = 4096

var (
	// ErrRejectedCommand is returned by Submit for commands clients may not send.
	ErrRejectedCommand = errors.New("command not accepted")
	// ErrQueueFull is returned by Submit when the command was dropped.
	ErrQueueFull = errors.New("command queue full")
)

// Dependencies holds the collaborators of a match.
type Dependencies struct {
	// Dispatcher receives post-tick notifications. Nil disables publishing.
	Dispatcher *dispatcher.Dispatcher
	Logger     *slog.Logger
}

// Options configures a new match.
type Options struct {
	// ID defaults to a random UUID.
	ID string
	// Seed drives every random choice of the match. Zero picks one from the clock.
	Seed   int64
	Config core.GameConfig
	// CommandLimit defaults to DefaultCommandLimit.
	CommandLimit int
}

// Match is one running match.
type Match struct {
	id     string
	info   core.MatchInfo
	engine *engine.Engine
	rng    *rand.Rand
	deps   Dependencies
	log    *slog.Logger
	m      *metrics
	attrs  metric.MeasurementOption

	commands *queue.Queue[Command]
	started  sync.Once

	mu    sync.Mutex
	state *core.State
	tick  uint64
	ended bool
}

// New sets up a match. The returned match has run SetupGame but no tick.
func New(opts Options, deps Dependencies) (*Match, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.CommandLimit <= 0 {
		opts.CommandLimit = DefaultCommandLimit
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	log := deps.Logger.With("match", opts.ID)
	rng := rand.New(rand.NewSource(opts.Seed))
	e := engine.New(opts.Config, rng, log)

	return &Match{
		id: opts.ID,
		info: core.MatchInfo{
			ID:           opts.ID,
			Seed:         opts.Seed,
			StartedAt:    time.Now(),
			TickInterval: opts.Config.TickInterval(),
			Config:       opts.Config,
		},
		engine:   e,
		rng:      rng,
		deps:     deps,
		log:      log,
		m:        m,
		attrs:    metric.WithAttributes(attribute.String("match", opts.ID)),
		commands: queue.NewLimited[Command](opts.CommandLimit),
		state:    e.ProcessAction(nil, engine.SetupGame{}),
	}, nil
}

// ID returns the match id.
func (m *Match) ID() string { return m.id }

// Info describes the match.
func (m *Match) Info() core.MatchInfo { return m.info }

// Submit queues a client action for the next tick. Ticks are driven by the
// match itself, so UpdateGame is rejected.
func (m *Match) Submit(a engine.Action) error {
	switch a.(type) {
	case nil, engine.UpdateGame, engine.SetupGame:
		return ErrRejectedCommand
	}
	return m.push(Command{Action: a})
}

// FillBots queues perTeam bot heroes for each team. Ability types are dealt
// in turn across both teams, so blue continues where red left off. The
// heroes spawn on the next tick.
func (m *Match) FillBots(perTeam int) error {
	var cmds []Command
	n := 0
	for _, team := range []core.Team{core.TeamRed, core.TeamBlue} {
		for i := 0; i < perTeam; i++ {
			cmds = append(cmds, Command{Action: engine.SpawnPlayer{
				PlayerID: fmt.Sprintf("bot-%s-%d", team, i+1),
				Team:     team,
				Ability:  ability.Types[n%len(ability.Types)],
				Bot:      true,
			}})
			n++
		}
	}
	return m.push(cmds...)
}

func (m *Match) push(cmds ...Command) error {
	if dropped := m.commands.Push(cmds...); dropped > 0 {
		m.m.commandsDropped.Add(context.Background(), int64(dropped), m.attrs)
		return fmt.Errorf("%w: %d dropped", ErrQueueFull, dropped)
	}
	return nil
}

// Step runs one tick of dt milliseconds and returns the post-tick snapshot.
// Given the same seed, starting state, dt and commands, Step always produces
// the same state. It is a no-op once the match has ended.
func (m *Match) Step(dt int64) core.Snapshot {
	m.started.Do(func() { m.publish(EventStarted, m.info) })

	m.mu.Lock()
	if m.ended {
		snap := core.NewSnapshot(m.id, m.tick, m.state)
		m.mu.Unlock()
		return snap
	}

	start := time.Now()
	for _, c := range order(m.commands.Drain()) {
		m.state = m.engine.ProcessAction(m.state, c.Action)
	}
	m.state = m.engine.ProcessAction(m.state, engine.UpdateGame{DeltaTime: dt})
	m.tick++

	decisions := bot.DecideAll(m.state, m.engine.Config(), m.rng)
	var next []Command
	for _, d := range decisions {
		if c := m.state.Get(d.BotID); c != nil {
			c.Hero.Bot = d.Memory
		}
		next = append(next, intentCommands(d)...)
	}

	took := time.Since(start)
	snap := core.NewSnapshot(m.id, m.tick, m.state)
	snap.TickDuration = took

	var result *core.MatchResult
	if m.state.Phase == core.PhaseFinished {
		m.ended = true
		r := core.NewMatchResult(m.id, m.tick, m.state)
		result = &r
	}
	m.mu.Unlock()

	if len(next) > 0 {
		if err := m.push(next...); err != nil {
			m.log.Warn("bot commands dropped", "error", err)
		}
	}

	ctx := context.Background()
	m.m.ticks.Add(ctx, 1, m.attrs)
	m.m.tickDuration.Record(ctx, float64(took.Microseconds())/1000, m.attrs)

	m.publish(EventSnapshot, snap)
	if result != nil {
		m.log.Info("match ended", "winner", result.Winner, "ticks", result.Ticks, "durationMs", result.DurationMs)
		m.publish(EventEnded, *result)
	}
	return snap
}

func intentCommands(d bot.Decision) []Command {
	var out []Command
	if p := d.Intents.Move; p != nil {
		out = append(out, Command{Action: engine.MoveHero{HeroID: d.BotID, TargetX: p.X, TargetY: p.Y}, Bot: true})
	}
	if p := d.Intents.Ability; p != nil {
		out = append(out, Command{Action: engine.UseAbility{HeroID: d.BotID, X: p.X, Y: p.Y}, Bot: true})
	}
	if d.Intents.Reward != "" {
		out = append(out, Command{Action: engine.ChooseReward{HeroID: d.BotID, RewardID: d.Intents.Reward}, Bot: true})
	}
	return out
}

// publish hands payload to the dispatcher. It never blocks the tick on a
// slow consumer when the handler is buffered and non-blocking.
func (m *Match) publish(command string, payload any) {
	d := m.deps.Dispatcher
	if d == nil || !d.HasHandler(command) {
		return
	}
	_, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		MatchID:   m.id,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		m.m.snapshotsDropped.Add(context.Background(), 1, m.attrs)
		m.log.Debug("publish failed", "command", command, "error", err)
	}
}

// Run ticks the match every tick interval until it ends or ctx is done. It
// returns nil when the match ended and ctx.Err() otherwise.
func (m *Match) Run(ctx context.Context) error {
	interval := m.info.TickInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("match running", "tick", interval, "seed", m.info.Seed)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if snap := m.Step(interval.Milliseconds()); snap.Phase == core.PhaseFinished {
				return nil
			}
		}
	}
}

// Ended reports whether the match has finished.
func (m *Match) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// Tick returns the number of ticks run.
func (m *Match) Tick() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tick
}

// State returns a copy of the current state.
func (m *Match) State() *core.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Result summarises the match as it stands.
func (m *Match) Result() core.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return core.NewMatchResult(m.id, m.tick, m.state)
}
