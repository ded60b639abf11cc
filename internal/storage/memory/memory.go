// Package memory keeps match timelines in memory and exports each finished
// match to a JSON file.
package memory

import (
	"fmt"
	"sync"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/pkg/core"
)

// HeroRecord groups a hero with its sampled timeline.
type HeroRecord struct {
	ID         string
	Team       core.Team
	Ability    core.AbilityType
	Controller core.Controller
	Samples    []HeroSample
}

// HeroSample is the hero's state at one snapshot. Consecutive identical
// samples are collapsed.
type HeroSample struct {
	Time   int64
	Tick   uint64
	X, Y   float64
	Health float64
	Level  int
	State  core.HeroState
}

func (s HeroSample) sameAs(o HeroSample) bool {
	return s.X == o.X && s.Y == o.Y && s.Health == o.Health && s.Level == o.Level && s.State == o.State
}

// StructureRecord tracks a cradle or turret.
type StructureRecord struct {
	ID          string
	Kind        core.Kind
	Team        core.Team
	Position    core.Vec2
	MaxHealth   float64
	Health      float64
	DestroyedAt int64 // -1 while standing
}

// matchRecord holds everything recorded for one match.
type matchRecord struct {
	info       core.MatchInfo
	result     *core.MatchResult
	heroes     map[string]*HeroRecord
	heroOrder  []string
	structures map[string]*StructureRecord
	structOrd  []string

	kills       []core.KillEvent
	levelUps    []core.LevelUpEvent
	killStreaks []core.KillStreakEvent
	snapshots   uint64
	peakMinions int
}

type exportedFile struct {
	path string
	meta core.UploadMetadata
}

// Backend stores match data in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig
	tag string

	matches map[string]*matchRecord
	cursor  storage.EventCursor
	exports map[string]exportedFile

	mu sync.RWMutex
}

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Uploadable = (*Backend)(nil)
)

// New creates a new memory backend. tag is copied into upload metadata.
func New(cfg config.MemoryConfig, tag string) *Backend {
	return &Backend{
		cfg:     cfg,
		tag:     tag,
		matches: make(map[string]*matchRecord),
		cursor:  storage.EventCursor{},
		exports: make(map[string]exportedFile),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match. Starting an id again resets it.
func (b *Backend) StartMatch(info *core.MatchInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.matches[info.ID] = &matchRecord{
		info:       *info,
		heroes:     make(map[string]*HeroRecord),
		structures: make(map[string]*StructureRecord),
	}
	delete(b.cursor, info.ID)
	delete(b.exports, info.ID)
	return nil
}

// RecordSnapshot appends the hero samples and new events of s.
func (b *Backend) RecordSnapshot(s *core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.matches[s.MatchID]
	if !ok {
		return nil // silently ignore if match not started
	}
	rec.snapshots++

	minions := 0
	for i := range s.Combatants {
		c := &s.Combatants[i]
		switch c.Kind {
		case core.KindHero:
			if c.Hero != nil {
				rec.sampleHero(c, s)
			}
		case core.KindMinion:
			minions++
		case core.KindTurret, core.KindCradle:
			rec.trackStructure(c)
		}
	}
	rec.peakMinions = max(rec.peakMinions, minions)

	fresh := b.cursor.Advance(s)
	rec.kills = append(rec.kills, fresh.Kills...)
	rec.levelUps = append(rec.levelUps, fresh.LevelUps...)
	rec.killStreaks = append(rec.killStreaks, fresh.KillStreaks...)
	for _, k := range fresh.Kills {
		if st, ok := rec.structures[k.VictimID]; ok {
			st.Health = 0
			st.DestroyedAt = k.Time
		}
	}
	return nil
}

func (r *matchRecord) sampleHero(c *core.Combatant, s *core.Snapshot) {
	h, ok := r.heroes[c.ID]
	if !ok {
		h = &HeroRecord{
			ID:         c.ID,
			Team:       c.Team,
			Ability:    c.Hero.Ability.Type,
			Controller: c.Hero.Controller,
		}
		r.heroes[c.ID] = h
		r.heroOrder = append(r.heroOrder, c.ID)
	}
	sample := HeroSample{
		Time:   s.Time,
		Tick:   s.Tick,
		X:      c.Position.X,
		Y:      c.Position.Y,
		Health: c.Health,
		Level:  c.Hero.Level,
		State:  c.Hero.State,
	}
	if n := len(h.Samples); n > 0 && h.Samples[n-1].sameAs(sample) {
		return
	}
	h.Samples = append(h.Samples, sample)
}

func (r *matchRecord) trackStructure(c *core.Combatant) {
	st, ok := r.structures[c.ID]
	if !ok {
		st = &StructureRecord{
			ID:          c.ID,
			Kind:        c.Kind,
			Team:        c.Team,
			Position:    c.Position,
			MaxHealth:   c.MaxHealth,
			DestroyedAt: -1,
		}
		r.structures[c.ID] = st
		r.structOrd = append(r.structOrd, c.ID)
	}
	st.Health = c.Health
}

// EndMatch finalizes and exports the match data. The in-memory record is
// released once the file is written.
func (b *Backend) EndMatch(result *core.MatchResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.matches[result.MatchID]
	if !ok {
		return fmt.Errorf("match %s was never started", result.MatchID)
	}
	r := *result
	rec.result = &r

	path, err := b.exportJSON(rec)
	if err != nil {
		return err
	}

	b.exports[result.MatchID] = exportedFile{
		path: path,
		meta: core.UploadMetadata{
			MatchID:    result.MatchID,
			Winner:     string(result.Winner),
			DurationMs: result.DurationMs,
			Tag:        b.tag,
		},
	}
	delete(b.matches, result.MatchID)
	delete(b.cursor, result.MatchID)
	return nil
}

// ExportedFile returns the file written for a finished match.
func (b *Backend) ExportedFile(matchID string) (string, core.UploadMetadata, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.exports[matchID]
	return e.path, e.meta, ok
}

// Recording reports whether matchID is started and not yet ended.
func (b *Backend) Recording(matchID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.matches[matchID]
	return ok
}
