package core

import "time"

// MatchInfo describes a match when it starts.
type MatchInfo struct {
	ID           string        `json:"id"`
	Seed         int64         `json:"seed"`
	StartedAt    time.Time     `json:"startedAt"`
	TickInterval time.Duration `json:"tickInterval"`
	Config       GameConfig    `json:"config"`
}

// Snapshot is the post-tick view handed to replication and storage.
type Snapshot struct {
	MatchID     string       `json:"matchId"`
	Tick        uint64       `json:"tick"`
	Time        int64        `json:"time"`
	Wall        time.Time    `json:"wall"`
	Phase       Phase        `json:"phase"`
	Winner      Team         `json:"winner,omitempty"`
	Combatants  []Combatant  `json:"combatants"`
	Projectiles []Projectile `json:"projectiles"`
	Zones       []Zone       `json:"zones"`
	Events      Events       `json:"events"`

	// TickDuration is how long the simulation step took.
	TickDuration time.Duration `json:"tickDuration"`
}

// NewSnapshot copies the dynamic part of s.
func NewSnapshot(matchID string, tick uint64, s *State) Snapshot {
	c := s.Clone()
	return Snapshot{
		MatchID:     matchID,
		Tick:        tick,
		Time:        c.Now,
		Wall:        time.Now(),
		Phase:       c.Phase,
		Winner:      c.Winner,
		Combatants:  c.Combatants,
		Projectiles: c.Projectiles,
		Zones:       c.Zones,
		Events:      c.Events,
	}
}

// HeroResult is the final line of a hero in a finished match.
type HeroResult struct {
	HeroID     string      `json:"heroId"`
	Team       Team        `json:"team"`
	Ability    AbilityType `json:"ability"`
	Controller Controller  `json:"controller"`
	Level      int         `json:"level"`
	Stats      RoundStats  `json:"stats"`
}

// MatchResult summarises a finished match.
type MatchResult struct {
	MatchID    string       `json:"matchId"`
	Winner     Team         `json:"winner"`
	EndedAt    time.Time    `json:"endedAt"`
	DurationMs int64        `json:"durationMs"`
	Ticks      uint64       `json:"ticks"`
	Heroes     []HeroResult `json:"heroes"`
}

// NewMatchResult builds the summary of s.
func NewMatchResult(matchID string, ticks uint64, s *State) MatchResult {
	r := MatchResult{
		MatchID:    matchID,
		Winner:     s.Winner,
		EndedAt:    time.Now(),
		DurationMs: s.Now,
		Ticks:      ticks,
	}
	if s.EndTime > 0 {
		r.DurationMs = s.EndTime
	}
	for i := range s.Combatants {
		c := &s.Combatants[i]
		if !c.IsHero() {
			continue
		}
		r.Heroes = append(r.Heroes, HeroResult{
			HeroID:     c.ID,
			Team:       c.Team,
			Ability:    c.Hero.Ability.Type,
			Controller: c.Hero.Controller,
			Level:      c.Hero.Level,
			Stats:      c.Hero.Stats,
		})
	}
	return r
}

// UploadMetadata describes an exported match file for the results API.
type UploadMetadata struct {
	MatchID    string
	Winner     string
	DurationMs int64
	Tag        string
}
