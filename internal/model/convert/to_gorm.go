// Package convert provides functions to convert core match types to GORM models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cradlewars/arena/internal/model"
	"github.com/cradlewars/arena/pkg/core"
	"gorm.io/datatypes"
)

// CoreToMatch converts the start description of a match to a GORM Match row.
func CoreToMatch(info core.MatchInfo) (model.Match, error) {
	cfg, err := json.Marshal(info.Config)
	if err != nil {
		return model.Match{}, fmt.Errorf("failed to marshal match config: %w", err)
	}
	return model.Match{
		ID:             info.ID,
		Seed:           info.Seed,
		StartedAt:      info.StartedAt,
		TickIntervalMs: info.TickInterval.Milliseconds(),
		Config:         datatypes.JSON(cfg),
	}, nil
}

// ApplyResult copies the final outcome of a match onto m.
func ApplyResult(m *model.Match, r core.MatchResult) {
	m.EndedAt = sql.NullTime{Time: r.EndedAt, Valid: !r.EndedAt.IsZero()}
	m.Winner = string(r.Winner)
	m.DurationMs = r.DurationMs
	m.Ticks = r.Ticks
}

// CoreToHeroResults converts the hero lines of a result.
func CoreToHeroResults(r core.MatchResult) []model.HeroResult {
	out := make([]model.HeroResult, 0, len(r.Heroes))
	for _, h := range r.Heroes {
		stats, _ := json.Marshal(h.Stats)
		out = append(out, model.HeroResult{
			MatchID:     r.MatchID,
			HeroID:      h.HeroID,
			Team:        string(h.Team),
			Ability:     string(h.Ability),
			Controller:  string(h.Controller),
			Level:       h.Level,
			Experience:  h.Stats.TotalExperience,
			HeroKills:   h.Stats.HeroKills,
			MinionKills: h.Stats.MinionKills,
			TurretKills: h.Stats.TurretKills,
			Deaths:      h.Stats.Deaths,
			Stats:       datatypes.JSON(stats),
		})
	}
	return out
}

// CoreToKillRecord converts a kill event of a match.
func CoreToKillRecord(matchID string, e core.KillEvent) model.KillRecord {
	return model.KillRecord{
		MatchID:    matchID,
		EventID:    e.ID,
		Time:       e.Time,
		KillerID:   e.KillerID,
		VictimID:   e.VictimID,
		VictimKind: string(e.VictimKind),
		VictimTeam: string(e.VictimTeam),
	}
}

// CoreToLevelUpRecord converts a level-up event of a match.
func CoreToLevelUpRecord(matchID string, e core.LevelUpEvent) model.LevelUpRecord {
	return model.LevelUpRecord{
		MatchID: matchID,
		EventID: e.ID,
		Time:    e.Time,
		HeroID:  e.HeroID,
		Level:   e.Level,
	}
}

// CoreToTickPerformance samples the cost of the tick that produced s.
func CoreToTickPerformance(s core.Snapshot) model.TickPerformance {
	return model.TickPerformance{
		Time:        s.Wall,
		MatchID:     s.MatchID,
		Tick:        s.Tick,
		DurationMs:  float32(s.TickDuration.Microseconds()) / 1000,
		Combatants:  clampUint16(len(s.Combatants)),
		Projectiles: clampUint16(len(s.Projectiles)),
	}
}

func clampUint16(n int) uint16 {
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}
