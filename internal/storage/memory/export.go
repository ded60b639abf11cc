package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cradlewars/arena/pkg/core"
)

// MatchExport is the root JSON structure
type MatchExport struct {
	MatchID        string          `json:"matchId"`
	Seed           int64           `json:"seed"`
	StartedAt      time.Time       `json:"startedAt"`
	EndedAt        time.Time       `json:"endedAt"`
	TickIntervalMs int64           `json:"tickIntervalMs"`
	Winner         core.Team       `json:"winner"`
	DurationMs     int64           `json:"durationMs"`
	Ticks          uint64          `json:"ticks"`
	Snapshots      uint64          `json:"snapshots"`
	PeakMinions    int             `json:"peakMinions"`
	Heroes         []HeroJSON      `json:"heroes"`
	Structures     []StructureJSON `json:"structures"`
	Events         [][]any         `json:"events"`
	Config         core.GameConfig `json:"config"`
}

// HeroJSON represents a hero with its final line and timeline. Positions
// holds [time, [x, y], health, level, state] entries.
type HeroJSON struct {
	ID         string           `json:"id"`
	Team       core.Team        `json:"team"`
	Ability    core.AbilityType `json:"ability"`
	Controller core.Controller  `json:"controller"`
	Level      int              `json:"level"`
	Stats      core.RoundStats  `json:"stats"`
	Positions  [][]any          `json:"positions"`
}

// StructureJSON represents a cradle or turret.
type StructureJSON struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Team        core.Team `json:"team"`
	Position    []float64 `json:"position"`
	MaxHealth   float64   `json:"maxHealth"`
	Health      float64   `json:"health"`
	DestroyedAt int64     `json:"destroyedAt"`
}

// exportJSON writes the match data to a (gzipped) JSON file and returns its path.
func (b *Backend) exportJSON(rec *matchRecord) (string, error) {
	data := buildExport(rec)

	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(rec.info.ID)
	timestamp := rec.info.StartedAt.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, data)
	} else {
		err = writeJSON(outputPath, data)
	}
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func buildExport(rec *matchRecord) MatchExport {
	export := MatchExport{
		MatchID:        rec.info.ID,
		Seed:           rec.info.Seed,
		StartedAt:      rec.info.StartedAt,
		TickIntervalMs: rec.info.TickInterval.Milliseconds(),
		Snapshots:      rec.snapshots,
		PeakMinions:    rec.peakMinions,
		Heroes:         make([]HeroJSON, 0, len(rec.heroOrder)),
		Structures:     make([]StructureJSON, 0, len(rec.structOrd)),
		Events:         make([][]any, 0, len(rec.kills)+len(rec.levelUps)+len(rec.killStreaks)),
		Config:         rec.info.Config,
	}

	final := map[string]core.HeroResult{}
	if r := rec.result; r != nil {
		export.EndedAt = r.EndedAt
		export.Winner = r.Winner
		export.DurationMs = r.DurationMs
		export.Ticks = r.Ticks
		for _, h := range r.Heroes {
			final[h.HeroID] = h
		}
	}

	for _, id := range rec.heroOrder {
		h := rec.heroes[id]
		entity := HeroJSON{
			ID:         h.ID,
			Team:       h.Team,
			Ability:    h.Ability,
			Controller: h.Controller,
			Positions:  make([][]any, 0, len(h.Samples)),
		}
		if f, ok := final[id]; ok {
			entity.Level = f.Level
			entity.Stats = f.Stats
		} else if n := len(h.Samples); n > 0 {
			entity.Level = h.Samples[n-1].Level
		}
		for _, s := range h.Samples {
			entity.Positions = append(entity.Positions, []any{
				s.Time,
				[]float64{s.X, s.Y},
				s.Health,
				s.Level,
				s.State,
			})
		}
		export.Heroes = append(export.Heroes, entity)
	}

	for _, id := range rec.structOrd {
		st := rec.structures[id]
		export.Structures = append(export.Structures, StructureJSON{
			ID:          st.ID,
			Kind:        st.Kind,
			Team:        st.Team,
			Position:    []float64{st.Position.X, st.Position.Y},
			MaxHealth:   st.MaxHealth,
			Health:      st.Health,
			DestroyedAt: st.DestroyedAt,
		})
	}

	// Format: [time, "killed", victimId, killerId, victimKind]
	for _, evt := range rec.kills {
		export.Events = append(export.Events, []any{
			evt.Time,
			"killed",
			evt.VictimID,
			evt.KillerID,
			evt.VictimKind,
		})
	}

	// Format: [time, "levelup", heroId, level]
	for _, evt := range rec.levelUps {
		export.Events = append(export.Events, []any{
			evt.Time,
			"levelup",
			evt.HeroID,
			evt.Level,
		})
	}

	// Format: [time, "streak", heroId, streak]
	for _, evt := range rec.killStreaks {
		export.Events = append(export.Events, []any{
			evt.Time,
			"streak",
			evt.HeroID,
			evt.Streak,
		})
	}

	return export
}

func writeJSON(path string, data MatchExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data MatchExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}
