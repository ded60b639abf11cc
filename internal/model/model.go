package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ServerInfo{},
	&Match{},
	&HeroResult{},
	&KillRecord{},
	&LevelUpRecord{},
	&TickPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ServerInfo identifies the server instance that owns the database.
type ServerInfo struct {
	ID          uint      `gorm:"primarykey"`
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name" gorm:"size:127"`
	Description string    `json:"description" gorm:"size:255"`
}

func (*ServerInfo) TableName() string {
	return "server_infos"
}

// TickPerformance samples how long match ticks take.
type TickPerformance struct {
	ID          uint      `gorm:"primarykey"`
	Time        time.Time `json:"time" gorm:"index:idx_tickperformance_time"`
	MatchID     string    `json:"matchId" gorm:"size:64;index:idx_tickperformance_match_id"`
	Match       Match     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick        uint64    `json:"tick"`
	DurationMs  float32   `json:"durationMs"`
	Combatants  uint16    `json:"combatants"`
	Projectiles uint16    `json:"projectiles"`
}

func (*TickPerformance) TableName() string {
	return "tick_performances"
}

////////////////////////
// MATCH DATA
////////////////////////

// Match is one simulated match. It is created on start and completed on end.
type Match struct {
	ID             string         `json:"id" gorm:"primarykey;size:64"`
	Seed           int64          `json:"seed"`
	StartedAt      time.Time      `json:"startedAt" gorm:"index:idx_match_started_at"`
	TickIntervalMs int64          `json:"tickIntervalMs"`
	Config         datatypes.JSON `json:"config"`
	EndedAt        sql.NullTime   `json:"endedAt"`
	Winner         string         `json:"winner" gorm:"size:16"`
	DurationMs     int64          `json:"durationMs"`
	Ticks          uint64         `json:"ticks"`
	Tag            string         `json:"tag" gorm:"size:127"`

	Heroes   []HeroResult    `json:"heroes" gorm:"foreignkey:MatchID"`
	Kills    []KillRecord    `json:"kills" gorm:"foreignkey:MatchID"`
	LevelUps []LevelUpRecord `json:"levelUps" gorm:"foreignkey:MatchID"`
}

func (*Match) TableName() string {
	return "matches"
}

// HeroResult is the final line of one hero.
type HeroResult struct {
	ID          uint           `gorm:"primarykey"`
	MatchID     string         `json:"matchId" gorm:"size:64;index:idx_heroresult_match_id"`
	HeroID      string         `json:"heroId" gorm:"size:64"`
	Team        string         `json:"team" gorm:"size:16"`
	Ability     string         `json:"ability" gorm:"size:32"`
	Controller  string         `json:"controller" gorm:"size:16"`
	Level       int            `json:"level"`
	Experience  int            `json:"experience"`
	HeroKills   int            `json:"heroKills"`
	MinionKills int            `json:"minionKills"`
	TurretKills int            `json:"turretKills"`
	Deaths      int            `json:"deaths"`
	Stats       datatypes.JSON `json:"stats"`
}

func (*HeroResult) TableName() string {
	return "hero_results"
}

// KillRecord is one combatant reaching zero health.
type KillRecord struct {
	ID         uint   `gorm:"primarykey"`
	MatchID    string `json:"matchId" gorm:"size:64;index:idx_killrecord_match_id"`
	EventID    uint64 `json:"eventId"`
	Time       int64  `json:"time"`
	KillerID   string `json:"killerId" gorm:"size:64;index:idx_killrecord_killer_id"`
	VictimID   string `json:"victimId" gorm:"size:64"`
	VictimKind string `json:"victimKind" gorm:"size:16"`
	VictimTeam string `json:"victimTeam" gorm:"size:16"`
}

func (*KillRecord) TableName() string {
	return "kill_records"
}

// LevelUpRecord is one hero level gained.
type LevelUpRecord struct {
	ID      uint   `gorm:"primarykey"`
	MatchID string `json:"matchId" gorm:"size:64;index:idx_leveluprecord_match_id"`
	EventID uint64 `json:"eventId"`
	Time    int64  `json:"time"`
	HeroID  string `json:"heroId" gorm:"size:64"`
	Level   int    `json:"level"`
}

func (*LevelUpRecord) TableName() string {
	return "level_up_records"
}
