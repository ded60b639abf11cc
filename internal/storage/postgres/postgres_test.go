package postgres

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/model"
	"github.com/cradlewars/arena/pkg/core"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func injectedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func TestNew(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.NotNil(t, b.deps.Logger)
	// Close before Init is safe.
	assert.NoError(t, b.Close())
}

func TestInit_ConnectionRefused(t *testing.T) {
	b := New(Dependencies{
		Config: config.PostgresConfig{
			Host:     "127.0.0.1",
			Port:     "1",
			Username: "arena",
			Password: "arena",
			Database: "arena",
		},
		DBLogger: zerolog.Nop(),
	})
	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
}

func TestInitClose_InjectedDB(t *testing.T) {
	db := injectedDB(t)
	b := New(Dependencies{
		DB:       db,
		Tag:      "Arena",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		DBLogger: zerolog.Nop(),
	})

	require.NoError(t, b.Init())
	require.NotNil(t, b.Backend)
	assert.True(t, db.Migrator().HasTable(&model.ServerInfo{}))

	var info model.ServerInfo
	require.NoError(t, db.First(&info).Error)
	assert.Equal(t, "Arena", info.Name)

	require.NoError(t, b.Close())
}

func TestMatchLifecycle_InjectedDB(t *testing.T) {
	db := injectedDB(t)
	b := New(Dependencies{DB: db, Tag: "Arena", DBLogger: zerolog.Nop()})
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	require.NoError(t, b.StartMatch(&core.MatchInfo{ID: "m1", StartedAt: time.Now()}))

	var ev core.Events
	ev.AddKill(core.KillEvent{Time: 10, KillerID: "p1", VictimID: "turret-1", VictimKind: core.KindTurret})
	require.NoError(t, b.RecordSnapshot(&core.Snapshot{MatchID: "m1", Tick: 1, Events: ev}))
	require.NoError(t, b.EndMatch(&core.MatchResult{MatchID: "m1", Winner: core.TeamRed, EndedAt: time.Now()}))

	var m model.Match
	require.NoError(t, db.Preload("Kills").First(&m, "id = ?", "m1").Error)
	assert.Equal(t, "red", m.Winner)
	assert.Equal(t, "Arena", m.Tag)
	assert.Len(t, m.Kills, 1)
}
