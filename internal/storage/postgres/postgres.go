// Package postgres implements the storage.Backend interface on PostgreSQL by
// connecting the shared GORM backend to a postgres database.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/database"
	"github.com/cradlewars/arena/internal/storage"
	gormstorage "github.com/cradlewars/arena/internal/storage/gorm"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the postgres storage backend.
type Dependencies struct {
	// DB is used instead of dialing Config when set.
	DB       *gorm.DB
	Config   config.PostgresConfig
	Tag      string
	Logger   *slog.Logger
	DBLogger zerolog.Logger
}

// Backend is the GORM backend bound to a postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new postgres storage backend. The connection is made in Init.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects if no DB was injected, migrates the schema and starts the
// DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config, b.deps.DBLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	if err := database.Setup(b.deps.DB, b.deps.Tag, b.deps.DBLogger); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.deps.DB,
		Logger: b.deps.Logger,
		Tag:    b.deps.Tag,
	})
	return b.Backend.Init()
}

// Close stops the DB writer goroutine. It is a no-op before Init.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
