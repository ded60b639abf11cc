package main

import (
	"fmt"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/internal/storage/memory"
	pgstorage "github.com/cradlewars/arena/internal/storage/postgres"
	sqlitestorage "github.com/cradlewars/arena/internal/storage/sqlite"
	wsstorage "github.com/cradlewars/arena/internal/storage/websocket"
	"github.com/cradlewars/arena/internal/worker"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	tag := config.GetString("defaultTag")

	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config:   storageCfg.Postgres,
			Tag:      tag,
			Logger:   Logger,
			DBLogger: DBLogger,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
			Tag:          tag,
		}, Logger, DBLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		streamCfg := config.GetStreamConfig()
		Logger.Info("WebSocket storage backend initialized", "url", streamCfg.URL)
		return wsstorage.New(wsstorage.Config{
			URL:           streamCfg.URL,
			Secret:        streamCfg.Secret,
			SnapshotEvery: streamCfg.SnapshotEvery,
			OnCommand:     worker.CommandForwarder(eventDispatcher),
			Logger:        Logger,
		}), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory, tag), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
