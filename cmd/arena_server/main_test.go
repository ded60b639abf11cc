package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/storage/memory"
	wsstorage "github.com/cradlewars/arena/internal/storage/websocket"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cmd      string
		seed     int64
		changed  bool
		maxTicks uint64
	}{
		{name: "default command", args: nil, cmd: "serve", maxTicks: 72_000},
		{name: "flags only", args: []string{"--seed", "7"}, cmd: "serve", seed: 7, changed: true, maxTicks: 72_000},
		{name: "simulate", args: []string{"SIMULATE", "--max-ticks", "10"}, cmd: "simulate", maxTicks: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, opts, flags, err := parseArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.seed, opts.seed)
			assert.Equal(t, tt.changed, flags.Changed("seed"))
			assert.Equal(t, tt.maxTicks, opts.maxTicks)
			assert.Equal(t, ".", opts.configDir)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	_, _, _, err := parseArgs([]string{"replay"})
	assert.ErrorContains(t, err, "unknown command")

	_, _, _, err = parseArgs([]string{"serve", "--no-such-flag"})
	assert.Error(t, err)
}

func TestCreateStorageBackend(t *testing.T) {
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := createStorageBackend(config.StorageConfig{Memory: config.MemoryConfig{OutputDir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "websocket"})
	require.NoError(t, err)
	assert.IsType(t, &wsstorage.Backend{}, b)

	_, err = createStorageBackend(config.StorageConfig{Type: "mongo"})
	assert.ErrorContains(t, err, "unknown storage type")
}
