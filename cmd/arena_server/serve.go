package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/internal/match"
	"github.com/cradlewars/arena/pkg/core"
)

// serve keeps srv.Matches bot matches running, replacing each one as it
// ends, until ctx is done.
func serve(ctx context.Context, srv config.ServerConfig, storageCfg config.StorageConfig) error {
	gameCfg, err := config.GetGameConfig()
	if err != nil {
		return err
	}
	if err := initServices(ctx, srv, storageCfg, true); err != nil {
		stopServices()
		return err
	}
	defer stopServices()

	if srv.Matches < 1 {
		srv.Matches = 1
	}
	ended := make(chan string, srv.Matches)
	var started int64
	next := func() error {
		started++
		return startMatch(ctx, srv, gameCfg, started, ended)
	}

	for i := 0; i < srv.Matches; i++ {
		if err := next(); err != nil {
			return err
		}
	}
	Logger.Info("Serving matches", "matches", srv.Matches, "botsPerTeam", srv.BotsPerTeam,
		"tick", gameCfg.TickInterval())

	for {
		select {
		case <-ctx.Done():
			Logger.Info("Shutting down", "reason", context.Cause(ctx))
			return nil
		case id := <-ended:
			if err := matchManager.Remove(id); err != nil {
				Logger.Warn("Failed to remove match", "match", id, "error", err)
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := next(); err != nil {
				return err
			}
		}
	}
}

// startMatch creates a bot match and runs it on its own goroutine. A fixed
// server seed is offset by n so successive matches differ.
func startMatch(ctx context.Context, srv config.ServerConfig, gameCfg core.GameConfig, n int64, ended chan<- string) error {
	seed := srv.Seed
	if seed != 0 {
		seed += n - 1
	}
	m, err := matchManager.Create(match.Options{
		Seed:         seed,
		Config:       gameCfg,
		CommandLimit: srv.CommandLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	if err := m.FillBots(srv.BotsPerTeam); err != nil {
		return fmt.Errorf("failed to add bots to match %s: %w", m.ID(), err)
	}

	id := m.ID()
	runningMatches.Add(1)
	err = matchManager.Start(ctx, id, func(err error) {
		runningMatches.Add(-1)
		flushTelemetry()
		if err != nil {
			Logger.Debug("Match stopped", "match", id, "reason", err)
			return
		}
		ended <- id
	})
	if err != nil {
		runningMatches.Add(-1)
		return fmt.Errorf("failed to start match %s: %w", id, err)
	}
	Logger.Info("Match started", "match", id, "seed", m.Info().Seed)
	return nil
}

// simulate plays one bot match as fast as possible and prints its result.
// A match still running after maxTicks is ended as a draw.
func simulate(ctx context.Context, srv config.ServerConfig, storageCfg config.StorageConfig, maxTicks uint64) error {
	gameCfg, err := config.GetGameConfig()
	if err != nil {
		return err
	}
	if err := initServices(ctx, srv, storageCfg, false); err != nil {
		stopServices()
		return err
	}
	defer stopServices()

	seed := srv.Seed
	if seed == 0 {
		seed = 1
	}
	m, err := matchManager.Create(match.Options{
		Seed:         seed,
		Config:       gameCfg,
		CommandLimit: srv.CommandLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	if err := m.FillBots(srv.BotsPerTeam); err != nil {
		return fmt.Errorf("failed to add bots: %w", err)
	}

	dt := gameCfg.TickInterval().Milliseconds()
	begin := time.Now()
	for !m.Ended() {
		if ctx.Err() != nil || (maxTicks > 0 && m.Tick() >= maxTicks) {
			Logger.Warn("Ending simulation early", "match", m.ID(), "tick", m.Tick())
			if err := m.Submit(engine.EndGame{}); err != nil {
				return fmt.Errorf("failed to end match: %w", err)
			}
			m.Step(dt)
			break
		}
		m.Step(dt)
	}

	result := m.Result()
	Logger.Info("Simulation finished", "match", m.ID(), "seed", seed, "winner", result.Winner,
		"ticks", result.Ticks, "elapsed", time.Since(begin))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func flushTelemetry() {
	if OTelProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush telemetry", "error", err)
	}
}
