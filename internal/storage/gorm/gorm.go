// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal queues and a background DB writer goroutine. The sqlite and
// postgres backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cradlewars/arena/internal/model"
	"github.com/cradlewars/arena/internal/model/convert"
	"github.com/cradlewars/arena/internal/queue"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/pkg/core"

	"gorm.io/gorm"
)

// ErrNoDatabase is returned by Init when no connection was injected.
var ErrNoDatabase = errors.New("no database connection")

// DefaultWriteInterval is how often queued rows are written.
const DefaultWriteInterval = 2 * time.Second

// DefaultSampleEvery is the tick stride of tick performance samples.
const DefaultSampleEvery = 20

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// Tag is stored on every match row.
	Tag string
	// WriteInterval defaults to DefaultWriteInterval.
	WriteInterval time.Duration
	// SampleEvery defaults to DefaultSampleEvery.
	SampleEvery uint64
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Kills    *queue.Queue[model.KillRecord]
	LevelUps *queue.Queue[model.LevelUpRecord]
	Ticks    *queue.Queue[model.TickPerformance]
}

func newQueues() *queues {
	return &queues{
		Kills:    queue.New[model.KillRecord](),
		LevelUps: queue.New[model.LevelUpRecord](),
		Ticks:    queue.New[model.TickPerformance](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	log    *slog.Logger
	queues *queues

	mu     sync.Mutex
	cursor storage.EventCursor
	active map[string]bool

	writeMu       sync.Mutex
	lastWriteNano atomic.Int64
	stopChan      chan struct{}
	done          chan struct{}
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	if deps.SampleEvery == 0 {
		deps.SampleEvery = DefaultSampleEvery
	}
	return &Backend{
		deps:   deps,
		log:    deps.Logger.With("component", "gorm"),
		queues: newQueues(),
		cursor: storage.EventCursor{},
		active: make(map[string]bool),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema if needed and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}

	if !b.deps.DB.Migrator().HasTable(&model.Match{}) {
		b.log.Info("Migrating schema")
		if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	<-b.done
	return b.Flush()
}

// StartMatch inserts the match row synchronously so queued rows can
// reference it.
func (b *Backend) StartMatch(info *core.MatchInfo) error {
	row, err := convert.CoreToMatch(*info)
	if err != nil {
		return err
	}
	row.Tag = b.deps.Tag

	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert match %s: %w", info.ID, err)
	}

	b.mu.Lock()
	b.active[info.ID] = true
	delete(b.cursor, info.ID)
	b.mu.Unlock()
	return nil
}

// RecordSnapshot queues the new kills and level-ups of s and samples the tick
// cost every SampleEvery ticks.
func (b *Backend) RecordSnapshot(s *core.Snapshot) error {
	b.mu.Lock()
	if !b.active[s.MatchID] {
		b.mu.Unlock()
		return nil
	}
	fresh := b.cursor.Advance(s)
	b.mu.Unlock()

	for _, k := range fresh.Kills {
		b.queues.Kills.Push(convert.CoreToKillRecord(s.MatchID, k))
	}
	for _, l := range fresh.LevelUps {
		b.queues.LevelUps.Push(convert.CoreToLevelUpRecord(s.MatchID, l))
	}
	if s.Tick%b.deps.SampleEvery == 0 {
		b.queues.Ticks.Push(convert.CoreToTickPerformance(*s))
	}
	return nil
}

// EndMatch writes pending rows, completes the match row and inserts the
// hero results.
func (b *Backend) EndMatch(result *core.MatchResult) error {
	b.mu.Lock()
	delete(b.active, result.MatchID)
	delete(b.cursor, result.MatchID)
	b.mu.Unlock()

	if err := b.Flush(); err != nil {
		b.log.Warn("Flush before match end failed", "match", result.MatchID, "error", err)
	}

	var row model.Match
	convert.ApplyResult(&row, *result)
	err := b.deps.DB.Model(&model.Match{}).Where("id = ?", result.MatchID).Updates(map[string]any{
		"ended_at":    row.EndedAt,
		"winner":      row.Winner,
		"duration_ms": row.DurationMs,
		"ticks":       row.Ticks,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to complete match %s: %w", result.MatchID, err)
	}

	heroes := convert.CoreToHeroResults(*result)
	if len(heroes) == 0 {
		return nil
	}
	if err := b.deps.DB.Create(&heroes).Error; err != nil {
		return fmt.Errorf("failed to insert hero results: %w", err)
	}
	return nil
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// QueueLengths returns the number of rows waiting per table.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"kills":    b.queues.Kills.Len(),
		"levelUps": b.queues.LevelUps.Len(),
		"ticks":    b.queues.Ticks.Len(),
	}
}

// Flush drains every queue into the database. Failed batches are pushed back.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	err := errors.Join(
		writeQueue(b.deps.DB, b.queues.Kills, "kill records", b.log),
		writeQueue(b.deps.DB, b.queues.LevelUps, "level up records", b.log),
		writeQueue(b.deps.DB, b.queues.Ticks, "tick performances", b.log),
	)
	b.lastWriteNano.Store(int64(time.Since(start)))
	return err
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	items := q.Drain()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

// writerLoop periodically drains queues into the DB until Close.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Debug("DB write cycle failed", "error", err)
			}
		}
	}
}
