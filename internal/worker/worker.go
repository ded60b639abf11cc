// Package worker consumes post-tick notifications off the match loop and
// forwards them to storage, tick metrics and the results API. It also routes
// inbound client commands to their match.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/cradlewars/arena/internal/dispatcher"
	"github.com/cradlewars/arena/internal/engine"
	"github.com/cradlewars/arena/internal/parser"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/pkg/core"
)

// DefaultPipelineSize is used when no snapshot buffer is configured.
const DefaultPipelineSize = 1024

// uploadTimeout bounds one results upload.
const uploadTimeout = 2 * time.Minute

var (
	// ErrPipelineFull is returned when a snapshot was dropped.
	ErrPipelineFull = errors.New("snapshot pipeline full")
	// ErrStopped is returned for notifications after Stop.
	ErrStopped = errors.New("worker stopped")
)

// CommandSink accepts parsed client commands.
type CommandSink interface {
	Submit(matchID string, a engine.Action) error
}

// TickWriter receives tick points.
type TickWriter interface {
	TickBucket() string
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Uploader sends exported match files to the results service.
type Uploader interface {
	Upload(ctx context.Context, filePath string, meta core.UploadMetadata) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Backend storage.Backend
	Logger  *slog.Logger
	// Influx, Uploader and Matches are optional.
	Influx   TickWriter
	Uploader Uploader
	Matches  CommandSink
	Parser   *parser.Parser
	// PipelineSize defaults to DefaultPipelineSize.
	PipelineSize int
}

// Manager runs the post-tick pipeline.
type Manager struct {
	deps     Dependencies
	backend  storage.Backend
	log      *slog.Logger
	pipeline chan dispatcher.Event

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
	mu       sync.Mutex
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PipelineSize <= 0 {
		deps.PipelineSize = DefaultPipelineSize
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	return &Manager{
		deps:     deps,
		backend:  deps.Backend,
		log:      deps.Logger.With("component", "worker"),
		pipeline: make(chan dispatcher.Event, deps.PipelineSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the pipeline goroutine.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.run()
}

// Stop processes what is already queued and stops the pipeline goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}

func (m *Manager) run() {
	defer close(m.done)
	for {
		select {
		case e := <-m.pipeline:
			m.process(e)
		case <-m.stop:
			for {
				select {
				case e := <-m.pipeline:
					m.process(e)
				default:
					return
				}
			}
		}
	}
}

// PipelineLength returns the number of queued notifications.
func (m *Manager) PipelineLength() int {
	return len(m.pipeline)
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// QueueLengthProvider is an optional interface for backends with write queues.
type QueueLengthProvider interface {
	QueueLengths() map[string]int
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// QueueLengths returns the pipeline length and the backend write queues.
func (m *Manager) QueueLengths() map[string]int {
	out := map[string]int{"pipeline": m.PipelineLength()}
	if p, ok := m.backend.(QueueLengthProvider); ok {
		for k, v := range p.QueueLengths() {
			out[k] = v
		}
	}
	return out
}
