package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/cradlewars/arena/internal/influx"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 5 * time.Second

// MatchCounter reports the running matches.
type MatchCounter interface {
	Count() int
}

// StorageStats exposes the storage write pipeline.
type StorageStats interface {
	GetLastDBWriteDuration() time.Duration
	QueueLengths() map[string]int
}

// PointWriter receives server status points.
type PointWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger  *slog.Logger
	Matches MatchCounter
	Storage StorageStats
	// Influx is optional.
	Influx     PointWriter
	ServerName string
	// StatusDir receives status.json. Empty disables the file.
	StatusDir string
	Interval  time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus samples the server and renders the sample as indented JSON.
func (s *Service) GetProgramStatus() (output string, status influx.ServerStatus) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status = influx.ServerStatus{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(mem.HeapAlloc) / (1 << 20),
	}
	if s.deps.Matches != nil {
		status.Matches = s.deps.Matches.Count()
	}
	if s.deps.Storage != nil {
		status.DBWriteDuration = s.deps.Storage.GetLastDBWriteDuration()
		status.QueueLengths = s.deps.Storage.QueueLengths()
	}

	raw, err := json.MarshalIndent(map[string]any{
		"time":              time.Now().UTC().Format(time.RFC3339),
		"matches":           status.Matches,
		"goroutines":        status.Goroutines,
		"heapAllocMB":       status.HeapAllocMB,
		"lastWriteDuration": status.DBWriteDuration.String(),
		"writeQueues":       status.QueueLengths,
	}, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return string(raw), status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.report(logger)
			}
		}
	}()

	return nil
}

func (s *Service) report(logger *slog.Logger) {
	statusStr, status := s.GetProgramStatus()

	if s.deps.StatusDir != "" {
		path := filepath.Join(s.deps.StatusDir, "status.json")
		if err := os.WriteFile(path, []byte(statusStr+"\n"), 0644); err != nil {
			logger.Error("Error writing status file", "error", err)
		}
	}

	if s.deps.Influx != nil {
		point := influx.ServerPoint(s.deps.ServerName, status, time.Now())
		if err := s.deps.Influx.WritePoint(influx.ServerBucket, point); err != nil {
			logger.Error("Error writing server status point", "error", err)
		}
	}
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
