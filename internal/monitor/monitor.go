// Package monitor periodically samples the recorder's health, writing a
// status file and performance rows.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/unitcore/internal/influx"
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/internal/session"
)

// StatusFileName is written into StatusDir on every sample.
const StatusFileName = "status.txt"

// WorldStats is the part of the world the monitor samples.
type WorldStats interface {
	Len() int
	TickCount() uint64
}

// QueueReporter is implemented by batching storage backends.
type QueueReporter interface {
	QueueLengths() model.WriteQueueLengths
}

// DBWriteDurationProvider is implemented by batching storage backends.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// PerformanceRecorder persists samples.
type PerformanceRecorder interface {
	RecordPerformance(p *model.Performance) error
}

// Dependencies holds all dependencies for the monitor service.
// Backend is probed for QueueReporter, DBWriteDurationProvider and PerformanceRecorder.
type Dependencies struct {
	Logger    *slog.Logger
	Session   *session.Context
	World     WorldStats
	Backend   any
	Influx    *influx.Manager
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
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample builds a performance row from the current state.
func (s *Service) Sample(now time.Time) model.Performance {
	perf := model.Performance{
		Time:      now,
		SessionID: s.deps.Session.ID(),
	}
	if s.deps.World != nil {
		perf.Units = uint32(s.deps.World.Len())
		perf.Tick = s.deps.World.TickCount()
	}
	if q, ok := s.deps.Backend.(QueueReporter); ok {
		perf.WriteQueueLengths = q.QueueLengths()
	}
	if d, ok := s.deps.Backend.(DBWriteDurationProvider); ok {
		perf.LastWriteDurationMs = float32(d.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	return perf
}

// StatusLines renders a sample for the status file.
func StatusLines(sessionName string, perf model.Performance) []string {
	lines := []string{
		fmt.Sprintf("session: %s", sessionName),
		fmt.Sprintf("units: %d", perf.Units),
		fmt.Sprintf("tick: %d", perf.Tick),
	}
	queues, err := json.MarshalIndent(perf.WriteQueueLengths, "", "  ")
	if err != nil {
		queues = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	lines = append(lines,
		"writeQueues: "+string(queues),
		fmt.Sprintf("lastWriteMs: %.3f", perf.LastWriteDurationMs),
	)
	return lines
}

func totalQueued(q model.WriteQueueLengths) int {
	return int(q.Units + q.DamageEvents + q.HealEvents + q.KillEvents + q.ControlStates + q.AuraEvents + q.TargetEvents)
}

// Tick takes one sample and writes it everywhere it is configured to go.
func (s *Service) Tick(now time.Time) error {
	if !s.deps.Session.Active() {
		return nil
	}
	perf := s.Sample(now)

	if s.deps.StatusDir != "" {
		if err := writeStatusFile(filepath.Join(s.deps.StatusDir, StatusFileName), StatusLines(s.deps.Session.Name(), perf)); err != nil {
			return err
		}
	}

	if r, ok := s.deps.Backend.(PerformanceRecorder); ok {
		if err := r.RecordPerformance(&perf); err != nil {
			return fmt.Errorf("error writing performance row: %w", err)
		}
	}

	if s.deps.Influx != nil && s.deps.Influx.Enabled() {
		point := influx.PerformancePoint(s.deps.Session.Name(), int(perf.Units), perf.Tick,
			totalQueued(perf.WriteQueueLengths), time.Duration(perf.LastWriteDurationMs*float32(time.Millisecond)), now)
		if err := s.deps.Influx.WritePoint(influx.BucketPerformance, point); err != nil {
			return fmt.Errorf("error writing performance point: %w", err)
		}
	}
	return nil
}

func writeStatusFile(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating status dir: %w", err)
	}
	var out []byte
	for _, line := range lines {
		out = append(out, line...)
		out = append(out, '\n')
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if err := s.Tick(now); err != nil {
					s.deps.Logger.Error("Status sample failed", "error", err)
				}
			}
		}
	}()
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
