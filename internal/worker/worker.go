// Package worker turns dispatched commands into world requests and records
// their outcomes to storage and metrics.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/unitcore/internal/api"
	"github.com/OCAP2/unitcore/internal/aura"
	"github.com/OCAP2/unitcore/internal/influx"
	"github.com/OCAP2/unitcore/internal/parser"
	"github.com/OCAP2/unitcore/internal/session"
	"github.com/OCAP2/unitcore/internal/storage"
	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/internal/world"
	"github.com/OCAP2/unitcore/pkg/core"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	uploadTimeout = 2 * time.Minute
	flushTimeout  = 5 * time.Second
)

// LogFlusher exports buffered telemetry logs.
type LogFlusher interface {
	Flush(ctx context.Context) error
}

// Dependencies holds all dependencies for the worker manager.
// Influx, API and Logs are optional.
type Dependencies struct {
	Logger  *slog.Logger
	World   *world.World
	Parser  *parser.Parser
	Session *session.Context
	Influx  *influx.Manager
	API     *api.Client
	Logs    LogFlusher

	ExtensionVersion string
	ExtensionBuild   string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager handles commands against the world and records their outcomes.
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	log     *slog.Logger
	metrics *metrics
}

// NewManager creates a worker manager and registers it as the world listener.
func NewManager(deps Dependencies, backend storage.Backend) (*Manager, error) {
	if deps.World == nil {
		return nil, fmt.Errorf("worker: world is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	met, err := newMetrics()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		deps:    deps,
		backend: backend,
		log:     deps.Logger,
		metrics: met,
	}
	deps.World.SetListener(m)
	return m, nil
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// recording reports whether events should reach the backend.
func (m *Manager) recording() bool {
	return m.backend != nil && m.deps.Session.Active()
}

func (m *Manager) tick() uint64 {
	return m.deps.World.TickCount()
}

// record stores one event. Failures are logged; the world outcome stands.
func (m *Manager) record(kind string, fn func() error) {
	if !m.recording() {
		return
	}
	if err := fn(); err != nil {
		m.log.Warn("Failed to record event", "event", kind, "error", err)
	}
}

func (m *Manager) writePoint(bucket string, p *influxdb2_write.Point) {
	if m.deps.Influx == nil || !m.deps.Influx.Enabled() || !m.deps.Session.Active() {
		return
	}
	if err := m.deps.Influx.WritePoint(bucket, p); err != nil {
		m.log.Debug("Failed to write influx point", "bucket", bucket, "error", err)
	}
}

// startSession records a new session and makes it current.
func (m *Manager) startSession(req parser.SessionRequest) (*core.Session, error) {
	s := &core.Session{
		Name:             req.Name,
		Author:           req.Author,
		StartTime:        m.deps.Now(),
		ExtensionVersion: m.deps.ExtensionVersion,
		ExtensionBuild:   m.deps.ExtensionBuild,
	}
	if m.backend != nil {
		if err := m.backend.StartSession(s); err != nil {
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
	}
	m.deps.Session.Set(s)
	m.log.Info("Session started", "name", s.Name, "id", s.ID)
	return s, nil
}

// endSession closes the current session and uploads the export when possible.
func (m *Manager) endSession() error {
	s, ok := m.deps.Session.Clear()
	if !ok {
		return fmt.Errorf("no active session")
	}
	if m.deps.Logs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := m.deps.Logs.Flush(ctx); err != nil {
			m.log.Warn("Failed to flush session logs", "name", s.Name, "error", err)
		}
		cancel()
	}
	if m.backend == nil {
		return nil
	}
	if err := m.backend.EndSession(); err != nil {
		return fmt.Errorf("failed to end session %q: %w", s.Name, err)
	}
	m.log.Info("Session ended", "name", s.Name, "id", s.ID)

	up, ok := m.backend.(storage.Uploadable)
	if !ok || m.deps.API == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := m.deps.API.UploadExport(ctx, up); err != nil {
		return fmt.Errorf("failed to upload session %q: %w", s.Name, err)
	}
	m.log.Info("Session uploaded", "name", s.Name, "path", up.GetExportedFilePath())
	return nil
}

// AuraRemoved implements world.Listener. Refreshes are not recorded since the
// new application is.
func (m *Manager) AuraRemoved(u *unit.Unit, a aura.Aura, reason aura.RemoveReason) {
	if reason == aura.RemovedByRefresh {
		return
	}
	e := auraEvent(m.deps.Now(), m.tick(), u.Handle(), a, string(reason))
	m.record("aura", func() error { return m.backend.RecordAuraEvent(&e) })
}

// RootChanged implements world.Listener.
func (m *Manager) RootChanged(u *unit.Unit, applied bool) {
	m.log.Debug("Root changed", "unit", u.Handle(), "applied", applied)
}

// DeathStateChanged implements world.Listener.
func (m *Manager) DeathStateChanged(u *unit.Unit, state core.DeathState) {
	m.log.Debug("Death state changed", "unit", u.Handle(), "state", state)
}

func auraEvent(now time.Time, tick uint64, h core.Handle, a aura.Aura, action string) core.AuraEvent {
	return core.AuraEvent{
		Time:                now,
		Tick:                tick,
		Unit:                h,
		AuraID:              a.ID,
		SpellID:             a.SpellID,
		Effects:             a.Effects,
		Action:              action,
		PersistThroughDeath: a.PersistThroughDeath,
	}
}
