// Package memory keeps a whole session in memory and exports it as a JSON
// combat log when the session ends.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/OCAP2/unitcore/internal/config"
	"github.com/OCAP2/unitcore/pkg/core"
)

// ErrNoSession is returned for operations that need a started session.
var ErrNoSession = errors.New("no active session")

// UnitRecord groups a unit with its per-unit time series
type UnitRecord struct {
	Unit          core.UnitRecord
	ControlStates []core.ControlStateEvent
	Auras         []core.AuraEvent
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	tag     string
	session *core.Session

	units     map[core.Handle]*UnitRecord
	unitOrder []core.Handle

	damageEvents []core.DamageEvent
	healEvents   []core.HealEvent
	killEvents   []core.KillEvent
	targetEvents []core.TargetEvent

	idCounter      uint
	lastExportPath string
	lastMeta       core.UploadMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, tag string) *Backend {
	return &Backend{
		cfg:   cfg,
		tag:   tag,
		units: make(map[core.Handle]*UnitRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports a session that was never ended
func (b *Backend) Close() error {
	b.mu.RLock()
	active := b.session != nil
	b.mu.RUnlock()
	if active {
		return b.EndSession()
	}
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	b.session = s

	// Reset all collections
	b.units = make(map[core.Handle]*UnitRecord)
	b.unitOrder = nil
	b.damageEvents = nil
	b.healEvents = nil
	b.killEvents = nil
	b.targetEvents = nil
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	if b.session.EndTime.IsZero() {
		b.session.EndTime = time.Now().UTC()
	}
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.lastMeta = core.UploadMetadata{
		SessionName: b.session.Name,
		Author:      b.session.Author,
		Duration:    b.session.EndTime.Sub(b.session.StartTime).Seconds(),
		Tag:         b.tag,
	}
	b.session = nil
	return nil
}

// AddUnit registers a new unit. Re-adding a handle replaces its record.
func (b *Backend) AddUnit(u *core.UnitRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.units[u.Handle]; !ok {
		b.unitOrder = append(b.unitOrder, u.Handle)
	}
	b.units[u.Handle] = &UnitRecord{Unit: *u}
	return nil
}

// GetUnit returns the record of a registered unit
func (b *Backend) GetUnit(h core.Handle) (*UnitRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.units[h]
	return r, ok
}

// RecordDamageEvent records a damage event
func (b *Backend) RecordDamageEvent(e *core.DamageEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.damageEvents = append(b.damageEvents, *e)
	return nil
}

// RecordHealEvent records a heal event
func (b *Backend) RecordHealEvent(e *core.HealEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healEvents = append(b.healEvents, *e)
	return nil
}

// RecordKillEvent records a kill event
func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.killEvents = append(b.killEvents, *e)
	return nil
}

// RecordControlStateEvent records a control-state change on its unit.
// Events for unknown units are dropped.
func (b *Backend) RecordControlStateEvent(e *core.ControlStateEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.units[e.Unit]; ok {
		r.ControlStates = append(r.ControlStates, *e)
	}
	return nil
}

// RecordAuraEvent records an aura change on its unit
func (b *Backend) RecordAuraEvent(e *core.AuraEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.units[e.Unit]; ok {
		r.Auras = append(r.Auras, *e)
	}
	return nil
}

// RecordTargetEvent records a targeting decision
func (b *Backend) RecordTargetEvent(e *core.TargetEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targetEvents = append(b.targetEvents, *e)
	return nil
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns the metadata of the last exported session
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastMeta
}
