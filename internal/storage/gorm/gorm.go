// Package gormstorage implements storage.Backend over any GORM database
// with internal queues and a background writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/unitcore/internal/database"
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/internal/model/convert"
	"github.com/OCAP2/unitcore/internal/queue"
	"github.com/OCAP2/unitcore/pkg/core"
	"gorm.io/gorm"
)

const (
	DefaultFlushInterval = time.Second
	DefaultBatchSize     = 5000
	// queueLimit bounds each write queue while the database is unreachable.
	queueLimit = 500_000
)

// ErrNoSession is returned by EndSession before StartSession.
var ErrNoSession = errors.New("no active session")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	Tag           string
	FlushInterval time.Duration
	BatchSize     int
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Units         *queue.Queue[model.Unit]
	DamageEvents  *queue.Queue[model.DamageEvent]
	HealEvents    *queue.Queue[model.HealEvent]
	KillEvents    *queue.Queue[model.KillEvent]
	ControlStates *queue.Queue[model.ControlStateEvent]
	AuraEvents    *queue.Queue[model.AuraEvent]
	TargetEvents  *queue.Queue[model.TargetEvent]
}

func newQueues() *queues {
	return &queues{
		Units:         queue.New[model.Unit](queueLimit),
		DamageEvents:  queue.New[model.DamageEvent](queueLimit),
		HealEvents:    queue.New[model.HealEvent](queueLimit),
		KillEvents:    queue.New[model.KillEvent](queueLimit),
		ControlStates: queue.New[model.ControlStateEvent](queueLimit),
		AuraEvents:    queue.New[model.AuraEvent](queueLimit),
		TargetEvents:  queue.New[model.TargetEvent](queueLimit),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	log       *slog.Logger
	queues    *queues
	sessionID atomic.Uint64

	flushMu       sync.Mutex
	lastWriteNano atomic.Int64

	stopChan chan struct{}
	wg       sync.WaitGroup
	closed   atomic.Bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps:   deps,
		log:    log,
		queues: newQueues(),
	}
}

// DB returns the underlying database handle.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database configured")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.startDBWriter()
	return nil
}

// Close stops the writer goroutine and flushes whatever is still queued.
func (b *Backend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if b.stopChan != nil {
		close(b.stopChan)
		b.wg.Wait()
	}
	return b.Flush()
}

// StartSession inserts the session row and assigns its ID to s.
func (b *Backend) StartSession(s *core.Session) error {
	row := convert.CoreToSession(*s, b.deps.Tag)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}
	s.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	return nil
}

// SetSessionID sets the current session ID for the writer.
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// SessionID returns the current session ID, 0 when none is active.
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// EndSession flushes the queues and stamps the session end time.
func (b *Backend) EndSession() error {
	id := b.SessionID()
	if id == 0 {
		return ErrNoSession
	}
	if err := b.Flush(); err != nil {
		return err
	}
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", id).
		Update("end_time", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to end session %d: %w", id, err)
	}
	b.sessionID.Store(0)
	return nil
}

// AddUnit converts a core unit record and pushes it to the write queue.
func (b *Backend) AddUnit(u *core.UnitRecord) error {
	b.queues.Units.Push(convert.CoreToUnit(*u, b.SessionID()))
	return nil
}

// RecordDamageEvent converts and queues a damage event.
func (b *Backend) RecordDamageEvent(e *core.DamageEvent) error {
	row := convert.CoreToDamageEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.DamageEvents.Push(row)
	return nil
}

// RecordHealEvent converts and queues a heal event.
func (b *Backend) RecordHealEvent(e *core.HealEvent) error {
	row := convert.CoreToHealEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.HealEvents.Push(row)
	return nil
}

// RecordKillEvent converts and queues a kill event.
func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	row := convert.CoreToKillEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.KillEvents.Push(row)
	return nil
}

// RecordControlStateEvent converts and queues a control-state event.
func (b *Backend) RecordControlStateEvent(e *core.ControlStateEvent) error {
	row := convert.CoreToControlStateEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.ControlStates.Push(row)
	return nil
}

// RecordAuraEvent converts and queues an aura event.
func (b *Backend) RecordAuraEvent(e *core.AuraEvent) error {
	row := convert.CoreToAuraEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.AuraEvents.Push(row)
	return nil
}

// RecordTargetEvent converts and queues a targeting event.
func (b *Backend) RecordTargetEvent(e *core.TargetEvent) error {
	row := convert.CoreToTargetEvent(*e)
	row.SessionID = b.SessionID()
	b.queues.TargetEvents.Push(row)
	return nil
}

// RecordPerformance inserts a status sample directly.
func (b *Backend) RecordPerformance(p *model.Performance) error {
	if p.SessionID == 0 {
		p.SessionID = b.SessionID()
	}
	if p.SessionID == 0 {
		return ErrNoSession
	}
	if err := b.deps.DB.Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert performance: %w", err)
	}
	return nil
}

// QueueLengths reports the pending rows per queue.
func (b *Backend) QueueLengths() model.WriteQueueLengths {
	return model.WriteQueueLengths{
		Units:         uint32(b.queues.Units.Len()),
		DamageEvents:  uint32(b.queues.DamageEvents.Len()),
		HealEvents:    uint32(b.queues.HealEvents.Len()),
		KillEvents:    uint32(b.queues.KillEvents.Len()),
		ControlStates: uint32(b.queues.ControlStates.Len()),
		AuraEvents:    uint32(b.queues.AuraEvents.Len()),
		TargetEvents:  uint32(b.queues.TargetEvents.Len()),
	}
}

// GetLastDBWriteDuration returns how long the last flush took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// Flush writes every queue to the database. Failed batches go back to their queue.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	start := time.Now()
	db, size := b.deps.DB, b.deps.BatchSize
	err := errors.Join(
		writeQueue(db, b.queues.Units, size),
		writeQueue(db, b.queues.DamageEvents, size),
		writeQueue(db, b.queues.HealEvents, size),
		writeQueue(db, b.queues.KillEvents, size),
		writeQueue(db, b.queues.ControlStates, size),
		writeQueue(db, b.queues.AuraEvents, size),
		writeQueue(db, b.queues.TargetEvents, size),
	)
	b.lastWriteNano.Store(int64(time.Since(start)))
	return err
}

// writeQueue writes items from a queue to the database in batched transactions.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batchSize int) error {
	for !q.Empty() {
		items := q.Drain(batchSize)
		if len(items) == 0 {
			return nil
		}

		tx := db.Begin()
		if err := tx.Create(&items).Error; err != nil {
			tx.Rollback()
			q.Requeue(items...)
			return fmt.Errorf("error creating %T: %w", items[0], err)
		}
		if err := tx.Commit().Error; err != nil {
			q.Requeue(items...)
			return fmt.Errorf("error committing %T: %w", items[0], err)
		}
	}
	return nil
}

// startDBWriter starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriter() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
			}

			// rows written before StartSession would have no owner
			if b.SessionID() == 0 {
				continue
			}
			if err := b.Flush(); err != nil {
				b.log.Error("DB write failed", "error", err)
			}
		}
	}()
}
