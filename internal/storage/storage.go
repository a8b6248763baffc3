package storage

import (
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (StartSession assigns the ID to the passed pointer)
	StartSession(s *core.Session) error
	EndSession() error

	// Unit registration
	AddUnit(u *core.UnitRecord) error

	// Event recording
	RecordDamageEvent(e *core.DamageEvent) error
	RecordHealEvent(e *core.HealEvent) error
	RecordKillEvent(e *core.KillEvent) error
	RecordControlStateEvent(e *core.ControlStateEvent) error
	RecordAuraEvent(e *core.AuraEvent) error
	RecordTargetEvent(e *core.TargetEvent) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// QueueReporter is implemented by backends that batch writes, for the status monitor.
type QueueReporter interface {
	QueueLengths() model.WriteQueueLengths
}
