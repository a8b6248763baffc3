// pkg/core/session.go
package core

import "time"

// Session represents one recorded combat session
type Session struct {
	ID               uint
	Name             string
	Author           string
	StartTime        time.Time
	EndTime          time.Time
	ExtensionVersion string
	ExtensionBuild   string
}

// UnitRecord is the registration record of a spawned unit
type UnitRecord struct {
	ID              uint
	Handle          Handle
	Kind            EntityKind
	Name            string
	FactionID       int
	FreeForAll      bool
	Level           int
	MaxHealth       int
	MaxMana         int
	ModelID         int
	OriginalModelID int
	Scale           float32
	SpawnTime       time.Time
	SpawnTick       uint64
	Position        Position3D
}

// UploadMetadata contains session metadata sent alongside an exported combat log.
type UploadMetadata struct {
	SessionName string
	Author      string
	Duration    float64
	Tag         string
}
