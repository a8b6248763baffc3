// pkg/core/events.go
package core

import (
	"time"
)

// DamageEvent represents damage dealt by one unit to another.
// Amount is the damage actually applied, capped at the victim's remaining health.
type DamageEvent struct {
	ID        uint
	SessionID uint
	Time      time.Time
	Tick      uint64
	Attacker  Handle
	Victim    Handle
	Requested int
	Amount    int
	Killing   bool
	Distance  float32
}

// HealEvent represents healing done by one unit to another
type HealEvent struct {
	ID        uint
	SessionID uint
	Time      time.Time
	Tick      uint64
	Caster    Handle
	Target    Handle
	Requested int
	Amount    int
}

// KillEvent represents a unit transitioning to Dead
type KillEvent struct {
	ID             uint
	SessionID      uint
	Time           time.Time
	Tick           uint64
	Killer         Handle // zero when the death had no unit source
	Victim         Handle
	VictimPosition Position3D
	Distance       float32
}

// ControlStateEvent records the result of one control-state request.
// Active is the state bitset after reconciliation.
type ControlStateEvent struct {
	ID        uint
	SessionID uint
	Time      time.Time
	Tick      uint64
	Unit      Handle
	State     ControlState
	Applied   bool
	Active    ControlState
	Changed   bool
}

// AuraEvent records an aura being applied, removed or expiring
type AuraEvent struct {
	ID                  uint
	SessionID           uint
	Time                time.Time
	Tick                uint64
	Unit                Handle
	AuraID              uint32
	SpellID             int
	Effects             []AuraType
	Action              string // "applied", "removed", "expired", "death"
	PersistThroughDeath bool
}

// TargetEvent records one auto-target selection
type TargetEvent struct {
	ID          uint
	SessionID   uint
	Time        time.Time
	Tick        uint64
	Referer     Handle
	Selected    Handle // zero when no candidate qualified
	EntityTypes TargetingEntityType
	Candidates  int
	History     []Handle
}
