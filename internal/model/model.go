package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Info{},
	&Session{},
	&Unit{},
	&DamageEvent{},
	&HealEvent{},
	&KillEvent{},
	&ControlStateEvent{},
	&AuraEvent{},
	&TargetEvent{},
	&Performance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// Info contains group information about the instance
type Info struct {
	gorm.Model
	GroupName        string `json:"groupName" gorm:"size:127"`
	GroupDescription string `json:"groupDescription" gorm:"size:255"`
	GroupWebsite     string `json:"groupURL" gorm:"size:255"`
}

func (*Info) TableName() string {
	return "unitcore_infos"
}

// Performance is a periodic sample of the writer's health
type Performance struct {
	ID                  uint              `json:"id" gorm:"primarykey;autoIncrement;"`
	Time                time.Time         `json:"time" gorm:"type:timestamptz;index:idx_performance_time"`
	SessionID           uint              `json:"sessionId" gorm:"index:idx_performance_session_id"`
	Session             Session           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Units               uint32            `json:"units"`
	Tick                uint64            `json:"tick"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*Performance) TableName() string {
	return "performances"
}

// WriteQueueLengths is the number of rows waiting per table
type WriteQueueLengths struct {
	Units         uint32 `json:"units"`
	DamageEvents  uint32 `json:"damageEvents"`
	HealEvents    uint32 `json:"healEvents"`
	KillEvents    uint32 `json:"killEvents"`
	ControlStates uint32 `json:"controlStates"`
	AuraEvents    uint32 `json:"auraEvents"`
	TargetEvents  uint32 `json:"targetEvents"`
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Session is one recorded combat session
type Session struct {
	gorm.Model
	Name             string       `json:"name" gorm:"size:200"`
	Author           string       `json:"author" gorm:"size:200"`
	StartTime        time.Time    `json:"sessionStart" gorm:"type:timestamptz;index:idx_session_start"`
	EndTime          sql.NullTime `json:"sessionEnd" gorm:"type:timestamptz;default:NULL"`
	ExtensionVersion string       `json:"extensionVersion" gorm:"size:64"`
	ExtensionBuild   string       `json:"extensionBuild" gorm:"size:64"`
	Tag              string       `json:"tag" gorm:"size:127"`

	Units        []Unit
	DamageEvents []DamageEvent
	HealEvents   []HealEvent
	KillEvents   []KillEvent
}

func (*Session) TableName() string {
	return "sessions"
}

// Unit is a spawned player or creature
// Uses composite primary key (SessionID, Handle)
//
// Command: :NEW:UNIT:
// Args: [handle, kind, name, factionId, maxHealth, maxMana, level, position, modelId, freeForAll, scale]
type Unit struct {
	SessionID       uint       `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	Handle          uint32     `json:"handle" gorm:"primaryKey;autoIncrement:false"`
	Session         Session    `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SpawnTime       time.Time  `json:"spawnTime" gorm:"type:timestamptz;NOT NULL;index:idx_unit_spawn_time"`
	SpawnTick       uint64     `json:"spawnTick"`
	Kind            string     `json:"kind" gorm:"size:16"`
	Name            string     `json:"name" gorm:"size:64"`
	FactionID       int        `json:"factionId" gorm:"index:idx_unit_faction_id"`
	FreeForAll      bool       `json:"freeForAll" gorm:"default:false"`
	Level           int        `json:"level"`
	MaxHealth       int        `json:"maxHealth"`
	MaxMana         int        `json:"maxMana"`
	ModelID         int        `json:"modelId"`
	OriginalModelID int        `json:"originalModelId"`
	Scale           float32    `json:"scale" gorm:"default:1"`
	Position        geom.Point `json:"position"` // spawn position
}

func (*Unit) TableName() string {
	return "units"
}

// DamageEvent is damage dealt by one unit to another
//
// Command: :DAMAGE:
// Args: [attackerHandle, victimHandle, amount]
type DamageEvent struct {
	ID             uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time           time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID      uint      `json:"sessionId" gorm:"index:idx_damageevent_session_id"`
	Session        Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick           uint64    `json:"tick" gorm:"index:idx_damageevent_tick"`
	AttackerHandle uint32    `json:"attacker" gorm:"index:idx_damageevent_attacker"`
	VictimHandle   uint32    `json:"victim" gorm:"index:idx_damageevent_victim"`
	Requested      int       `json:"requested"`
	Amount         int       `json:"amount"` // applied, capped at the victim's health
	Killing        bool      `json:"killing" gorm:"default:false"`
	Distance       float32   `json:"distance"`
}

func (*DamageEvent) TableName() string {
	return "damage_events"
}

// HealEvent is healing done by one unit to another
//
// Command: :HEAL:
// Args: [casterHandle, targetHandle, amount]
type HealEvent struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID    uint      `json:"sessionId" gorm:"index:idx_healevent_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick         uint64    `json:"tick" gorm:"index:idx_healevent_tick"`
	CasterHandle uint32    `json:"caster" gorm:"index:idx_healevent_caster"`
	TargetHandle uint32    `json:"target" gorm:"index:idx_healevent_target"`
	Requested    int       `json:"requested"`
	Amount       int       `json:"amount"` // applied, capped at missing health
}

func (*HealEvent) TableName() string {
	return "heal_events"
}

// KillEvent is a unit transitioning to dead
//
// Command: :KILL: (or a killing blow from :DAMAGE:)
// Args: [killerHandle, victimHandle]
type KillEvent struct {
	ID   uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time time.Time `json:"time" gorm:"type:timestamptz;"`

	SessionID uint    `json:"sessionId" gorm:"index:idx_killevent_session_id"`
	Session   Session `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick      uint64  `json:"tick" gorm:"index:idx_killevent_tick;"`

	KillerHandle   sql.NullInt64 `json:"killer" gorm:"index:idx_killevent_killer;default:NULL"` // NULL when the death had no unit source
	VictimHandle   uint32        `json:"victim" gorm:"index:idx_killevent_victim"`
	VictimPosition geom.Point    `json:"victimPosition"`
	Distance       float32       `json:"distance"`
}

func (*KillEvent) TableName() string {
	return "kill_events"
}

// ControlStateEvent is one control-state request and its reconciled result
//
// Command: :CONTROL:
// Args: [handle, state, applied]
type ControlStateEvent struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID  uint      `json:"sessionId" gorm:"index:idx_controlstate_session_id"`
	Session    Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick       uint64    `json:"tick"`
	UnitHandle uint32    `json:"unit" gorm:"index:idx_controlstate_unit"`
	State      string    `json:"state" gorm:"size:16"`
	Applied    bool      `json:"applied"`
	Active     string    `json:"active" gorm:"size:64"` // state bitset after reconciliation
	Changed    bool      `json:"changed"`
}

func (*ControlStateEvent) TableName() string {
	return "control_state_events"
}

// AuraEvent is an aura being applied, removed or expiring
type AuraEvent struct {
	ID                  uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time                time.Time      `json:"time" gorm:"type:timestamptz;"`
	SessionID           uint           `json:"sessionId" gorm:"index:idx_auraevent_session_id"`
	Session             Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick                uint64         `json:"tick"`
	UnitHandle          uint32         `json:"unit" gorm:"index:idx_auraevent_unit"`
	AuraID              uint32         `json:"auraId"`
	SpellID             int            `json:"spellId"`
	Effects             datatypes.JSON `json:"effects" gorm:"type:jsonb;default:'[]'"` // effect names
	Action              string         `json:"action" gorm:"size:16"`
	PersistThroughDeath bool           `json:"persistThroughDeath" gorm:"default:false"`
}

func (*AuraEvent) TableName() string {
	return "aura_events"
}

// TargetEvent is one auto-target selection
//
// Command: :TARGET:
// Args: [refererHandle, entityTypes, relation, skipDead]
type TargetEvent struct {
	ID             uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time           time.Time      `json:"time" gorm:"type:timestamptz;"`
	SessionID      uint           `json:"sessionId" gorm:"index:idx_targetevent_session_id"`
	Session        Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick           uint64         `json:"tick"`
	RefererHandle  uint32         `json:"referer" gorm:"index:idx_targetevent_referer"`
	SelectedHandle sql.NullInt64  `json:"selected" gorm:"default:NULL"` // NULL when nothing qualified
	EntityTypes    uint8          `json:"entityTypes"`
	Candidates     int            `json:"candidates"`
	History        datatypes.JSON `json:"history" gorm:"type:jsonb;default:'[]'"` // most recent first
}

func (*TargetEvent) TableName() string {
	return "target_events"
}
