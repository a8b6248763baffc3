// Package unit implements the combat and control-state core of a game unit.
//
// A Unit is not safe for concurrent use. The owning world serialises every
// call on a unit, so a request always runs to completion before the next one.
package unit

import (
	"github.com/OCAP2/unitcore/internal/attributes"
	"github.com/OCAP2/unitcore/pkg/core"
)

// AuraQuery answers persistent-effect questions about the unit.
type AuraQuery interface {
	HasAuraType(t core.AuraType) bool
	TotalAuraModifier(t core.AuraType) float64
	RemoveNonDeathPersistentAuras()
}

// ActionController performs the movement and action side effects of state changes.
type ActionController interface {
	IsCasting() bool
	CancelCurrentAction()
	StopAllMovement()
	SetMovementFlag(flag core.MovementFlags, applied bool)
	SetFreeMovementControl(enabled bool)
}

// Observer is notified of unit transitions. All methods are called synchronously.
type Observer interface {
	RootChanged(u *Unit, applied bool)
	DeathStateChanged(u *Unit, state core.DeathState)
}

// Config holds the collaborators and identity of a new unit.
type Config struct {
	Handle     core.Handle
	Kind       core.EntityKind
	Name       string
	Attributes *attributes.Store
	Auras      AuraQuery
	Actions    ActionController
	Observer   Observer
	Position   core.Position3D
}

// Unit is a player or creature taking part in combat.
type Unit struct {
	handle core.Handle
	kind   core.EntityKind
	name   string
	valid  bool

	attrs    *attributes.Store
	auras    AuraQuery
	actions  ActionController
	observer Observer

	controlState core.ControlState
	unitFlags    core.UnitFlags
	position     core.Position3D

	transformSpellID int
}

// New creates an attached unit. Missing collaborators are replaced with no-op ones.
func New(cfg Config) *Unit {
	if cfg.Attributes == nil {
		cfg.Attributes = attributes.New(attributes.Definition{})
	}
	if cfg.Auras == nil {
		cfg.Auras = noAuras{}
	}
	if cfg.Actions == nil {
		cfg.Actions = noActions{}
	}
	return &Unit{
		handle:   cfg.Handle,
		kind:     cfg.Kind,
		name:     cfg.Name,
		valid:    true,
		attrs:    cfg.Attributes,
		auras:    cfg.Auras,
		actions:  cfg.Actions,
		observer: cfg.Observer,
		position: cfg.Position,
	}
}

func (u *Unit) Handle() core.Handle           { return u.handle }
func (u *Unit) Kind() core.EntityKind         { return u.kind }
func (u *Unit) Name() string                  { return u.name }
func (u *Unit) Attributes() *attributes.Store { return u.attrs }

// IsValid reports whether the unit is still attached to the world.
func (u *Unit) IsValid() bool { return u.valid }

// Detach invalidates the unit and resets its transient state.
func (u *Unit) Detach() {
	u.valid = false
	u.controlState = 0
	u.unitFlags = 0
	u.transformSpellID = 0
}

func (u *Unit) IsControlledByPlayer() bool { return u.kind == core.KindPlayer }

func (u *Unit) Health() int    { return u.attrs.Health() }
func (u *Unit) MaxHealth() int { return u.attrs.MaxHealth() }
func (u *Unit) Mana() int      { return u.attrs.Mana() }
func (u *Unit) MaxMana() int   { return u.attrs.MaxMana() }
func (u *Unit) BaseMana() int  { return u.attrs.BaseMana() }
func (u *Unit) Level() int     { return u.attrs.Level() }
func (u *Unit) Scale() float32 { return u.attrs.Scale() }

func (u *Unit) Faction() *core.Faction      { return u.attrs.Faction() }
func (u *Unit) FreeForAll() bool            { return u.attrs.FreeForAll() }
func (u *Unit) ModelID() int                { return u.attrs.ModelID() }
func (u *Unit) OriginalModelID() int        { return u.attrs.OriginalModelID() }
func (u *Unit) TransformSpellID() int       { return u.transformSpellID }
func (u *Unit) DeathState() core.DeathState { return u.attrs.DeathState() }
func (u *Unit) IsAlive() bool               { return u.attrs.DeathState() == core.Alive }
func (u *Unit) IsDead() bool                { return u.attrs.DeathState() == core.Dead }

// HealthRatio returns health as a fraction of max health, 0 when max health is 0.
func (u *Unit) HealthRatio() float32 {
	if u.MaxHealth() <= 0 {
		return 0
	}
	return float32(u.Health()) / float32(u.MaxHealth())
}

func percentOf(value, percent int) int {
	return value * percent / 100
}

func (u *Unit) HealthBelowPercent(percent int) bool {
	return u.Health() < percentOf(u.MaxHealth(), percent)
}

func (u *Unit) HealthAbovePercent(percent int) bool {
	return u.Health() > percentOf(u.MaxHealth(), percent)
}

func (u *Unit) HealthAbovePercentHealed(percent, healAmount int) bool {
	return u.Health()+healAmount > percentOf(u.MaxHealth(), percent)
}

func (u *Unit) HealthBelowPercentDamaged(percent, damageAmount int) bool {
	return u.Health()-damageAmount < percentOf(u.MaxHealth(), percent)
}

// Position returns the last known position.
func (u *Unit) Position() core.Position3D { return u.position }

// SetPosition moves the unit.
func (u *Unit) SetPosition(p core.Position3D) { u.position = p }

// DistanceSqr returns the squared distance to other.
func (u *Unit) DistanceSqr(other *Unit) float64 {
	return u.position.DistanceSqr(other.position)
}

// InRangeSqr reports whether other lies within the squared range (inclusive).
func (u *Unit) InRangeSqr(other *Unit, rangeSqr float64) bool {
	return u.DistanceSqr(other) <= rangeSqr
}

// IsHostileTo reports whether u treats other as an enemy.
func (u *Unit) IsHostileTo(other *Unit) bool {
	if other == u {
		return false
	}
	if other.FreeForAll() && u.FreeForAll() {
		return true
	}
	return u.Faction().IsHostileTo(other.Faction())
}

// IsFriendlyTo reports whether u treats other as an ally.
func (u *Unit) IsFriendlyTo(other *Unit) bool {
	if other == u {
		return true
	}
	if other.FreeForAll() && u.FreeForAll() {
		return false
	}
	return u.Faction().IsFriendlyTo(other.Faction())
}

// TotalAuraModifier forwards to the aura query.
func (u *Unit) TotalAuraModifier(t core.AuraType) float64 {
	return u.auras.TotalAuraModifier(t)
}

// UpdateTransformModel switches the displayed model for a transform spell.
func (u *Unit) UpdateTransformModel(spellID, modelID int) {
	u.transformSpellID = spellID
	u.attrs.SetModelID(modelID)
}

// ResetTransformModel restores the original model.
func (u *Unit) ResetTransformModel() {
	u.transformSpellID = 0
	u.attrs.SetModelID(u.attrs.OriginalModelID())
}

func (u *Unit) SetFlag(flag core.UnitFlags)    { u.unitFlags |= flag }
func (u *Unit) RemoveFlag(flag core.UnitFlags) { u.unitFlags &^= flag }

// HasFlag reports whether every bit of flag is set.
func (u *Unit) HasFlag(flag core.UnitFlags) bool { return u.unitFlags&flag == flag }

// Flags returns the unit flags bitset.
func (u *Unit) Flags() core.UnitFlags { return u.unitFlags }

type noAuras struct{}

func (noAuras) HasAuraType(core.AuraType) bool          { return false }
func (noAuras) TotalAuraModifier(core.AuraType) float64 { return 0 }
func (noAuras) RemoveNonDeathPersistentAuras()          {}

type noActions struct{}

func (noActions) IsCasting() bool                          { return false }
func (noActions) CancelCurrentAction()                     {}
func (noActions) StopAllMovement()                         {}
func (noActions) SetMovementFlag(core.MovementFlags, bool) {}
func (noActions) SetFreeMovementControl(bool)              {}
