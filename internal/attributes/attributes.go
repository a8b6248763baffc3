// Package attributes holds the scalar attributes backing one unit.
package attributes

import "github.com/OCAP2/unitcore/pkg/core"

// Mana carries the current and base mana values
type Mana struct {
	Base  int
	Value int
}

// Store holds the scalar attributes of a single unit. One Store backs exactly one unit.
type Store struct {
	health     int
	maxHealth  int
	mana       Mana
	maxMana    int
	level      int
	spellPower int

	faction         *core.Faction
	freeForAll      bool
	modelID         int
	originalModelID int
	scale           float32
	deathState      core.DeathState
}

// Definition describes the initial attributes of a store
type Definition struct {
	MaxHealth       int
	MaxMana         int
	BaseMana        int
	Level           int
	SpellPower      int
	Faction         *core.Faction
	FreeForAll      bool
	ModelID         int
	OriginalModelID int
	Scale           float32
	DeathState      core.DeathState
}

// New creates a store at full health and mana. A dead definition starts at zero health.
func New(def Definition) *Store {
	if def.MaxHealth < 0 {
		def.MaxHealth = 0
	}
	if def.Scale == 0 {
		def.Scale = 1.0
	}
	if def.OriginalModelID == 0 {
		def.OriginalModelID = def.ModelID
	}
	s := &Store{
		health:          def.MaxHealth,
		maxHealth:       def.MaxHealth,
		mana:            Mana{Base: def.BaseMana, Value: def.MaxMana},
		maxMana:         def.MaxMana,
		level:           def.Level,
		spellPower:      def.SpellPower,
		faction:         def.Faction,
		freeForAll:      def.FreeForAll,
		modelID:         def.ModelID,
		originalModelID: def.OriginalModelID,
		scale:           def.Scale,
		deathState:      def.DeathState,
	}
	if def.DeathState == core.Dead {
		s.health = 0
	}
	return s
}

// Health returns the current health
func (s *Store) Health() int { return s.health }

// MaxHealth returns the maximum health
func (s *Store) MaxHealth() int { return s.maxHealth }

// SetHealth stores value clamped to [0, MaxHealth] and returns the signed change applied.
func (s *Store) SetHealth(value int) int {
	if value < 0 {
		value = 0
	}
	if value > s.maxHealth {
		value = s.maxHealth
	}
	delta := value - s.health
	s.health = value
	return delta
}

// SetMaxHealth changes the maximum health, lowering current health if it no longer fits.
func (s *Store) SetMaxHealth(value int) {
	if value < 0 {
		value = 0
	}
	s.maxHealth = value
	if s.health > value {
		s.health = value
	}
}

// Mana returns the current mana
func (s *Store) Mana() int { return s.mana.Value }

// BaseMana returns the base mana
func (s *Store) BaseMana() int { return s.mana.Base }

// MaxMana returns the maximum mana
func (s *Store) MaxMana() int { return s.maxMana }

// SetMana stores value clamped to [0, MaxMana] and returns the signed change applied.
func (s *Store) SetMana(value int) int {
	value = max(0, min(value, s.maxMana))
	delta := value - s.mana.Value
	s.mana.Value = value
	return delta
}

func (s *Store) Level() int      { return s.level }
func (s *Store) SpellPower() int { return s.spellPower }

// Faction returns the unit's faction definition
func (s *Store) Faction() *core.Faction { return s.faction }

// SetFaction replaces the unit's faction
func (s *Store) SetFaction(f *core.Faction) { s.faction = f }

func (s *Store) FreeForAll() bool            { return s.freeForAll }
func (s *Store) SetFreeForAll(v bool)        { s.freeForAll = v }
func (s *Store) ModelID() int                { return s.modelID }
func (s *Store) SetModelID(id int)           { s.modelID = id }
func (s *Store) OriginalModelID() int        { return s.originalModelID }
func (s *Store) Scale() float32              { return s.scale }
func (s *Store) SetScale(v float32)          { s.scale = v }
func (s *Store) DeathState() core.DeathState { return s.deathState }

// SetDeathState stores the death state without any side effects
func (s *Store) SetDeathState(d core.DeathState) { s.deathState = d }
