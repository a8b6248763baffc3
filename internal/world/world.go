// Package world owns every attached unit together with its aura and movement
// controllers and serialises all requests against them.
package world

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/unitcore/internal/attributes"
	"github.com/OCAP2/unitcore/internal/aura"
	"github.com/OCAP2/unitcore/internal/movement"
	"github.com/OCAP2/unitcore/internal/registry"
	"github.com/OCAP2/unitcore/internal/targeting"
	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
)

var (
	// ErrUnknownFaction is returned when a unit references a faction that was never registered.
	ErrUnknownFaction = errors.New("unknown faction")
	// ErrMovementBlocked is returned when a rooted or stunned unit is asked to move.
	ErrMovementBlocked = errors.New("movement blocked")
	// ErrActionBlocked is returned when a stunned or confused unit is asked to start an action.
	ErrActionBlocked = errors.New("action blocked")
	// ErrUnitDead is returned for requests a dead unit cannot perform.
	ErrUnitDead = errors.New("unit is dead")
)

// Listener receives unit transitions that happen as side effects of requests,
// such as auras expiring on tick or being stripped on death. Calls are made
// while the world lock is held; implementations must not call back into the world.
type Listener interface {
	AuraRemoved(u *unit.Unit, a aura.Aura, reason aura.RemoveReason)
	RootChanged(u *unit.Unit, applied bool)
	DeathStateChanged(u *unit.Unit, state core.DeathState)
}

// Config configures a World.
type Config struct {
	Targeting   targeting.Settings
	HistorySize int
	Factions    []*core.Faction
	Listener    Listener
	// Project converts incoming positions into world coordinates. Nil keeps them as is.
	Project func(core.Position3D) core.Position3D
}

// SpawnDef describes a unit to attach.
type SpawnDef struct {
	Handle     core.Handle
	Kind       core.EntityKind
	Name       string
	FactionID  int
	FreeForAll bool
	MaxHealth  int
	MaxMana    int
	Level      int
	ModelID    int
	Scale      float32
	Position   core.Position3D
}

type components struct {
	unit    *unit.Unit
	auras   *aura.Controller
	actions *movement.Controller
}

// World is the set of attached units. It is safe for concurrent use; every
// exported method runs to completion under a single lock.
type World struct {
	mu        sync.Mutex
	cfg       Config
	registry  *registry.Registry
	units     map[core.Handle]*components
	histories map[core.Handle]*targeting.History
	factions  map[int]*core.Faction
	ticks     registry.SafeCounter
	elapsed   time.Duration
}

// New creates an empty world.
func New(cfg Config) *World {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = targeting.DefaultHistorySize
	}
	w := &World{
		cfg:       cfg,
		registry:  registry.New(),
		units:     make(map[core.Handle]*components),
		histories: make(map[core.Handle]*targeting.History),
		factions:  make(map[int]*core.Faction),
	}
	for _, f := range cfg.Factions {
		w.factions[f.ID] = f
	}
	return w
}

// SetFaction registers or replaces a faction. Units already attached keep the
// faction pointer they were spawned with.
func (w *World) SetFaction(f *core.Faction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.factions[f.ID] = f
}

// SetListener replaces the listener given in Config.
func (w *World) SetListener(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.Listener = l
}

// Spawn attaches a new unit and its controllers.
func (w *World) Spawn(def SpawnDef) (*unit.Unit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var faction *core.Faction
	if def.FactionID != 0 {
		f, ok := w.factions[def.FactionID]
		if !ok {
			return nil, fmt.Errorf("spawn %s: %w %d", def.Handle, ErrUnknownFaction, def.FactionID)
		}
		faction = f
	}

	c := &components{
		auras:   aura.NewController(nil),
		actions: movement.NewController(),
	}
	c.unit = unit.New(unit.Config{
		Handle: def.Handle,
		Kind:   def.Kind,
		Name:   def.Name,
		Attributes: attributes.New(attributes.Definition{
			MaxHealth:  def.MaxHealth,
			MaxMana:    def.MaxMana,
			BaseMana:   def.MaxMana,
			Level:      def.Level,
			Faction:    faction,
			FreeForAll: def.FreeForAll,
			ModelID:    def.ModelID,
			Scale:      def.Scale,
		}),
		Auras:    c.auras,
		Actions:  c.actions,
		Observer: w,
		Position: w.project(def.Position),
	})
	c.auras.SetRemoveHandler(func(a aura.Aura, reason aura.RemoveReason) {
		w.onAuraRemoved(c.unit, a, reason)
	})

	if err := w.registry.Attach(c.unit); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", def.Handle, err)
	}
	w.units[def.Handle] = c
	return c.unit, nil
}

// Despawn detaches a unit and drops it from every targeting history.
func (w *World) Despawn(h core.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.registry.Detach(h); err != nil {
		return err
	}
	delete(w.units, h)
	delete(w.histories, h)
	for _, hist := range w.histories {
		hist.Forget(h)
	}
	return nil
}

// Unit returns the attached unit for h.
func (w *World) Unit(h core.Handle) (*unit.Unit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.lookup(h)
	if err != nil {
		return nil, err
	}
	return c.unit, nil
}

// Len returns the number of attached units.
func (w *World) Len() int {
	return w.registry.Len()
}

// TickCount returns how many ticks have run.
func (w *World) TickCount() uint64 {
	return w.ticks.Value()
}

// Elapsed returns the total simulated time advanced by Tick.
func (w *World) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed
}

// Reset detaches every unit and clears histories. Factions are kept.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.registry.Reset()
	w.units = make(map[core.Handle]*components)
	w.histories = make(map[core.Handle]*targeting.History)
	w.ticks.Set(0)
	w.elapsed = 0
}

func (w *World) lookup(h core.Handle) (*components, error) {
	if _, err := w.registry.Get(h); err != nil {
		return nil, fmt.Errorf("%s: %w", h, err)
	}
	c, ok := w.units[h]
	if !ok {
		return nil, fmt.Errorf("%s: %w", h, registry.ErrUnitNotFound)
	}
	return c, nil
}

func (w *World) project(p core.Position3D) core.Position3D {
	if w.cfg.Project == nil {
		return p
	}
	return w.cfg.Project(p)
}

// RootChanged implements unit.Observer.
func (w *World) RootChanged(u *unit.Unit, applied bool) {
	if w.cfg.Listener != nil {
		w.cfg.Listener.RootChanged(u, applied)
	}
}

// DeathStateChanged implements unit.Observer.
func (w *World) DeathStateChanged(u *unit.Unit, state core.DeathState) {
	if w.cfg.Listener != nil {
		w.cfg.Listener.DeathStateChanged(u, state)
	}
}
