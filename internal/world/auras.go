package world

import (
	"time"

	"github.com/OCAP2/unitcore/internal/aura"
	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
)

// TickResult is the outcome of one world tick.
type TickResult struct {
	Tick    uint64
	Expired int
}

// ApplyAura applies an aura and requests every control state it carries.
func (w *World) ApplyAura(h core.Handle, a aura.Aura) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return err
	}
	if c.unit.IsDead() && !a.PersistThroughDeath {
		return ErrUnitDead
	}

	c.auras.Apply(a)
	for _, effect := range a.Effects {
		if state, ok := effect.ControlState(); ok {
			c.unit.RequestStateChange(state, true)
		}
		if effect == core.AuraChangeDisplayModel {
			c.unit.UpdateTransformModel(a.SpellID, int(a.Modifier))
		}
	}
	return nil
}

// RemoveAura removes an aura by id. The removal handler releases its control states.
func (w *World) RemoveAura(h core.Handle, id uint32) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return false, err
	}
	return c.auras.Remove(id), nil
}

// Auras returns the auras applied to a unit.
func (w *World) Auras(h core.Handle) ([]aura.Aura, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return nil, err
	}
	return c.auras.Auras(), nil
}

// Tick advances every unit's auras by delta. Expired auras release their
// control states through the removal handler.
func (w *World) Tick(delta time.Duration) TickResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := TickResult{Tick: w.ticks.Inc()}
	if delta <= 0 {
		return res
	}
	w.elapsed += delta

	for u := range w.registry.All() {
		c, ok := w.units[u.Handle()]
		if !ok {
			continue
		}
		res.Expired += len(c.auras.Tick(delta))
	}
	return res
}

// onAuraRemoved runs with the world lock held, after the aura left the controller.
// A refresh releases the replaced aura's states too: the replacement is already
// applied, so RequestStateChange keeps every state it still carries.
func (w *World) onAuraRemoved(u *unit.Unit, a aura.Aura, reason aura.RemoveReason) {
	if u.IsValid() {
		for _, effect := range a.Effects {
			if state, ok := effect.ControlState(); ok {
				u.RequestStateChange(state, false)
			}
			if effect == core.AuraChangeDisplayModel && u.TransformSpellID() == a.SpellID {
				u.ResetTransformModel()
			}
		}
	}

	if w.cfg.Listener != nil {
		w.cfg.Listener.AuraRemoved(u, a, reason)
	}
}
