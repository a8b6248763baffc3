package world

import (
	"math"

	"github.com/OCAP2/unitcore/internal/movement"
	"github.com/OCAP2/unitcore/pkg/core"
)

// DamageResult is the outcome of one damage request.
type DamageResult struct {
	Requested int
	Amount    int
	Killed    bool
	Distance  float64
	Position  core.Position3D
}

// HealResult is the outcome of one heal request.
type HealResult struct {
	Requested int
	Amount    int
}

// KillResult is the outcome of one kill request.
type KillResult struct {
	Killed   bool
	Distance float64
	Position core.Position3D
}

// ControlResult is the outcome of one control-state request.
type ControlResult struct {
	Active  core.ControlState
	Changed bool
}

// MoveResult is the outcome of one move request.
type MoveResult struct {
	Position core.Position3D
	Moving   bool
}

// scaled applies a percentage aura modifier to amount.
func scaled(amount int, multiplier float64) int {
	if multiplier == 1 {
		return amount
	}
	return int(math.Round(float64(amount) * multiplier))
}

// Damage deals amount from attacker to target, scaled by the attacker's
// damage-done auras.
func (w *World) Damage(attacker, target core.Handle, amount int) (DamageResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, err := w.lookup(attacker)
	if err != nil {
		return DamageResult{}, err
	}
	t, err := w.lookup(target)
	if err != nil {
		return DamageResult{}, err
	}

	wasAlive := t.unit.IsAlive()
	res := DamageResult{
		Requested: amount,
		Distance:  math.Sqrt(a.unit.DistanceSqr(t.unit)),
		Position:  t.unit.Position(),
	}
	if amount > 0 {
		amount = scaled(amount, a.auras.TotalAuraMultiplier(core.AuraModDamageDone))
	}
	res.Amount = a.unit.DealDamage(t.unit, amount)
	res.Killed = wasAlive && t.unit.IsDead()
	if res.Amount > 0 {
		a.unit.SetFlag(core.UnitFlagInCombat)
		t.unit.SetFlag(core.UnitFlagInCombat)
	}
	return res, nil
}

// Heal heals target by amount, scaled by the caster's healing-done auras.
func (w *World) Heal(caster, target core.Handle, amount int) (HealResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(caster)
	if err != nil {
		return HealResult{}, err
	}
	t, err := w.lookup(target)
	if err != nil {
		return HealResult{}, err
	}

	res := HealResult{Requested: amount}
	if t.unit.IsDead() {
		return res, nil
	}
	if amount > 0 {
		amount = scaled(amount, c.auras.TotalAuraMultiplier(core.AuraModHealingDone))
	}
	res.Amount = c.unit.DealHeal(t.unit, amount)
	return res, nil
}

// Kill kills victim. A zero killer means the death had no unit source.
func (w *World) Kill(killer, victim core.Handle) (KillResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, err := w.lookup(victim)
	if err != nil {
		return KillResult{}, err
	}
	source := v
	if killer != 0 {
		if source, err = w.lookup(killer); err != nil {
			return KillResult{}, err
		}
	}

	res := KillResult{
		Distance: math.Sqrt(source.unit.DistanceSqr(v.unit)),
		Position: v.unit.Position(),
	}
	wasAlive := v.unit.IsAlive()
	source.unit.Kill(v.unit)
	res.Killed = wasAlive && v.unit.IsDead()
	return res, nil
}

// Revive brings a dead unit back at the given health.
func (w *World) Revive(h core.Handle, health int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return err
	}
	if c.unit.IsAlive() {
		return nil
	}
	c.unit.ModifyDeathState(core.Alive)
	c.unit.ModifyHealth(max(health, 1))
	return nil
}

// RequestState applies or clears a control state on a unit.
func (w *World) RequestState(h core.Handle, state core.ControlState, applied bool) (ControlResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return ControlResult{}, err
	}
	before := c.unit.ControlState()
	c.unit.RequestStateChange(state, applied)
	after := c.unit.ControlState()
	return ControlResult{Active: after, Changed: before != after}, nil
}

// Move sets a unit's position. A move to a different position marks the unit
// moving; a move to the same position stops it.
func (w *World) Move(h core.Handle, pos core.Position3D) (MoveResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return MoveResult{}, err
	}

	pos = w.project(pos)
	moving := pos != c.unit.Position()
	if moving && c.unit.IsMovementBlocked() {
		return MoveResult{Position: c.unit.Position()}, ErrMovementBlocked
	}
	if moving && c.unit.IsDead() {
		return MoveResult{Position: c.unit.Position()}, ErrUnitDead
	}

	c.unit.SetPosition(pos)
	c.actions.SetMovementFlag(core.MovementFlagForward, moving)
	c.unit.RequestStateChange(core.StateMoving, moving)
	return MoveResult{Position: pos, Moving: moving}, nil
}

// StartCast begins an action on a unit. Stunned, confused and dead units cannot act.
func (w *World) StartCast(h core.Handle, spellID int, target core.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return err
	}
	if c.unit.IsDead() {
		return ErrUnitDead
	}
	if c.unit.HasState(core.StateStunned | core.StateConfused) {
		return ErrActionBlocked
	}
	c.actions.StartAction(movement.Action{SpellID: spellID, Target: target})
	return nil
}
