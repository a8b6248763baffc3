package unit

import "github.com/OCAP2/unitcore/pkg/core"

// HasState reports whether any bit of state is active.
func (u *Unit) HasState(state core.ControlState) bool { return u.controlState&state != 0 }

// ControlState returns the active control-state bitset.
func (u *Unit) ControlState() core.ControlState { return u.controlState }

func (u *Unit) addState(state core.ControlState)    { u.controlState |= state }
func (u *Unit) removeState(state core.ControlState) { u.controlState &^= state }

// IsMovementBlocked reports whether the unit is rooted or stunned.
func (u *Unit) IsMovementBlocked() bool {
	return u.HasState(core.StateRoot) || u.HasState(core.StateStunned)
}

// IsStopped reports whether the unit is not moving.
func (u *Unit) IsStopped() bool { return !u.HasState(core.StateMoving) }

// RequestStateChange applies or clears a control state and reconciles it with
// the persistent effects on the unit. Requests matching the current status are
// ignored.
//
// The request is applied first and persistent effects are re-derived second, so
// an aura active at the time of a clear request always keeps its state.
func (u *Unit) RequestStateChange(state core.ControlState, applied bool) {
	if applied == u.HasState(state) {
		return
	}

	if applied {
		switch state {
		case core.StateStunned:
			u.updateStunState(true)
		case core.StateRoot:
			if !u.HasState(core.StateStunned) {
				u.updateRootState(true)
			}
		case core.StateConfused:
			if !u.HasState(core.StateStunned) {
				u.actions.CancelCurrentAction()
				u.updateConfusionState(true)
			}
		}
		u.addState(state)
	} else {
		switch state {
		case core.StateStunned:
			if !u.auras.HasAuraType(core.AuraStunState) {
				u.updateStunState(false)
				u.removeState(state)
			}
		case core.StateRoot:
			if !u.auras.HasAuraType(core.AuraRootState) && !u.HasState(core.StateStunned) {
				u.updateRootState(false)
				u.removeState(state)
			}
		case core.StateConfused:
			if !u.auras.HasAuraType(core.AuraConfusionState) {
				u.updateConfusionState(false)
				u.removeState(state)
			}
		default:
			u.removeState(state)
		}
	}

	if u.auras.HasAuraType(core.AuraStunState) {
		if !u.HasState(core.StateStunned) {
			u.updateStunState(true)
			u.addState(core.StateStunned)
		}
	} else {
		if !u.HasState(core.StateRoot) && u.auras.HasAuraType(core.AuraRootState) {
			u.updateRootState(true)
			u.addState(core.StateRoot)
		}
		if !u.HasState(core.StateConfused) && u.auras.HasAuraType(core.AuraConfusionState) {
			u.updateConfusionState(true)
			u.addState(core.StateConfused)
		}
	}
}

func (u *Unit) stopMoving() {
	u.actions.SetMovementFlag(core.MovementMaskMoving, false)
	u.actions.StopAllMovement()
}

func (u *Unit) updateStunState(applied bool) {
	if applied {
		u.actions.CancelCurrentAction()
		u.stopMoving()
		u.SetFlag(core.UnitFlagStunned)
		u.updateRootState(true)
		return
	}

	u.RemoveFlag(core.UnitFlagStunned)
	if !u.HasState(core.StateRoot) {
		u.updateRootState(false)
	}
}

func (u *Unit) updateRootState(applied bool) {
	if applied {
		u.stopMoving()
		u.actions.SetMovementFlag(core.MovementFlagRoot, true)
	} else {
		u.actions.SetMovementFlag(core.MovementFlagRoot, false)
	}

	if u.observer != nil && u.IsControlledByPlayer() {
		u.observer.RootChanged(u, applied)
	}
}

func (u *Unit) updateConfusionState(applied bool) {
	u.actions.SetFreeMovementControl(!applied)
}
