package unit

import "github.com/OCAP2/unitcore/pkg/core"

// ModifyHealth adds delta to health, clamped to [0, MaxHealth], and returns the
// signed change actually applied. It never changes the death state.
func (u *Unit) ModifyHealth(delta int) int {
	return u.attrs.SetHealth(u.Health() + delta)
}

// DealDamage applies amount of damage from u to target and returns the damage
// actually applied. Damage reaching the target's remaining health kills it and
// returns the health it had left. Amounts below 1 are ignored.
func (u *Unit) DealDamage(target *Unit, amount int) int {
	if amount < 1 {
		return 0
	}

	health := target.Health()
	if health <= amount {
		u.Kill(target)
		return health
	}

	return -target.ModifyHealth(-amount)
}

// DealHeal heals target by amount and returns the healing actually applied.
// Amounts below 1 and dead targets are ignored.
func (u *Unit) DealHeal(target *Unit, amount int) int {
	if amount < 1 || target.IsDead() {
		return 0
	}
	return target.ModifyHealth(amount)
}

// Kill drops victim to zero health and marks it dead. Victims already at zero
// health are left untouched.
func (u *Unit) Kill(victim *Unit) {
	if victim.Health() <= 0 {
		return
	}

	victim.attrs.SetHealth(0)
	victim.ModifyDeathState(core.Dead)
}

// ModifyDeathState stores the new death state. Entering Dead cancels the
// current action and removes every aura that does not persist through death.
func (u *Unit) ModifyDeathState(state core.DeathState) {
	u.attrs.SetDeathState(state)

	if u.IsDead() && u.actions.IsCasting() {
		u.actions.CancelCurrentAction()
	}

	if state == core.Dead {
		u.auras.RemoveNonDeathPersistentAuras()
	}

	if u.observer != nil {
		u.observer.DeathStateChanged(u, state)
	}
}
