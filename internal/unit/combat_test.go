package unit

import (
	"testing"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestDealDamage(t *testing.T) {
	tests := []struct {
		name      string
		health    int
		amount    int
		want      int
		wantAfter int
		wantDead  bool
	}{
		{"partial", 100, 30, 30, 70, false},
		{"one below lethal", 100, 99, 99, 1, false},
		{"exact lethal", 100, 100, 100, 0, true},
		{"overkill", 40, 500, 40, 0, true},
		{"zero", 100, 0, 0, 100, false},
		{"negative", 100, -5, 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attacker := newFixture(core.KindPlayer, 100)
			target := newFixture(core.KindCreature, tt.health)

			got := attacker.unit.DealDamage(target.unit, tt.amount)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAfter, target.unit.Health())
			assert.Equal(t, tt.wantDead, target.unit.IsDead())
		})
	}
}

func TestDealHeal(t *testing.T) {
	healer := newFixture(core.KindPlayer, 100)
	target := newFixture(core.KindCreature, 100)
	target.unit.ModifyHealth(-50)

	assert.Equal(t, 20, healer.unit.DealHeal(target.unit, 20))
	assert.Equal(t, 70, target.unit.Health())

	// clamped at max
	assert.Equal(t, 30, healer.unit.DealHeal(target.unit, 500))
	assert.Equal(t, 100, target.unit.Health())

	assert.Equal(t, 0, healer.unit.DealHeal(target.unit, 0))
	assert.Equal(t, 0, healer.unit.DealHeal(target.unit, -10))
	assert.Equal(t, 100, target.unit.Health())
}

func TestDealHeal_DeadTargetIgnored(t *testing.T) {
	healer := newFixture(core.KindPlayer, 100)
	target := newFixture(core.KindCreature, 100)
	healer.unit.Kill(target.unit)

	assert.Equal(t, 0, healer.unit.DealHeal(target.unit, 40))
	assert.Equal(t, 0, target.unit.Health())
	assert.True(t, target.unit.IsDead())
}

func TestModifyHealth_Clamps(t *testing.T) {
	f := newFixture(core.KindCreature, 50)

	assert.Equal(t, -50, f.unit.ModifyHealth(-80))
	assert.Equal(t, 0, f.unit.Health())
	// health alone never changes the death state
	assert.True(t, f.unit.IsAlive())

	assert.Equal(t, 50, f.unit.ModifyHealth(80))
	assert.Equal(t, 50, f.unit.Health())
}

func TestKill(t *testing.T) {
	killer := newFixture(core.KindPlayer, 100)
	victim := newFixture(core.KindCreature, 100)
	victim.actions.casting = true

	killer.unit.Kill(victim.unit)

	assert.Equal(t, 0, victim.unit.Health())
	assert.True(t, victim.unit.IsDead())
	assert.Equal(t, 1, victim.actions.cancellations)
	assert.Equal(t, 1, victim.auras.deathRemovals)
	assert.Equal(t, []core.DeathState{core.Dead}, victim.observer.deaths)
}

func TestKill_AlreadyAtZeroIsNoop(t *testing.T) {
	killer := newFixture(core.KindPlayer, 100)
	victim := newFixture(core.KindCreature, 100)

	killer.unit.Kill(victim.unit)
	killer.unit.Kill(victim.unit)
	killer.unit.DealDamage(victim.unit, 10)

	assert.True(t, victim.unit.IsDead())
	assert.Equal(t, 1, victim.auras.deathRemovals)
	assert.Len(t, victim.observer.deaths, 1)
}

func TestModifyDeathState_Revive(t *testing.T) {
	f := newFixture(core.KindPlayer, 100)
	f.unit.ModifyDeathState(core.Dead)
	assert.Equal(t, 1, f.auras.deathRemovals)

	f.unit.ModifyDeathState(core.Alive)

	assert.True(t, f.unit.IsAlive())
	assert.Equal(t, 1, f.auras.deathRemovals)
	assert.Equal(t, []core.DeathState{core.Dead, core.Alive}, f.observer.deaths)
}
