package aura

import (
	"testing"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type removal struct {
	id     uint32
	reason RemoveReason
}

func newRecordingController() (*Controller, *[]removal) {
	var log []removal
	c := NewController(func(a Aura, reason RemoveReason) {
		log = append(log, removal{a.ID, reason})
	})
	return c, &log
}

func TestApply_HasAuraType(t *testing.T) {
	c, _ := newRecordingController()

	assert.False(t, c.HasAuraType(core.AuraStunState))

	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraStunState}})

	assert.True(t, c.HasAuraType(core.AuraStunState))
	assert.False(t, c.HasAuraType(core.AuraRootState))
	assert.Equal(t, 1, c.Len())
}

func TestApply_SameIDRefreshes(t *testing.T) {
	c, log := newRecordingController()

	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraRootState}, Duration: time.Second})
	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraRootState}, Duration: 5 * time.Second})

	require.Equal(t, 1, c.Len())
	a, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, a.Remaining())
	assert.Equal(t, []removal{{1, RemovedByRefresh}}, *log)
}

func TestRemove(t *testing.T) {
	c, log := newRecordingController()
	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraStunState}})
	c.Apply(Aura{ID: 2, Effects: []core.AuraType{core.AuraRootState}})

	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))

	assert.False(t, c.HasAuraType(core.AuraStunState))
	assert.True(t, c.HasAuraType(core.AuraRootState))
	assert.Equal(t, []removal{{1, RemovedByRequest}}, *log)
}

func TestRemoveNonDeathPersistentAuras(t *testing.T) {
	c, log := newRecordingController()
	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraStunState}})
	c.Apply(Aura{ID: 2, Effects: []core.AuraType{core.AuraModHaste}, PersistThroughDeath: true})
	c.Apply(Aura{ID: 3, Effects: []core.AuraType{core.AuraConfusionState}})

	c.RemoveNonDeathPersistentAuras()

	remaining := c.Auras()
	require.Len(t, remaining, 1)
	assert.Equal(t, uint32(2), remaining[0].ID)
	assert.Equal(t, []removal{{1, RemovedByDeath}, {3, RemovedByDeath}}, *log)
}

func TestTick_ExpiresTimedAuras(t *testing.T) {
	c, log := newRecordingController()
	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraStunState}, Duration: 500 * time.Millisecond})
	c.Apply(Aura{ID: 2, Effects: []core.AuraType{core.AuraRootState}, Duration: 2 * time.Second})
	c.Apply(Aura{ID: 3, Effects: []core.AuraType{core.AuraModHaste}})

	assert.Empty(t, c.Tick(300*time.Millisecond))
	expired := c.Tick(200 * time.Millisecond)

	require.Len(t, expired, 1)
	assert.Equal(t, uint32(1), expired[0].ID)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []removal{{1, RemovedByExpiry}}, *log)

	assert.Empty(t, c.Tick(0))
	c.Tick(time.Hour)
	assert.Equal(t, 1, c.Len(), "permanent aura never expires")
}

func TestModifiers(t *testing.T) {
	c := NewController(nil)
	c.Apply(Aura{ID: 1, Effects: []core.AuraType{core.AuraModDamageDone}, Modifier: 10})
	c.Apply(Aura{ID: 2, Effects: []core.AuraType{core.AuraModDamageDone}, Modifier: -30})
	c.Apply(Aura{ID: 3, Effects: []core.AuraType{core.AuraModDamageDone, core.AuraModHaste}, Modifier: 50})

	assert.InDelta(t, 30.0, c.TotalAuraModifier(core.AuraModDamageDone), 1e-9)
	assert.InDelta(t, 1.1*0.7*1.5, c.TotalAuraMultiplier(core.AuraModDamageDone), 1e-9)
	assert.InDelta(t, 50.0, c.MaxPositiveAuraModifier(core.AuraModDamageDone), 1e-9)
	assert.InDelta(t, -30.0, c.MaxNegativeAuraModifier(core.AuraModDamageDone), 1e-9)
	assert.InDelta(t, 50.0, c.TotalAuraModifier(core.AuraModHaste), 1e-9)
	assert.InDelta(t, 1.0, c.TotalAuraMultiplier(core.AuraModHealingDone), 1e-9)
}

func TestApply_CopiesEffects(t *testing.T) {
	c := NewController(nil)
	effects := []core.AuraType{core.AuraStunState}
	c.Apply(Aura{ID: 1, Effects: effects})

	effects[0] = core.AuraRootState

	assert.True(t, c.HasAuraType(core.AuraStunState))
}
