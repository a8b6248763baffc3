package attributes

import (
	"testing"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	s := New(Definition{MaxHealth: 100, MaxMana: 50, BaseMana: 40, ModelID: 7})

	assert.Equal(t, 100, s.Health())
	assert.Equal(t, 100, s.MaxHealth())
	assert.Equal(t, 50, s.Mana())
	assert.Equal(t, 40, s.BaseMana())
	assert.Equal(t, 7, s.OriginalModelID())
	assert.Equal(t, float32(1.0), s.Scale())
	assert.Equal(t, core.Alive, s.DeathState())
}

func TestNew_DeadStartsEmpty(t *testing.T) {
	s := New(Definition{MaxHealth: 100, DeathState: core.Dead})
	assert.Equal(t, 0, s.Health())
}

func TestSetHealth_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		value     int
		wantValue int
		wantDelta int
	}{
		{"within range", 100, 60, 60, -40},
		{"below zero", 30, -20, 0, -30},
		{"above max", 90, 150, 100, 10},
		{"unchanged", 50, 50, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Definition{MaxHealth: 100})
			s.SetHealth(tt.start)

			delta := s.SetHealth(tt.value)

			assert.Equal(t, tt.wantValue, s.Health())
			assert.Equal(t, tt.wantDelta, delta)
		})
	}
}

func TestSetMaxHealth_LowersHealth(t *testing.T) {
	s := New(Definition{MaxHealth: 100})
	s.SetMaxHealth(40)
	assert.Equal(t, 40, s.Health())

	s.SetMaxHealth(-5)
	assert.Equal(t, 0, s.MaxHealth())
	assert.Equal(t, 0, s.Health())
}

func TestSetMana_Clamps(t *testing.T) {
	s := New(Definition{MaxMana: 80})
	assert.Equal(t, -30, s.SetMana(50))
	assert.Equal(t, 30, s.SetMana(200))
	assert.Equal(t, 80, s.Mana())
	assert.Equal(t, -80, s.SetMana(-1))
}
