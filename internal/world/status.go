package world

import (
	"github.com/OCAP2/unitcore/pkg/core"
)

// Status is a point-in-time snapshot of one unit.
type Status struct {
	Handle       core.Handle     `json:"handle"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Health       int             `json:"health"`
	MaxHealth    int             `json:"maxHealth"`
	Mana         int             `json:"mana"`
	MaxMana      int             `json:"maxMana"`
	DeathState   string          `json:"deathState"`
	ControlState string          `json:"controlState"`
	Flags        core.UnitFlags  `json:"flags"`
	Movement     string          `json:"movement"`
	FreeControl  bool            `json:"freeControl"`
	Casting      bool            `json:"casting"`
	ModelID      int             `json:"modelId"`
	Position     core.Position3D `json:"position"`
	Auras        []uint32        `json:"auras"`
}

// Status returns a snapshot of the unit with handle h.
func (w *World) Status(h core.Handle) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.lookup(h)
	if err != nil {
		return Status{}, err
	}
	u := c.unit

	st := Status{
		Handle:       u.Handle(),
		Name:         u.Name(),
		Kind:         u.Kind().String(),
		Health:       u.Health(),
		MaxHealth:    u.MaxHealth(),
		Mana:         u.Mana(),
		MaxMana:      u.MaxMana(),
		DeathState:   u.DeathState().String(),
		ControlState: u.ControlState().String(),
		Flags:        u.Flags(),
		Movement:     c.actions.Flags().String(),
		FreeControl:  c.actions.FreeMovementControl(),
		Casting:      c.actions.IsCasting(),
		ModelID:      u.ModelID(),
		Position:     u.Position(),
	}
	for _, a := range c.auras.Auras() {
		st.Auras = append(st.Auras, a.ID)
	}
	return st, nil
}
