// pkg/core/types.go
package core

import "fmt"

// Handle identifies a unit inside the registry. Zero is never assigned.
type Handle uint32

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("unit#%d", uint32(h))
}

// Position3D represents a 3D coordinate in world units
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"` // elevation
}

// DistanceSqr returns the squared distance between two positions.
func (p Position3D) DistanceSqr(o Position3D) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// EntityKind is the closed set of unit kinds the simulation spawns.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota + 1
	KindCreature
)

// String implements fmt.Stringer.
func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCreature:
		return "creature"
	default:
		return "unknown"
	}
}

// ParseEntityKind converts "player" / "creature" into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "player":
		return KindPlayer, nil
	case "creature":
		return KindCreature, nil
	default:
		return 0, fmt.Errorf("unknown entity kind %q", s)
	}
}

// TargetingEntityType is a bitset of entity kinds a targeting request accepts.
type TargetingEntityType uint8

const (
	TargetPlayers TargetingEntityType = 1 << iota
	TargetCreatures

	TargetAll = TargetPlayers | TargetCreatures
)

// Has reports whether every bit of flag is set.
func (t TargetingEntityType) Has(flag TargetingEntityType) bool {
	return t&flag == flag
}

// Accepts reports whether units of the given kind pass the filter.
func (t TargetingEntityType) Accepts(kind EntityKind) bool {
	switch kind {
	case KindPlayer:
		return t.Has(TargetPlayers)
	case KindCreature:
		return t.Has(TargetCreatures)
	default:
		return false
	}
}
