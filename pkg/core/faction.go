// pkg/core/faction.go
package core

// Faction describes which factions a unit of this faction treats as hostile or friendly.
// Relations are stored per faction and are only symmetric by convention.
type Faction struct {
	ID       int
	Name     string
	Hostile  map[int]struct{}
	Friendly map[int]struct{}
}

// NewFaction builds a Faction from id lists.
func NewFaction(id int, name string, hostile, friendly []int) *Faction {
	f := &Faction{
		ID:       id,
		Name:     name,
		Hostile:  make(map[int]struct{}, len(hostile)),
		Friendly: make(map[int]struct{}, len(friendly)),
	}
	for _, h := range hostile {
		f.Hostile[h] = struct{}{}
	}
	for _, fr := range friendly {
		f.Friendly[fr] = struct{}{}
	}
	return f
}

// IsHostileTo reports whether this faction lists other as hostile.
func (f *Faction) IsHostileTo(other *Faction) bool {
	if f == nil || other == nil {
		return false
	}
	_, ok := f.Hostile[other.ID]
	return ok
}

// IsFriendlyTo reports whether this faction lists other as friendly.
func (f *Faction) IsFriendlyTo(other *Faction) bool {
	if f == nil || other == nil {
		return false
	}
	_, ok := f.Friendly[other.ID]
	return ok
}
