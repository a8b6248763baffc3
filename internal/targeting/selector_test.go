package targeting

import (
	"math"
	"slices"
	"testing"

	"github.com/OCAP2/unitcore/internal/attributes"
	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = core.NewFaction(1, "red", []int{2}, []int{1})
	blue = core.NewFaction(2, "blue", []int{1}, []int{2})
)

func newUnit(h core.Handle, kind core.EntityKind, distSqr float64, faction *core.Faction) *unit.Unit {
	return unit.New(unit.Config{
		Handle:     h,
		Kind:       kind,
		Attributes: attributes.New(attributes.Definition{MaxHealth: 100, Faction: faction}),
		Position:   core.Position3D{X: math.Sqrt(distSqr)},
	})
}

func at(h core.Handle, kind core.EntityKind, x float64) *unit.Unit {
	return unit.New(unit.Config{
		Handle:     h,
		Kind:       kind,
		Attributes: attributes.New(attributes.Definition{MaxHealth: 100, Faction: blue}),
		Position:   core.Position3D{X: x},
	})
}

func TestSelectBestTarget_OutOfRangeSkipped(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	a := unit.New(unit.Config{Handle: 2, Kind: core.KindCreature, Position: core.Position3D{X: 5, Y: 5}})   // 50
	b := unit.New(unit.Config{Handle: 3, Kind: core.KindCreature, Position: core.Position3D{X: 10, Y: 10}}) // 200

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, nil,
		slices.Values([]*unit.Unit{b, a}))

	require.True(t, res.Found())
	assert.Equal(t, core.Handle(2), res.Target.Handle())
	assert.Equal(t, 2, res.Visited)
}

func TestSelectBestTarget_HistoryFavoured(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	a := at(2, core.KindCreature, 3)
	b := at(3, core.KindCreature, 4)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll},
		[]core.Handle{3, 2}, slices.Values([]*unit.Unit{a, b}))

	require.True(t, res.Found())
	assert.Equal(t, core.Handle(3), res.Target.Handle())
}

func TestSelectBestTarget_KindFilterWins(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	c := at(2, core.KindPlayer, 1)
	d := at(3, core.KindCreature, 9)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetCreatures},
		[]core.Handle{2}, slices.Values([]*unit.Unit{c, d}))

	require.True(t, res.Found())
	assert.Equal(t, core.Handle(3), res.Target.Handle())

	res = SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetCreatures},
		[]core.Handle{2}, slices.Values([]*unit.Unit{c}))
	assert.False(t, res.Found())
}

func TestSelectBestTarget_NeverReferer(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll},
		[]core.Handle{1}, slices.Values([]*unit.Unit{referer}))

	assert.False(t, res.Found())
	assert.Equal(t, 1, res.Visited)
}

func TestSelectBestTarget_RangeInclusive(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	edge := at(2, core.KindCreature, 10)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, nil,
		slices.Values([]*unit.Unit{edge}))

	assert.True(t, res.Found())
}

func TestSelectBestTarget_TiesFirstVisitedWins(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	a := at(2, core.KindCreature, 1)
	b := at(3, core.KindCreature, 2)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, nil,
		slices.Values([]*unit.Unit{b, a}))
	assert.Equal(t, core.Handle(3), res.Target.Handle())

	// a history entry for neither keeps visitation order
	res = SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, []core.Handle{99},
		slices.Values([]*unit.Unit{a, b}))
	assert.Equal(t, core.Handle(2), res.Target.Handle())
}

func TestSelectBestTarget_RankedBeatsUnranked(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	a := at(2, core.KindCreature, 1)
	b := at(3, core.KindCreature, 2)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, []core.Handle{3},
		slices.Values([]*unit.Unit{a, b}))
	assert.Equal(t, core.Handle(3), res.Target.Handle())
}

func TestSelectBestTarget_Empty(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)

	res := SelectBestTarget(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, nil,
		slices.Values([]*unit.Unit(nil)))

	assert.False(t, res.Found())
	assert.Zero(t, res.Visited)
}

func TestSelectBestTarget_RelationAndDeadFilters(t *testing.T) {
	referer := newUnit(1, core.KindPlayer, 0, red)
	ally := newUnit(2, core.KindPlayer, 4, red)
	enemy := newUnit(3, core.KindCreature, 9, blue)
	deadEnemy := newUnit(4, core.KindCreature, 1, blue)
	deadEnemy.ModifyDeathState(core.Dead)

	all := slices.Values([]*unit.Unit{ally, deadEnemy, enemy})
	settings := Settings{RangeSqr: 100}

	tests := []struct {
		name string
		opts Options
		want core.Handle
	}{
		{"any", Options{EntityTypes: core.TargetAll}, 2},
		{"hostile", Options{EntityTypes: core.TargetAll, Relation: RelationHostile}, 4},
		{"hostile alive", Options{EntityTypes: core.TargetAll, Relation: RelationHostile, SkipDead: true}, 3},
		{"friendly", Options{EntityTypes: core.TargetAll, Relation: RelationFriendly}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SelectBestTarget(settings, referer, tt.opts, nil, all)
			require.True(t, res.Found())
			assert.Equal(t, tt.want, res.Target.Handle())
		})
	}
}

func TestSelector_Reset(t *testing.T) {
	referer := at(1, core.KindPlayer, 0)
	s := NewSelector(Settings{RangeSqr: 100}, referer, Options{EntityTypes: core.TargetAll}, nil)
	s.Visit(at(2, core.KindCreature, 1))

	_, ok := s.Best()
	require.True(t, ok)

	s.Reset()

	_, ok = s.Best()
	assert.False(t, ok)
	assert.Zero(t, s.Visited())
}

func TestParseRelation(t *testing.T) {
	for in, want := range map[string]Relation{"": RelationAny, "any": RelationAny, "Hostile": RelationHostile, "friendly": RelationFriendly} {
		got, err := ParseRelation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseRelation("neutral")
	assert.Error(t, err)
}
