// Package targeting picks the best auto-target for a referer among visible units.
package targeting

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
)

// notInHistory ranks candidates absent from the history behind every real index.
const notInHistory = math.MaxInt

// Settings holds the targeting limits shared by every request.
type Settings struct {
	RangeSqr float64
}

// Relation restricts candidates by faction relation to the referer.
type Relation uint8

const (
	RelationAny Relation = iota
	RelationHostile
	RelationFriendly
)

// String implements fmt.Stringer.
func (r Relation) String() string {
	switch r {
	case RelationHostile:
		return "hostile"
	case RelationFriendly:
		return "friendly"
	default:
		return "any"
	}
}

// ParseRelation converts "any", "hostile" or "friendly" into a Relation.
// An empty string means RelationAny.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return RelationAny, nil
	case "hostile":
		return RelationHostile, nil
	case "friendly":
		return RelationFriendly, nil
	default:
		return RelationAny, fmt.Errorf("unknown relation %q", s)
	}
}

// Options describes one targeting request.
type Options struct {
	EntityTypes core.TargetingEntityType
	Relation    Relation
	SkipDead    bool
}

// Selector keeps the best candidate seen during one targeting request.
// It is scoped to a single request; Reset drops the held target.
type Selector struct {
	settings Settings
	referer  *unit.Unit
	options  Options
	previous []core.Handle

	best      *unit.Unit
	bestIndex int
	visited   int
}

// NewSelector creates a selector for one request. previous is ordered most favoured first.
func NewSelector(settings Settings, referer *unit.Unit, options Options, previous []core.Handle) *Selector {
	return &Selector{
		settings:  settings,
		referer:   referer,
		options:   options,
		previous:  previous,
		bestIndex: notInHistory,
	}
}

// Visit offers one candidate to the selector.
func (s *Selector) Visit(candidate *unit.Unit) {
	s.visited++

	switch candidate.Kind() {
	case core.KindPlayer:
		if !s.options.EntityTypes.Has(core.TargetPlayers) {
			return
		}
	case core.KindCreature:
		if !s.options.EntityTypes.Has(core.TargetCreatures) {
			return
		}
	default:
		return
	}

	s.visitUnit(candidate)
}

func (s *Selector) visitUnit(candidate *unit.Unit) {
	if candidate == s.referer || candidate.Handle() == s.referer.Handle() {
		return
	}
	if !candidate.InRangeSqr(s.referer, s.settings.RangeSqr) {
		return
	}
	if s.options.SkipDead && candidate.IsDead() {
		return
	}
	switch s.options.Relation {
	case RelationHostile:
		if !s.referer.IsHostileTo(candidate) {
			return
		}
	case RelationFriendly:
		if !s.referer.IsFriendlyTo(candidate) {
			return
		}
	}

	index := s.historyIndex(candidate.Handle())
	if s.best == nil || index < s.bestIndex {
		s.best = candidate
		s.bestIndex = index
	}
}

func (s *Selector) historyIndex(h core.Handle) int {
	for i, prev := range s.previous {
		if prev == h {
			return i
		}
	}
	return notInHistory
}

// Best returns the selected candidate, if any.
func (s *Selector) Best() (*unit.Unit, bool) {
	return s.best, s.best != nil
}

// Visited returns how many candidates were offered.
func (s *Selector) Visited() int { return s.visited }

// Reset clears the held best target.
func (s *Selector) Reset() {
	s.best = nil
	s.bestIndex = notInHistory
	s.visited = 0
}

// Result is the outcome of SelectBestTarget.
type Result struct {
	Target  *unit.Unit
	Visited int
}

// Found reports whether a target was selected.
func (r Result) Found() bool { return r.Target != nil }

// SelectBestTarget runs one targeting request over candidates in visitation order.
// Among candidates with the same history rank the first visited wins.
func SelectBestTarget(settings Settings, referer *unit.Unit, options Options, previous []core.Handle, candidates iter.Seq[*unit.Unit]) Result {
	s := NewSelector(settings, referer, options, previous)
	defer s.Reset()

	for c := range candidates {
		s.Visit(c)
	}

	best, _ := s.Best()
	return Result{Target: best, Visited: s.Visited()}
}
