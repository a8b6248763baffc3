// Package aura tracks the persistent effects (auras) applied to one unit and
// answers effect-category queries for the control-state machine.
package aura

import (
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
)

// Aura is one applied effect. Duration zero means it lasts until removed.
type Aura struct {
	ID                  uint32
	SpellID             int
	CasterHandle        core.Handle
	Effects             []core.AuraType
	Modifier            float64
	Duration            time.Duration
	PersistThroughDeath bool

	remaining time.Duration
}

// HasEffect reports whether the aura carries the given category.
func (a *Aura) HasEffect(t core.AuraType) bool {
	return slices.Contains(a.Effects, t)
}

// Remaining returns the time left before expiry. Zero for permanent auras.
func (a *Aura) Remaining() time.Duration {
	return a.remaining
}

// RemoveReason explains why an aura left the controller.
type RemoveReason string

const (
	RemovedByRequest RemoveReason = "removed"
	RemovedByExpiry  RemoveReason = "expired"
	RemovedByDeath   RemoveReason = "death"
	RemovedByRefresh RemoveReason = "refreshed"
)

// RemoveFunc is called after an aura has been removed, outside the controller lock.
type RemoveFunc func(a Aura, reason RemoveReason)

// Controller holds the applied auras of a unit.
type Controller struct {
	mu       sync.Mutex
	auras    []*Aura
	onRemove RemoveFunc
}

// NewController creates an empty controller. onRemove may be nil.
func NewController(onRemove RemoveFunc) *Controller {
	return &Controller{onRemove: onRemove}
}

// SetRemoveHandler replaces the removal callback.
func (c *Controller) SetRemoveHandler(fn RemoveFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRemove = fn
}

// Apply adds an aura. An aura with the same ID replaces the existing one; the
// replaced aura is reported with RemovedByRefresh.
func (c *Controller) Apply(a Aura) {
	a.Effects = slices.Clone(a.Effects)
	a.remaining = a.Duration

	c.mu.Lock()
	var replaced *Aura
	for i, existing := range c.auras {
		if existing.ID == a.ID {
			replaced = existing
			c.auras = slices.Delete(c.auras, i, i+1)
			break
		}
	}
	c.auras = append(c.auras, &a)
	fn := c.onRemove
	c.mu.Unlock()

	if replaced != nil && fn != nil {
		fn(*replaced, RemovedByRefresh)
	}
}

// Remove drops the aura with the given ID. Returns false if no such aura exists.
func (c *Controller) Remove(id uint32) bool {
	removed := c.removeWhere(func(a *Aura) bool { return a.ID == id })
	c.notify(removed, RemovedByRequest)
	return len(removed) > 0
}

// RemoveNonDeathPersistentAuras drops every aura not flagged to persist through death.
func (c *Controller) RemoveNonDeathPersistentAuras() {
	removed := c.removeWhere(func(a *Aura) bool { return !a.PersistThroughDeath })
	c.notify(removed, RemovedByDeath)
}

// Tick advances aura timers by delta and removes the auras that expired.
// Returns the expired auras in application order.
func (c *Controller) Tick(delta time.Duration) []Aura {
	if delta <= 0 {
		return nil
	}

	c.mu.Lock()
	for _, a := range c.auras {
		if a.Duration > 0 {
			a.remaining -= delta
		}
	}
	c.mu.Unlock()

	expired := c.removeWhere(func(a *Aura) bool { return a.Duration > 0 && a.remaining <= 0 })
	c.notify(expired, RemovedByExpiry)
	return expired
}

func (c *Controller) removeWhere(match func(a *Aura) bool) []Aura {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []Aura
	kept := c.auras[:0]
	for _, a := range c.auras {
		if match(a) {
			removed = append(removed, *a)
			continue
		}
		kept = append(kept, a)
	}
	clear(c.auras[len(kept):])
	c.auras = kept
	return removed
}

func (c *Controller) notify(removed []Aura, reason RemoveReason) {
	c.mu.Lock()
	fn := c.onRemove
	c.mu.Unlock()

	if fn == nil {
		return
	}
	for _, a := range removed {
		fn(a, reason)
	}
}

// HasAuraType reports whether any applied aura carries the category.
func (c *Controller) HasAuraType(t core.AuraType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.auras {
		if a.HasEffect(t) {
			return true
		}
	}
	return false
}

// Get returns a copy of the aura with the given ID.
func (c *Controller) Get(id uint32) (Aura, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.auras {
		if a.ID == id {
			return *a, true
		}
	}
	return Aura{}, false
}

// Auras returns copies of all applied auras in application order.
func (c *Controller) Auras() []Aura {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Aura, 0, len(c.auras))
	for _, a := range c.auras {
		out = append(out, *a)
	}
	return out
}

// Len returns the number of applied auras.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.auras)
}

// TotalAuraModifier sums the modifiers of every aura carrying the category.
func (c *Controller) TotalAuraModifier(t core.AuraType) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, a := range c.auras {
		if a.HasEffect(t) {
			total += a.Modifier
		}
	}
	return total
}

// TotalAuraMultiplier multiplies (1 + modifier/100) over every aura carrying the category.
func (c *Controller) TotalAuraMultiplier(t core.AuraType) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 1.0
	for _, a := range c.auras {
		if a.HasEffect(t) {
			total *= 1.0 + a.Modifier/100.0
		}
	}
	return total
}

// MaxPositiveAuraModifier returns the largest positive modifier of the category, or 0.
func (c *Controller) MaxPositiveAuraModifier(t core.AuraType) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var best float64
	for _, a := range c.auras {
		if a.HasEffect(t) && a.Modifier > best {
			best = a.Modifier
		}
	}
	return best
}

// MaxNegativeAuraModifier returns the most negative modifier of the category, or 0.
func (c *Controller) MaxNegativeAuraModifier(t core.AuraType) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var worst float64
	for _, a := range c.auras {
		if a.HasEffect(t) && a.Modifier < worst {
			worst = a.Modifier
		}
	}
	return worst
}
