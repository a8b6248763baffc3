// Package registry maps handles to attached units.
package registry

import (
	"errors"
	"iter"
	"slices"
	"sync"

	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
)

var (
	// ErrUnitNotFound is returned when a handle no longer refers to an attached unit.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrHandleInUse is returned when attaching a unit under a handle that is already taken.
	ErrHandleInUse = errors.New("handle already in use")
	// ErrInvalidHandle is returned for the zero handle.
	ErrInvalidHandle = errors.New("invalid handle")
)

// Registry holds attached units in attach order.
// Lookups are the only way to reach a unit by handle; a failed lookup means the unit is gone.
type Registry struct {
	mu    sync.RWMutex
	units map[core.Handle]*unit.Unit
	order []core.Handle
}

func New() *Registry {
	return &Registry{
		units: make(map[core.Handle]*unit.Unit),
	}
}

// Attach adds u under its handle.
func (r *Registry) Attach(u *unit.Unit) error {
	h := u.Handle()
	if h == 0 {
		return ErrInvalidHandle
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[h]; ok {
		return ErrHandleInUse
	}
	r.units[h] = u
	r.order = append(r.order, h)
	return nil
}

// Detach removes the unit and invalidates it. The detached unit is returned.
func (r *Registry) Detach(h core.Handle) (*unit.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[h]
	if !ok {
		return nil, ErrUnitNotFound
	}
	delete(r.units, h)
	r.order = slices.DeleteFunc(r.order, func(x core.Handle) bool { return x == h })
	u.Detach()
	return u, nil
}

// Get returns the attached unit for h.
func (r *Registry) Get(h core.Handle) (*unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[h]
	if !ok || !u.IsValid() {
		return nil, ErrUnitNotFound
	}
	return u, nil
}

// Len returns the number of attached units.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// All yields attached units in attach order. The sequence works on a snapshot
// taken when iteration starts, so callers may attach or detach while ranging.
func (r *Registry) All() iter.Seq[*unit.Unit] {
	return func(yield func(*unit.Unit) bool) {
		for _, u := range r.snapshot() {
			if !u.IsValid() {
				continue
			}
			if !yield(u) {
				return
			}
		}
	}
}

// Visit calls fn for every attached unit in attach order.
func (r *Registry) Visit(fn func(u *unit.Unit)) {
	for u := range r.All() {
		fn(u)
	}
}

// Reset detaches every unit.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.units {
		u.Detach()
	}
	r.units = make(map[core.Handle]*unit.Unit)
	r.order = nil
}

func (r *Registry) snapshot() []*unit.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*unit.Unit, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.units[h])
	}
	return out
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  uint64
}

func (c *SafeCounter) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v uint64) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
