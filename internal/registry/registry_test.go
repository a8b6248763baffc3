package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/unitcore/internal/unit"
	"github.com/OCAP2/unitcore/pkg/core"
)

func newUnit(h core.Handle) *unit.Unit {
	return unit.New(unit.Config{Handle: h, Kind: core.KindCreature})
}

func TestRegistry_AttachAndGet(t *testing.T) {
	r := New()

	require.NoError(t, r.Attach(newUnit(42)))

	got, err := r.Get(42)
	require.NoError(t, err)
	assert.Equal(t, core.Handle(42), got.Handle())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := New()

	_, err := r.Get(999)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestRegistry_AttachErrors(t *testing.T) {
	r := New()
	require.NoError(t, r.Attach(newUnit(1)))

	assert.ErrorIs(t, r.Attach(newUnit(1)), ErrHandleInUse)
	assert.ErrorIs(t, r.Attach(newUnit(0)), ErrInvalidHandle)
}

func TestRegistry_DetachInvalidates(t *testing.T) {
	r := New()
	u := newUnit(7)
	require.NoError(t, r.Attach(u))

	detached, err := r.Detach(7)
	require.NoError(t, err)
	assert.Same(t, u, detached)
	assert.False(t, u.IsValid())

	_, err = r.Get(7)
	assert.ErrorIs(t, err, ErrUnitNotFound)

	_, err = r.Detach(7)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestRegistry_AllKeepsAttachOrder(t *testing.T) {
	r := New()
	for _, h := range []core.Handle{5, 2, 9, 1} {
		require.NoError(t, r.Attach(newUnit(h)))
	}
	_, err := r.Detach(9)
	require.NoError(t, err)

	var got []core.Handle
	for u := range r.All() {
		got = append(got, u.Handle())
	}
	assert.Equal(t, []core.Handle{5, 2, 1}, got)

	var visited []core.Handle
	r.Visit(func(u *unit.Unit) { visited = append(visited, u.Handle()) })
	assert.Equal(t, got, visited)
}

func TestRegistry_AllStopsEarly(t *testing.T) {
	r := New()
	for h := core.Handle(1); h <= 3; h++ {
		require.NoError(t, r.Attach(newUnit(h)))
	}

	n := 0
	for range r.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestRegistry_DetachWhileRanging(t *testing.T) {
	r := New()
	for h := core.Handle(1); h <= 3; h++ {
		require.NoError(t, r.Attach(newUnit(h)))
	}

	var got []core.Handle
	for u := range r.All() {
		got = append(got, u.Handle())
		if u.Handle() == 1 {
			_, err := r.Detach(2)
			require.NoError(t, err)
		}
	}
	// detached units are skipped even when already in the snapshot
	assert.Equal(t, []core.Handle{1, 3}, got)
}

func TestRegistry_Reset(t *testing.T) {
	r := New()
	u := newUnit(1)
	require.NoError(t, r.Attach(u))

	r.Reset()

	assert.Zero(t, r.Len())
	assert.False(t, u.IsValid())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(h core.Handle) {
			defer wg.Done()
			_ = r.Attach(newUnit(h))
			_, _ = r.Get(h)
		}(core.Handle(i))
	}
	wg.Wait()

	assert.Equal(t, 100, r.Len())
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), c.Value())
	c.Set(3)
	assert.Equal(t, uint64(4), c.Inc())
}
