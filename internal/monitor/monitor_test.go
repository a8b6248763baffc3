package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/influx"
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/internal/session"
	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorld struct{}

func (fakeWorld) Len() int          { return 3 }
func (fakeWorld) TickCount() uint64 { return 42 }

type fakeBackend struct {
	recorded []model.Performance
	err      error
}

func (b *fakeBackend) QueueLengths() model.WriteQueueLengths {
	return model.WriteQueueLengths{DamageEvents: 5, KillEvents: 1}
}

func (b *fakeBackend) GetLastDBWriteDuration() time.Duration {
	return 2500 * time.Microsecond
}

func (b *fakeBackend) RecordPerformance(p *model.Performance) error {
	if b.err != nil {
		return b.err
	}
	b.recorded = append(b.recorded, *p)
	return nil
}

func activeSession() *session.Context {
	ctx := session.NewContext()
	ctx.Set(&core.Session{ID: 7, Name: "arena"})
	return ctx
}

func TestSample(t *testing.T) {
	s := NewService(Dependencies{Session: activeSession(), World: fakeWorld{}, Backend: &fakeBackend{}})
	now := time.Now()

	perf := s.Sample(now)
	assert.Equal(t, uint(7), perf.SessionID)
	assert.Equal(t, uint32(3), perf.Units)
	assert.Equal(t, uint64(42), perf.Tick)
	assert.Equal(t, uint32(5), perf.WriteQueueLengths.DamageEvents)
	assert.InDelta(t, 2.5, perf.LastWriteDurationMs, 0.001)
	assert.Equal(t, 6, totalQueued(perf.WriteQueueLengths))
}

func TestTick_WritesEverywhere(t *testing.T) {
	dir := t.TempDir()
	backend := &fakeBackend{}
	ifx := influx.NewManager(zerolog.Nop(), filepath.Join(dir, "influx.lp.gz"))
	require.NoError(t, ifx.OpenBackup())
	t.Cleanup(func() { _ = ifx.Close() })

	s := NewService(Dependencies{
		Session:   activeSession(),
		World:     fakeWorld{},
		Backend:   backend,
		Influx:    ifx,
		StatusDir: dir,
	})
	require.NoError(t, s.Tick(time.Now()))

	require.Len(t, backend.recorded, 1)
	data, err := os.ReadFile(filepath.Join(dir, StatusFileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "session: arena\nunits: 3\ntick: 42\n"))
}

func TestTick_SkipsWithoutSession(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(Dependencies{Session: session.NewContext(), Backend: backend})
	require.NoError(t, s.Tick(time.Now()))
	assert.Empty(t, backend.recorded)
}

func TestTick_RecorderError(t *testing.T) {
	s := NewService(Dependencies{Session: activeSession(), Backend: &fakeBackend{err: errors.New("db down")}})
	assert.ErrorContains(t, s.Tick(time.Now()), "db down")
}

func TestStartStop(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(Dependencies{Session: activeSession(), Backend: backend, Interval: 5 * time.Millisecond})

	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())

	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.NotEmpty(t, backend.recorded)
}
