package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/config"
	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func newSession() *core.Session {
	return &core.Session{
		Name:             "Arena: Finals",
		Author:           "tester",
		StartTime:        sessionStart,
		EndTime:          sessionStart.Add(90 * time.Second),
		ExtensionVersion: "1.2.0",
	}
}

func readLog(t *testing.T, path string, compressed bool) CombatLog {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var log CombatLog
	if compressed {
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()
		require.NoError(t, json.NewDecoder(gz).Decode(&log))
	} else {
		require.NoError(t, json.NewDecoder(f).Decode(&log))
	}
	return log
}

func TestStartSession_ResetsAndAssignsID(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, "")
	require.NoError(t, b.Init())

	s1 := newSession()
	require.NoError(t, b.StartSession(s1))
	require.NoError(t, b.AddUnit(&core.UnitRecord{Handle: 1}))

	s2 := newSession()
	require.NoError(t, b.StartSession(s2))
	assert.Equal(t, uint(1), s1.ID)
	assert.Equal(t, uint(2), s2.ID)

	_, ok := b.GetUnit(1)
	assert.False(t, ok)
}

func TestUnitEventsAttachToUnit(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, "")
	require.NoError(t, b.StartSession(newSession()))
	require.NoError(t, b.AddUnit(&core.UnitRecord{Handle: 1, Name: "hero"}))

	require.NoError(t, b.RecordControlStateEvent(&core.ControlStateEvent{Unit: 1, State: core.StateRoot, Applied: true}))
	require.NoError(t, b.RecordAuraEvent(&core.AuraEvent{Unit: 1, AuraID: 3, Action: "applied"}))
	require.NoError(t, b.RecordAuraEvent(&core.AuraEvent{Unit: 99, AuraID: 4, Action: "applied"}))

	r, ok := b.GetUnit(1)
	require.True(t, ok)
	assert.Len(t, r.ControlStates, 1)
	assert.Len(t, r.Auras, 1)
}

func TestEndSession_NoSession(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()}, "")
	assert.ErrorIs(t, b.EndSession(), ErrNoSession)
	assert.NoError(t, b.Close())
}

func TestEndSession_ExportsJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir}, "Duel")
	require.NoError(t, b.StartSession(newSession()))

	require.NoError(t, b.AddUnit(&core.UnitRecord{Handle: 1, Kind: core.KindPlayer, Name: "hero", MaxHealth: 100, Position: core.Position3D{X: 1, Y: 2}}))
	require.NoError(t, b.AddUnit(&core.UnitRecord{Handle: 2, Kind: core.KindCreature, Name: "wolf", MaxHealth: 40, SpawnTick: 1}))
	require.NoError(t, b.RecordControlStateEvent(&core.ControlStateEvent{Tick: 2, Unit: 2, State: core.StateStunned, Applied: true, Active: core.StateStunned}))
	require.NoError(t, b.RecordKillEvent(&core.KillEvent{Tick: 5, Killer: 1, Victim: 2, Distance: 3}))
	require.NoError(t, b.RecordDamageEvent(&core.DamageEvent{Tick: 5, Attacker: 1, Victim: 2, Requested: 50, Amount: 40, Killing: true, Distance: 3}))
	require.NoError(t, b.RecordHealEvent(&core.HealEvent{Tick: 4, Caster: 1, Target: 1, Requested: 10}))
	require.NoError(t, b.RecordTargetEvent(&core.TargetEvent{Tick: 3, Referer: 1, Selected: 2, Candidates: 1, History: []core.Handle{2}}))

	require.NoError(t, b.EndSession())

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Arena__Finals_20260314_183000.json"), path)

	log := readLog(t, path, false)
	assert.Equal(t, FormatVersion, log.Version)
	assert.Equal(t, "Arena: Finals", log.SessionName)
	assert.Equal(t, "Duel", log.Tag)
	assert.Equal(t, uint64(5), log.EndTick)

	require.Len(t, log.Units, 2)
	assert.Equal(t, "hero", log.Units[0].Name)
	assert.Equal(t, "wolf", log.Units[1].Name)
	require.Len(t, log.Units[1].ControlStates, 1)
	assert.Equal(t, "stunned", log.Units[1].ControlStates[0][1])

	require.Len(t, log.Events, 4)
	kinds := make([]any, 0, len(log.Events))
	for _, e := range log.Events {
		kinds = append(kinds, e[1])
	}
	// sorted by tick; damage is listed before the kill it caused
	assert.Equal(t, []any{"target", "heal", "damage", "killed"}, kinds)

	meta := b.GetExportMetadata()
	assert.Equal(t, "Arena: Finals", meta.SessionName)
	assert.Equal(t, "Duel", meta.Tag)
	assert.InDelta(t, 90.0, meta.Duration, 0.001)
}

func TestEndSession_Compressed(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true}, "")
	s := newSession()
	s.EndTime = time.Time{}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.AddUnit(&core.UnitRecord{Handle: 7, Name: "solo"}))

	require.NoError(t, b.Close())

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))
	log := readLog(t, path, true)
	require.Len(t, log.Units, 1)
	assert.Empty(t, log.Events)
	assert.False(t, s.EndTime.IsZero(), "end time is stamped on export")
}
