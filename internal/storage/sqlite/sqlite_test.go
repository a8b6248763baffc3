package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/database"
	"github.com/OCAP2/unitcore/internal/model"
	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err)
	b := New(cfg, db, nil, "Duel")
	require.NoError(t, b.Init())
	return b
}

func TestClose_WritesDump(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "out", "session.db")
	b := newTestBackend(t, Config{DumpPath: dumpPath})

	s := &core.Session{Name: "arena", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordDamageEvent(&core.DamageEvent{Attacker: 1, Victim: 2, Amount: 7}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	dumped, err := database.OpenSqlite(dumpPath)
	require.NoError(t, err)
	var rows []model.DamageEvent
	require.NoError(t, dumped.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].Amount)
	assert.Equal(t, s.ID, rows[0].SessionID)
}

func TestDumpLoop(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "loop.db")
	b := newTestBackend(t, Config{DumpPath: dumpPath, DumpInterval: 10 * time.Millisecond})
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(dumpPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDump_NoPath(t *testing.T) {
	b := newTestBackend(t, Config{})
	defer b.Close()
	assert.ErrorIs(t, b.Dump(), database.ErrNoDumpPath)
}
