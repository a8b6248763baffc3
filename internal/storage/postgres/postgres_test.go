package postgres

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/database"
	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The GORM paths are dialect independent, so a SQLite file stands in for the server.

func TestInit_NoDB(t *testing.T) {
	assert.Error(t, New(nil, nil, "").Init())
}

func TestLifecycle(t *testing.T) {
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "pg.db"))
	require.NoError(t, err)

	b := New(db, nil, "Duel")
	require.NoError(t, b.Init())

	s := &core.Session{Name: "arena", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	assert.NotZero(t, s.ID)
	require.NoError(t, b.RecordKillEvent(&core.KillEvent{Killer: 1, Victim: 2}))
	require.NoError(t, b.EndSession())

	require.NoError(t, b.Close())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool is closed")
}
