package storage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/unitcore/internal/config"
	"github.com/OCAP2/unitcore/internal/database"
	"github.com/OCAP2/unitcore/internal/storage/memory"
	"github.com/OCAP2/unitcore/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/unitcore/internal/storage/sqlite"
	"github.com/OCAP2/unitcore/internal/storage/websocket"
)

// Types accepted by storage.type.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeWebSocket = "websocket"
)

// Dependencies are shared by the database-backed storage types.
type Dependencies struct {
	Logger    *slog.Logger
	DBManager *database.Manager
	Tag       string
}

// NewBackend creates a storage backend based on configuration.
// The backend is not initialized; callers run Init.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case TypeMemory, "":
		return memory.New(cfg.Memory, deps.Tag), nil
	case TypeSQLite:
		if deps.DBManager == nil {
			return nil, fmt.Errorf("sqlite backend needs a database manager")
		}
		db, err := deps.DBManager.ConnectSqlite("")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
		}
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, db, logger.With("backend", TypeSQLite), deps.Tag), nil
	case TypePostgres:
		if deps.DBManager == nil {
			return nil, fmt.Errorf("postgres backend needs a database manager")
		}
		db, err := deps.DBManager.ConnectPostgres()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return postgres.New(db, logger.With("backend", TypePostgres), deps.Tag), nil
	case TypeWebSocket:
		return websocket.New(websocket.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
			Tag:    deps.Tag,
		}, logger.With("backend", TypeWebSocket)), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
