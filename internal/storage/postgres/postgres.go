// Package postgres implements the storage.Backend interface on PostgreSQL.
// Writes go through the queued GORM backend; Close also releases the pool.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	gormstorage "github.com/OCAP2/unitcore/internal/storage/gorm"
	"gorm.io/gorm"
)

// Backend wraps the GORM backend for a PostgreSQL connection.
type Backend struct {
	*gormstorage.Backend
	db *gorm.DB
}

// New creates a new PostgreSQL storage backend over db.
func New(db *gorm.DB, log *slog.Logger, tag string) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db,
			Logger: log,
			Tag:    tag,
		}),
		db: db,
	}
}

// Init validates the connection before migrating and starting the writer.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("no database configured")
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	return b.Backend.Init()
}

// Close flushes pending rows and closes the connection pool.
func (b *Backend) Close() error {
	err := b.Backend.Close()
	if b.db != nil {
		if sqlDB, dbErr := b.db.DB(); dbErr == nil {
			err = errors.Join(err, sqlDB.Close())
		}
	}
	return err
}
