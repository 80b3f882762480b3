package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/logger"
)

// ClientStorages owns the sqlite database of the client and hands out
// owner-scoped persisters for sessions.
type ClientStorages struct {
	db     *DB
	logger *logger.Logger
}

// NewClientStorages initialises the client storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &ClientStorages{db: db, logger: logger}, nil
}

// Persister returns a [Persister] scoped to owner.
func (s *ClientStorages) Persister(owner string) (Persister, error) {
	return NewCachePersister(s.db, owner, s.logger)
}

// Close closes the database.
func (s *ClientStorages) Close() error {
	return s.db.Close()
}
