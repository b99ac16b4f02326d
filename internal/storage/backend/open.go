// Package backend picks a storage.Provider implementation from a DSN.
package backend

import (
	"context"
	"fmt"
	"strings"

	"healthsummary/apps/backend/internal/db"
	"healthsummary/apps/backend/internal/storage"
	"healthsummary/apps/backend/internal/storage/postgres"
	"healthsummary/apps/backend/internal/storage/sqlite"
)

// New returns an uninitialized provider. Postgres URLs select the pgx
// store; everything else is treated as a SQLite path, with an optional
// sqlite:// prefix stripped.
func New(dsn string) (storage.Provider, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	if db.IsPostgresURL(dsn) {
		return postgres.NewStore(dsn), nil
	}
	return sqlite.NewStore(strings.TrimPrefix(dsn, "sqlite://")), nil
}

// Open builds the provider for dsn and runs Init on it.
func Open(ctx context.Context, dsn string) (storage.Provider, error) {
	store, err := New(dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
