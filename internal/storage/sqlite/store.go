package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"healthsummary/apps/backend/internal/logger"
	"healthsummary/apps/backend/internal/migration"
	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/storage"
	"healthsummary/apps/backend/migrations"
)

// Fixed-width so timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Init opens the database file, creating its directory, and applies
// pending migrations.
func (s *Store) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." && !strings.HasPrefix(s.path, "file:") {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; a single connection keeps upserts ordered.
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) dsn() string {
	if strings.Contains(s.path, "?") {
		return s.path + "&_pragma=foreign_keys(1)"
	}
	return s.path + "?_pragma=foreign_keys(1)"
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	_, err = migration.NewRunner(migrationConn{db: s.db}, subFS).ApplyMigrations(ctx, func(msg string) {
		logger.Debug(msg, "dialect", "sqlite", "path", s.path)
	})
	return err
}

type migrationConn struct {
	db *sql.DB
}

func (m migrationConn) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return 0, err
	}
	var version int
	err := m.db.QueryRowContext(ctx, `SELECT version FROM schema_version`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func (m migrationConn) Apply(ctx context.Context, mig migration.Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, mig.Version); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, device_id, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByDevice(ctx context.Context, deviceID string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, device_id, created_at FROM users WHERE device_id = ?`, deviceID))
}

func (s *Store) FindOrCreateUserByDevice(ctx context.Context, deviceID string) (models.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, device_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (device_id) DO NOTHING`,
		uuid.NewString(), deviceID, s.now().UTC().Format(timestampLayout))
	if err != nil {
		return models.User{}, err
	}
	return s.GetUserByDevice(ctx, deviceID)
}

func (s *Store) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.DeviceID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	var err error
	if u.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return models.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return u, nil
}
