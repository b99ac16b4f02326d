package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"healthsummary/apps/backend/internal/db"
	"healthsummary/apps/backend/internal/logger"
	"healthsummary/apps/backend/internal/migration"
	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/storage"
	"healthsummary/apps/backend/migrations"
)

type Store struct {
	databaseURL string
	pool        *pgxpool.Pool
}

func NewStore(databaseURL string) *Store {
	return &Store{databaseURL: databaseURL}
}

func (s *Store) Init(ctx context.Context) error {
	if s.pool == nil {
		pool, err := db.Connect(ctx, s.databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		s.pool = pool
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	runner := migration.NewRunner(migrationConn{pool: s.pool}, subFS)
	if _, err := runner.ApplyMigrations(ctx, func(msg string) { logger.Info(msg, "dialect", "postgres") }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := runner.ValidateVersion(ctx); err != nil {
		return err
	}
	return ValidateSchema(ctx, s.pool)
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type migrationConn struct {
	pool *pgxpool.Pool
}

func (m migrationConn) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return 0, err
	}
	var version int
	err := m.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (m migrationConn) Apply(ctx context.Context, mig migration.Migration) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// No arguments, so pgx sends this over the simple protocol and
	// multi-statement files run as one batch.
	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, mig.Version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, device_id, created_at FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByDevice(ctx context.Context, deviceID string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, device_id, created_at FROM users WHERE device_id = $1`, deviceID))
}

func (s *Store) FindOrCreateUserByDevice(ctx context.Context, deviceID string) (models.User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, device_id, created_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (device_id) DO NOTHING`,
		uuid.NewString(), deviceID)
	if err != nil {
		return models.User{}, err
	}
	return s.GetUserByDevice(ctx, deviceID)
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.DeviceID, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) UpsertDailyRecord(ctx context.Context, record models.DailyRecord) (models.DailyRecord, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO daily_health_summaries (user_id, date, weight_kg, body_fat_percent, sleep_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT ON CONSTRAINT daily_health_summaries_user_date_key DO UPDATE SET
			weight_kg = EXCLUDED.weight_kg,
			body_fat_percent = EXCLUDED.body_fat_percent,
			sleep_hours = EXCLUDED.sleep_hours,
			updated_at = NOW()
		RETURNING `+recordColumns,
		record.UserID, models.CalendarDate(record.Date),
		record.WeightKg, record.BodyFatPercent, record.SleepHours,
	)
	return scanRecord(row)
}

func (s *Store) ListDailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM daily_health_summaries
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`,
		userID, models.CalendarDate(from), models.CalendarDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.DailyRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) DeleteDailyRecords(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM daily_health_summaries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const recordColumns = `id, user_id, date, weight_kg, body_fat_percent, sleep_hours, created_at, updated_at`

func scanRecord(row pgx.Row) (models.DailyRecord, error) {
	var r models.DailyRecord
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.WeightKg, &r.BodyFatPercent, &r.SleepHours, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DailyRecord{}, storage.ErrNotFound
		}
		return models.DailyRecord{}, err
	}
	r.Date = models.CalendarDate(r.Date)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (s *Store) CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	var startsAt *time.Time
	if goal.StartsAt != nil {
		day := models.CalendarDate(*goal.StartsAt)
		startsAt = &day
	}
	return scanGoal(s.pool.QueryRow(ctx, `
		INSERT INTO user_goals (user_id, goal, weight, body_fat_percent, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+goalColumns,
		goal.UserID, goal.Goal, goal.Weight, goal.BodyFatPercent, startsAt,
	))
}

func (s *Store) LatestGoal(ctx context.Context, userID string) (models.Goal, error) {
	return scanGoal(s.pool.QueryRow(ctx, `
		SELECT `+goalColumns+`
		FROM user_goals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID))
}

func (s *Store) DeleteGoals(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_goals WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const goalColumns = `id, user_id, goal, weight, body_fat_percent, starts_at, created_at`

func scanGoal(row pgx.Row) (models.Goal, error) {
	var g models.Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Goal, &g.Weight, &g.BodyFatPercent, &g.StartsAt, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Goal{}, storage.ErrNotFound
		}
		return models.Goal{}, err
	}
	if g.StartsAt != nil {
		day := models.CalendarDate(*g.StartsAt)
		g.StartsAt = &day
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return g, nil
}
