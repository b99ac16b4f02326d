package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/storage"
)

func (s *Store) UpsertDailyRecord(ctx context.Context, record models.DailyRecord) (models.DailyRecord, error) {
	now := s.now().UTC().Format(timestampLayout)
	day := record.Date.Format(models.DateLayout)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_health_summaries (user_id, date, weight_kg, body_fat_percent, sleep_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			body_fat_percent = excluded.body_fat_percent,
			sleep_hours = excluded.sleep_hours,
			updated_at = excluded.updated_at`,
		record.UserID, day,
		nullFloat(record.WeightKg), nullFloat(record.BodyFatPercent), nullFloat(record.SleepHours),
		now, now,
	)
	if err != nil {
		return models.DailyRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, weight_kg, body_fat_percent, sleep_hours, created_at, updated_at
		FROM daily_health_summaries WHERE user_id = ? AND date = ?`,
		record.UserID, day)
	stored, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyRecord{}, storage.ErrNotFound
	}
	return stored, err
}

func (s *Store) ListDailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, weight_kg, body_fat_percent, sleep_hours, created_at, updated_at
		FROM daily_health_summaries
		WHERE user_id = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC`,
		userID, from.Format(models.DateLayout), to.Format(models.DateLayout))
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM daily_health_summaries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.DailyRecord, error) {
	var r models.DailyRecord
	var day, createdAt, updatedAt string
	var weight, bodyFat, sleep sql.NullFloat64

	if err := row.Scan(&r.ID, &r.UserID, &day, &weight, &bodyFat, &sleep, &createdAt, &updatedAt); err != nil {
		return models.DailyRecord{}, err
	}

	var err error
	if r.Date, err = time.Parse(models.DateLayout, day); err != nil {
		return models.DailyRecord{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if r.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return models.DailyRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return models.DailyRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	r.WeightKg = floatPtr(weight)
	r.BodyFatPercent = floatPtr(bodyFat)
	r.SleepHours = floatPtr(sleep)
	return r, nil
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
