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

func (s *Store) CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	var startsAt sql.NullString
	if goal.StartsAt != nil {
		startsAt = sql.NullString{String: goal.StartsAt.Format(models.DateLayout), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_goals (user_id, goal, weight, body_fat_percent, starts_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		goal.UserID, goal.Goal, nullFloat(goal.Weight), nullFloat(goal.BodyFatPercent),
		startsAt, s.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return models.Goal{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Goal{}, err
	}
	return s.scanGoal(s.db.QueryRowContext(ctx, goalSelect+` WHERE id = ?`, id))
}

func (s *Store) LatestGoal(ctx context.Context, userID string) (models.Goal, error) {
	return s.scanGoal(s.db.QueryRowContext(ctx,
		goalSelect+` WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID))
}

func (s *Store) DeleteGoals(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_goals WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const goalSelect = `SELECT id, user_id, goal, weight, body_fat_percent, starts_at, created_at FROM user_goals`

func (s *Store) scanGoal(row *sql.Row) (models.Goal, error) {
	var g models.Goal
	var weight, bodyFat sql.NullFloat64
	var startsAt sql.NullString
	var createdAt string

	if err := row.Scan(&g.ID, &g.UserID, &g.Goal, &weight, &bodyFat, &startsAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Goal{}, storage.ErrNotFound
		}
		return models.Goal{}, err
	}

	var err error
	if g.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return models.Goal{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if startsAt.Valid {
		t, err := time.Parse(models.DateLayout, startsAt.String)
		if err != nil {
			return models.Goal{}, fmt.Errorf("failed to parse starts_at: %w", err)
		}
		g.StartsAt = &t
	}
	g.Weight = floatPtr(weight)
	g.BodyFatPercent = floatPtr(bodyFat)
	return g, nil
}
