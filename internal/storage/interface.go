package storage

import (
	"context"
	"errors"
	"time"

	"healthsummary/apps/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error

	// Users
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByDevice(ctx context.Context, deviceID string) (models.User, error)
	// FindOrCreateUserByDevice returns the user owning deviceID, creating
	// one on first sight.
	FindOrCreateUserByDevice(ctx context.Context, deviceID string) (models.User, error)

	// Daily records
	// UpsertDailyRecord inserts or fully replaces the record keyed by
	// (UserID, Date) and returns the stored row.
	UpsertDailyRecord(ctx context.Context, record models.DailyRecord) (models.DailyRecord, error)
	// ListDailyRecords returns records with from <= date <= to, oldest first.
	ListDailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyRecord, error)
	DeleteDailyRecords(ctx context.Context, userID string) (int64, error)

	// Goals
	CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error)
	// LatestGoal returns the most recently created goal or ErrNotFound.
	LatestGoal(ctx context.Context, userID string) (models.Goal, error)
	DeleteGoals(ctx context.Context, userID string) (int64, error)
}
