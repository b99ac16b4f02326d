package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/storage"
)

// ValidationError reports a domain-level input violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type DailyInput struct {
	DeviceID       string
	Date           time.Time
	WeightKg       *float64
	BodyFatPercent *float64
	SleepHours     *float64
}

type GoalInput struct {
	Goal           string
	Weight         *float64
	BodyFatPercent *float64
	StartsAt       *time.Time
}

type Service struct {
	store    storage.Provider
	narrator Narrator
	location *time.Location
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*Service)

// WithClock overrides the wall clock used to anchor the weekly window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store storage.Provider, narrator Narrator, opts ...Option) *Service {
	if narrator == nil {
		narrator = NoNarrator{}
	}
	s := &Service{
		store:    store,
		narrator: narrator,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the service's timezone.
func (s *Service) Today() time.Time {
	return models.CalendarDate(s.now().In(s.location))
}

// WeeklySummary computes the summary for userID over the window ending
// today. An unknown user yields storage.ErrNotFound. The narrative is
// attached best-effort after the numeric summary is final.
func (s *Service) WeeklySummary(ctx context.Context, userID string) (WeeklySummary, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return WeeklySummary{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	today := s.Today()
	start, end := WindowBounds(today)
	records, err := s.store.ListDailyRecords(ctx, userID, start, end)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("load daily records: %w", err)
	}

	var goal *models.Goal
	goalText := string(GoalMaintenance)
	latest, err := s.store.LatestGoal(ctx, userID)
	switch {
	case err == nil:
		goal = &latest
		goalText = latest.Goal
	case errors.Is(err, storage.ErrNotFound):
	default:
		return WeeklySummary{}, fmt.Errorf("load active goal: %w", err)
	}

	summary := ComputeWeekly(records, goal, today)
	if summary.Insufficient {
		return summary, nil
	}
	if s.logger != nil {
		s.logger.Debug(
			"weekly summary computed",
			"user_id", userID,
			"goal", summary.Goal,
			"status", summary.Status,
			"confidence", summary.Confidence,
			"coverage", summary.DataCoverage,
			"agreement", summary.SignalAgreement,
			"stability", summary.SleepStability,
		)
	}
	summary.AINarrative = s.narrator.Narrate(ctx, summary, goalText)
	return summary, nil
}

// IngestDaily upserts one record for the device's user. Non-positive sleep
// is stored as absent.
func (s *Service) IngestDaily(ctx context.Context, input DailyInput) (models.DailyRecord, error) {
	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		return models.DailyRecord{}, &ValidationError{Field: "device_id", Message: "is required"}
	}
	if input.Date.IsZero() {
		return models.DailyRecord{}, &ValidationError{Field: "date", Message: "is required"}
	}
	if input.WeightKg != nil && *input.WeightKg <= 0 {
		return models.DailyRecord{}, &ValidationError{Field: "weight", Message: "must be positive"}
	}
	if err := checkBodyFat(input.BodyFatPercent); err != nil {
		return models.DailyRecord{}, err
	}

	user, err := s.store.FindOrCreateUserByDevice(ctx, deviceID)
	if err != nil {
		return models.DailyRecord{}, fmt.Errorf("resolve user for device: %w", err)
	}

	sleep := input.SleepHours
	if sleep != nil && *sleep <= 0 {
		sleep = nil
	}

	record, err := s.store.UpsertDailyRecord(ctx, models.DailyRecord{
		UserID:         user.ID,
		Date:           models.CalendarDate(input.Date),
		WeightKg:       input.WeightKg,
		BodyFatPercent: input.BodyFatPercent,
		SleepHours:     sleep,
	})
	if err != nil {
		return models.DailyRecord{}, fmt.Errorf("upsert daily record: %w", err)
	}
	return record, nil
}

// DailyRecords lists the user's records between from and to inclusive.
func (s *Service) DailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyRecord, error) {
	if to.Before(from) {
		return nil, &ValidationError{Field: "to", Message: "must not be before from"}
	}
	return s.store.ListDailyRecords(ctx, userID, models.CalendarDate(from), models.CalendarDate(to))
}

// CreateGoal stores a new goal; it becomes the active one. Unrecognized
// labels are kept verbatim and read back as maintenance.
func (s *Service) CreateGoal(ctx context.Context, userID string, input GoalInput) (models.Goal, error) {
	label := strings.TrimSpace(input.Goal)
	if label == "" {
		return models.Goal{}, &ValidationError{Field: "goal", Message: "is required"}
	}
	if input.Weight != nil && *input.Weight < 0 {
		return models.Goal{}, &ValidationError{Field: "weight", Message: "must not be negative"}
	}
	if err := checkBodyFat(input.BodyFatPercent); err != nil {
		return models.Goal{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return models.Goal{}, fmt.Errorf("load user %s: %w", userID, err)
	}

	goal := models.Goal{
		UserID:         userID,
		Goal:           label,
		Weight:         input.Weight,
		BodyFatPercent: input.BodyFatPercent,
	}
	if input.StartsAt != nil {
		startsAt := models.CalendarDate(*input.StartsAt)
		goal.StartsAt = &startsAt
	}
	created, err := s.store.CreateGoal(ctx, goal)
	if err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

// ActiveGoal returns the latest goal or storage.ErrNotFound.
func (s *Service) ActiveGoal(ctx context.Context, userID string) (models.Goal, error) {
	return s.store.LatestGoal(ctx, userID)
}

func (s *Service) UserByDevice(ctx context.Context, deviceID string) (models.User, error) {
	return s.store.GetUserByDevice(ctx, strings.TrimSpace(deviceID))
}

func (s *Service) FindOrCreateUser(ctx context.Context, deviceID string) (models.User, error) {
	return s.store.FindOrCreateUserByDevice(ctx, strings.TrimSpace(deviceID))
}

func checkBodyFat(value *float64) error {
	if value != nil && (*value < 0 || *value > 100) {
		return &ValidationError{Field: "body_fat_percent", Message: "must be between 0 and 100"}
	}
	return nil
}
