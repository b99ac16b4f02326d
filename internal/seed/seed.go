// Package seed fills a store with synthetic daily records for local
// development and demos.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"healthsummary/apps/backend/internal/health"
	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/storage"
)

// Offsets applied per day so generated weeks are not perfectly flat.
var (
	weightWobble = []float64{0, 0.1, -0.1, 0.05, 0, -0.05, 0.1}
	sleepWobble  = []float64{0, -0.3, 0.2, 0.1, -0.2, 0.3, -0.1}
)

type Options struct {
	DeviceID       string
	Days           int
	EndDate        time.Time
	Goal           string
	StartWeight    float64
	WeightPerDay   float64
	StartBodyFat   float64
	BodyFatPerDay  float64
	SleepHours     float64
	SkipSleepEvery int
}

type Result struct {
	UserID   string
	DeviceID string
	Records  int
	GoalID   int64
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DeviceID) == "" {
		o.DeviceID = uuid.NewString()
	}
	if o.Days <= 0 {
		o.Days = health.WindowDays
	}
	if o.StartWeight <= 0 {
		o.StartWeight = 80
	}
	if o.SleepHours <= 0 {
		o.SleepHours = 7.5
	}
	return o
}

// Run upserts Days records ending on EndDate and, when Goal is set, a goal
// anchored on the first generated day. Re-running replaces the same days.
func Run(ctx context.Context, svc *health.Service, opts Options) (Result, error) {
	opts = opts.withDefaults()
	end := opts.EndDate
	if end.IsZero() {
		end = svc.Today()
	}
	end = models.CalendarDate(end)
	start := end.AddDate(0, 0, -(opts.Days - 1))

	result := Result{DeviceID: opts.DeviceID}
	if goal := strings.TrimSpace(opts.Goal); goal != "" {
		user, err := svc.FindOrCreateUser(ctx, opts.DeviceID)
		if err != nil {
			return Result{}, fmt.Errorf("resolve user: %w", err)
		}
		input := health.GoalInput{
			Goal:     goal,
			Weight:   models.Float64Ptr(opts.StartWeight),
			StartsAt: &start,
		}
		if opts.StartBodyFat > 0 {
			input.BodyFatPercent = models.Float64Ptr(opts.StartBodyFat)
		}
		created, err := svc.CreateGoal(ctx, user.ID, input)
		if err != nil {
			return Result{}, fmt.Errorf("create goal: %w", err)
		}
		result.GoalID = created.ID
	}

	for i := 0; i < opts.Days; i++ {
		day := start.AddDate(0, 0, i)
		input := health.DailyInput{
			DeviceID: opts.DeviceID,
			Date:     day,
			WeightKg: round2(opts.StartWeight + opts.WeightPerDay*float64(i) + weightWobble[i%len(weightWobble)]),
		}
		if opts.StartBodyFat > 0 {
			input.BodyFatPercent = round2(opts.StartBodyFat + opts.BodyFatPerDay*float64(i))
		}
		if opts.SkipSleepEvery <= 0 || (i+1)%opts.SkipSleepEvery != 0 {
			input.SleepHours = round2(opts.SleepHours + sleepWobble[i%len(sleepWobble)])
		}

		record, err := svc.IngestDaily(ctx, input)
		if err != nil {
			return Result{}, fmt.Errorf("ingest %s: %w", day.Format(models.DateLayout), err)
		}
		result.UserID = record.UserID
		result.Records++
	}
	return result, nil
}

// Cleanup removes every record and goal owned by deviceID. The user row is
// kept so the device id stays stable.
func Cleanup(ctx context.Context, store storage.Provider, deviceID string) (int64, int64, error) {
	user, err := store.GetUserByDevice(ctx, strings.TrimSpace(deviceID))
	if err != nil {
		return 0, 0, fmt.Errorf("resolve user: %w", err)
	}
	records, err := store.DeleteDailyRecords(ctx, user.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete records: %w", err)
	}
	goals, err := store.DeleteGoals(ctx, user.ID)
	if err != nil {
		return records, 0, fmt.Errorf("delete goals: %w", err)
	}
	return records, goals, nil
}

func round2(value float64) *float64 {
	rounded := decimal.NewFromFloat(value).Round(2).InexactFloat64()
	return &rounded
}
