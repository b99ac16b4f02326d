package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"healthsummary/apps/backend/internal/config"
	"healthsummary/apps/backend/internal/health"
	"healthsummary/apps/backend/internal/logger"
	"healthsummary/apps/backend/internal/models"
	"healthsummary/apps/backend/internal/seed"
	"healthsummary/apps/backend/internal/storage"
	"healthsummary/apps/backend/internal/storage/backend"
)

type appContext struct {
	ctx      context.Context
	store    storage.Provider
	location *time.Location
}

var CLI struct {
	Database string `help:"Postgres URL or SQLite path." env:"DATABASE_URL" required:""`
	Timezone string `help:"Timezone anchoring today." env:"APP_TIMEZONE" default:"UTC"`
	LogLevel string `help:"Log level." env:"LOG_LEVEL" default:"info"`

	Seed    SeedCmd    `cmd:"" help:"Insert synthetic daily records for a device."`
	Cleanup CleanupCmd `cmd:"" help:"Delete a device's daily records and goals."`
}

type SeedCmd struct {
	Device        string  `help:"Device id (UUID). A new one is generated when empty."`
	Days          int     `help:"Number of days ending today." default:"7"`
	End           string  `help:"Last day to seed (YYYY-MM-DD). Defaults to today."`
	Goal          string  `help:"Goal label to create before seeding (fat_loss, muscle_gain, maintenance)."`
	Weight        float64 `help:"Weight on the first day, in kg." default:"80"`
	WeightPerDay  float64 `help:"Weight change per day, in kg." default:"-0.1"`
	BodyFat       float64 `help:"Body fat on the first day, in percent. Zero skips the metric." default:"0"`
	BodyFatPerDay float64 `help:"Body fat change per day." default:"0"`
	Sleep         float64 `help:"Baseline sleep hours." default:"7.5"`
	SkipSleep     int     `help:"Leave sleep empty on every Nth day. Zero records sleep daily." default:"0"`
}

func (c *SeedCmd) Run(app *appContext) error {
	opts := seed.Options{
		DeviceID:       c.Device,
		Days:           c.Days,
		Goal:           c.Goal,
		StartWeight:    c.Weight,
		WeightPerDay:   c.WeightPerDay,
		StartBodyFat:   c.BodyFat,
		BodyFatPerDay:  c.BodyFatPerDay,
		SleepHours:     c.Sleep,
		SkipSleepEvery: c.SkipSleep,
	}
	if c.End != "" {
		end, err := time.Parse(models.DateLayout, c.End)
		if err != nil {
			return fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
		}
		opts.EndDate = end
	}

	service := health.NewService(app.store, health.NoNarrator{},
		health.WithLocation(app.location),
		health.WithLogger(logger.Logger),
	)
	result, err := seed.Run(app.ctx, service, opts)
	if err != nil {
		return err
	}

	fmt.Printf("seeded device_id=%s user_id=%s records=%d", result.DeviceID, result.UserID, result.Records)
	if result.GoalID != 0 {
		fmt.Printf(" goal_id=%d", result.GoalID)
	}
	fmt.Println()
	return nil
}

type CleanupCmd struct {
	Device string `help:"Device id whose data is removed." required:""`
}

func (c *CleanupCmd) Run(app *appContext) error {
	records, goals, err := seed.Cleanup(app.ctx, app.store, c.Device)
	if err != nil {
		return err
	}
	fmt.Printf("cleanup done device_id=%s records=%d goals=%d\n", c.Device, records, goals)
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("seed"),
		kong.Description("Seed or clean synthetic health summary data."),
		kong.UsageOnError(),
	)

	if err := run(kctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context) error {
	if err := logger.Init(logger.Config{Level: CLI.LogLevel, Prefix: "seed"}); err != nil {
		return err
	}

	cfg := config.Config{AppTimezone: CLI.Timezone}
	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, CLI.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	return kctx.Run(&appContext{ctx: ctx, store: store, location: location})
}
