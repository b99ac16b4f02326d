package server

import (
	"time"

	"healthsummary/apps/backend/internal/models"
)

type dailySummaryRequest struct {
	DeviceID       string   `json:"device_id" validate:"omitempty,uuid"`
	Date           string   `json:"date" validate:"required,calendar_date"`
	Weight         *float64 `json:"weight" validate:"omitempty,gt=0"`
	BodyFatPercent *float64 `json:"body_fat_percent" validate:"omitempty,gte=0,lte=100"`
	SleepHours     *float64 `json:"sleep_hours" validate:"omitempty,lte=24"`
}

type goalRequest struct {
	DeviceID       string   `json:"device_id" validate:"omitempty,uuid"`
	Goal           string   `json:"goal" validate:"required,max=64"`
	Weight         *float64 `json:"weight" validate:"omitempty,gte=0"`
	BodyFatPercent *float64 `json:"body_fat_percent" validate:"omitempty,gte=0,lte=100"`
	StartsAt       *string  `json:"starts_at" validate:"omitempty,calendar_date"`
}

type dailyRecordResponse struct {
	ID             int64     `json:"id"`
	Date           string    `json:"date"`
	Weight         *float64  `json:"weight"`
	BodyFatPercent *float64  `json:"body_fat_percent"`
	SleepHours     *float64  `json:"sleep_hours"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type goalResponse struct {
	ID             int64     `json:"id"`
	Goal           string    `json:"goal"`
	Weight         *float64  `json:"weight"`
	BodyFatPercent *float64  `json:"body_fat_percent"`
	StartsAt       *string   `json:"starts_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDailyRecordResponse(record models.DailyRecord) dailyRecordResponse {
	return dailyRecordResponse{
		ID:             record.ID,
		Date:           record.DateString(),
		Weight:         record.WeightKg,
		BodyFatPercent: record.BodyFatPercent,
		SleepHours:     record.SleepHours,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toGoalResponse(goal models.Goal) goalResponse {
	return goalResponse{
		ID:             goal.ID,
		Goal:           goal.Goal,
		Weight:         goal.Weight,
		BodyFatPercent: goal.BodyFatPercent,
		StartsAt:       goal.StartsAtString(),
		CreatedAt:      goal.CreatedAt,
	}
}
