package health

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"healthsummary/apps/backend/internal/models"
)

const (
	WindowDays         = 7
	minRecordsInWindow = 3
	minDaysForQuality  = 4

	consistentSleepStdDev = 0.75
	moderateSleepStdDev   = 1.25

	coverageWeight  = 0.5
	agreementWeight = 0.3
	stabilityWeight = 0.2
)

// WindowBounds returns the inclusive [today-6, today] calendar window.
func WindowBounds(today time.Time) (time.Time, time.Time) {
	end := models.CalendarDate(today)
	return end.AddDate(0, 0, -(WindowDays - 1)), end
}

// ComputeWeekly turns the daily records of one user and their active goal
// into a weekly summary anchored on today. It performs no I/O and leaves
// AINarrative unset. Records outside the window are ignored.
func ComputeWeekly(records []models.DailyRecord, goal *models.Goal, today time.Time) WeeklySummary {
	start, end := WindowBounds(today)

	days := make([]models.DailyRecord, 0, len(records))
	for _, record := range records {
		date := models.CalendarDate(record.Date)
		if date.Before(start) || date.After(end) {
			continue
		}
		days = append(days, record)
	}
	if len(days) < minRecordsInWindow {
		return insufficientSummary()
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	label := GoalMaintenance
	var startingWeight, startingBodyFat *float64
	if goal != nil {
		label = NormalizeGoal(goal.Goal)
		startingWeight = goal.Weight
		startingBodyFat = goal.BodyFatPercent
	}

	weightChange := changeAgainst(startingWeight, latest(days, func(r models.DailyRecord) *float64 { return r.WeightKg }))
	bodyFatChange := changeAgainst(startingBodyFat, latest(days, func(r models.DailyRecord) *float64 { return r.BodyFatPercent }))

	sleepValues := make([]float64, 0, len(days))
	daysWithWeight := 0
	for _, day := range days {
		if day.WeightKg != nil {
			daysWithWeight++
		}
		if day.SleepHours != nil {
			sleepValues = append(sleepValues, *day.SleepHours)
		}
	}
	daysWithSleep := len(sleepValues)

	dataQuality := QualityGood
	if daysWithWeight < minDaysForQuality || daysWithSleep < minDaysForQuality {
		dataQuality = QualityLow
	}

	averageSleep, sleepStdDev := sleepStats(sleepValues)
	sleepConsistency := SleepInconsistent
	if sleepStdDev < consistentSleepStdDev {
		sleepConsistency = SleepConsistent
	}

	status := label.classify(weightChange)

	coverage := float64(min(daysWithWeight, WindowDays)+min(daysWithSleep, WindowDays)) / float64(2*WindowDays)
	agreement := signalAgreement(weightChange, bodyFatChange)
	stability := sleepStability(sleepStdDev)
	confidence := round2(coverageWeight*coverage + agreementWeight*agreement + stabilityWeight*stability)

	return WeeklySummary{
		WeekStart:            start.Format(models.DateLayout),
		WeekEnd:              end.Format(models.DateLayout),
		WeightChangeKg:       weightChange,
		BodyFatChangePercent: bodyFatChange,
		AverageSleepHours:    averageSleep,
		SleepStdDev:          sleepStdDev,
		SleepConsistency:     sleepConsistency,
		DataQuality:          dataQuality,
		Confidence:           confidence,
		Status:               status,
		Recommendation:       recommend(label, status, sleepConsistency),
		Goal:                 label,
		DataCoverage:         coverage,
		SignalAgreement:      agreement,
		SleepStability:       stability,
		DaysWithWeight:       daysWithWeight,
		DaysWithSleep:        daysWithSleep,
	}
}

// latest returns the value from the most recent day where pick is non-nil.
// days must be sorted by date ascending.
func latest(days []models.DailyRecord, pick func(models.DailyRecord) *float64) *float64 {
	for i := len(days) - 1; i >= 0; i-- {
		if value := pick(days[i]); value != nil {
			return value
		}
	}
	return nil
}

// changeAgainst returns round(current - start, 2), or nil unless both values
// are present and non-zero. A stored reference of exactly 0 counts as absent.
func changeAgainst(start, current *float64) *float64 {
	if start == nil || current == nil || *start == 0 || *current == 0 {
		return nil
	}
	change := decimal.NewFromFloat(*current).
		Sub(decimal.NewFromFloat(*start)).
		Round(2).
		InexactFloat64()
	return &change
}

// sleepStats returns the mean rounded to 2dp and the population standard
// deviation around that rounded mean, also rounded to 2dp. An empty set has
// no mean and a deviation of 0.
func sleepStats(values []float64) (*float64, float64) {
	if len(values) == 0 {
		return nil, 0
	}
	sum := decimal.Zero
	for _, value := range values {
		sum = sum.Add(decimal.NewFromFloat(value))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).InexactFloat64()

	squares := 0.0
	for _, value := range values {
		diff := value - mean
		squares += diff * diff
	}
	stdDev := round2(math.Sqrt(squares / float64(len(values))))
	return &mean, stdDev
}

// signalAgreement is 1.0 unless both changes are known and do not share a
// strict sign. Zero is neither negative nor positive.
func signalAgreement(weightChange, bodyFatChange *float64) float64 {
	if weightChange == nil || bodyFatChange == nil {
		return 1.0
	}
	w, b := *weightChange, *bodyFatChange
	if (w < 0 && b < 0) || (w > 0 && b > 0) {
		return 1.0
	}
	return 0.6
}

func sleepStability(stdDev float64) float64 {
	switch {
	case stdDev < consistentSleepStdDev:
		return 1.0
	case stdDev < moderateSleepStdDev:
		return 0.8
	default:
		return 0.6
	}
}

func recommend(goal GoalLabel, status, sleepConsistency string) string {
	switch {
	case goal == GoalFatLoss && status == StatusStable:
		return recommendationFatLossStable
	case goal == GoalMuscleGain && status == StatusStable:
		return recommendationMuscleGainStable
	case sleepConsistency == SleepInconsistent:
		return recommendationSleepInconsistent
	case status == StatusImproving:
		return recommendationImproving
	case status == StatusRegressing:
		return recommendationRegressing
	default:
		return recommendationDefault
	}
}

// round2 rounds half away from zero to two decimal places.
func round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}
