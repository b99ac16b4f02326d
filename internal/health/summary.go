package health

import (
	"encoding/json"
)

const (
	StatusInsufficientData = "insufficient_data"
	StatusImproving        = "improving"
	StatusRegressing       = "regressing"
	StatusStable           = "stable"

	QualityLow  = "low"
	QualityGood = "good"

	SleepConsistent   = "consistent"
	SleepInconsistent = "inconsistent"

	insufficientDataMessage = "Not enough data yet"
)

const (
	recommendationFatLossStable     = "Progress is steady. Focus on consistency rather than tightening further."
	recommendationMuscleGainStable  = "Ensure recovery and nutrition support training adaptations."
	recommendationSleepInconsistent = "Focus on consistent sleep timing to support recovery."
	recommendationImproving         = "Progress looks good. Maintain current habits."
	recommendationRegressing        = "Review calorie intake and daily movement this week."
	recommendationDefault           = "Stay consistent and monitor trends next week."
)

// WeeklySummary is computed fresh per request and never stored.
//
// When Insufficient is set only Status, Message and Confidence are
// meaningful and the JSON form carries exactly those three keys.
type WeeklySummary struct {
	Insufficient bool
	Message      string

	WeekStart            string
	WeekEnd              string
	WeightChangeKg       *float64
	BodyFatChangePercent *float64
	AverageSleepHours    *float64
	SleepStdDev          float64
	SleepConsistency     string
	DataQuality          string
	Confidence           float64
	Status               string
	Recommendation       string
	AINarrative          *string

	// Goal is the resolved goal label the summary was computed against.
	Goal GoalLabel

	// Sub-scores behind Confidence, kept for logging and tests.
	DataCoverage    float64
	SignalAgreement float64
	SleepStability  float64
	DaysWithWeight  int
	DaysWithSleep   int
}

func insufficientSummary() WeeklySummary {
	return WeeklySummary{
		Insufficient: true,
		Status:       StatusInsufficientData,
		Message:      insufficientDataMessage,
		Confidence:   0.0,
	}
}

type insufficientJSON struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

type summaryJSON struct {
	WeekStart            string   `json:"week_start"`
	WeekEnd              string   `json:"week_end"`
	WeightChangeKg       *float64 `json:"weight_change_kg"`
	BodyFatChangePercent *float64 `json:"body_fat_change_percent"`
	AverageSleepHours    *float64 `json:"average_sleep_hours"`
	SleepConsistency     string   `json:"sleep_consistency"`
	DataQuality          string   `json:"data_quality"`
	Confidence           float64  `json:"confidence"`
	Status               string   `json:"status"`
	Recommendation       string   `json:"recommendation"`
	AINarrative          *string  `json:"ai_narrative"`
}

func (s WeeklySummary) MarshalJSON() ([]byte, error) {
	if s.Insufficient {
		return json.Marshal(insufficientJSON{
			Status:     s.Status,
			Message:    s.Message,
			Confidence: s.Confidence,
		})
	}
	return json.Marshal(summaryJSON{
		WeekStart:            s.WeekStart,
		WeekEnd:              s.WeekEnd,
		WeightChangeKg:       s.WeightChangeKg,
		BodyFatChangePercent: s.BodyFatChangePercent,
		AverageSleepHours:    s.AverageSleepHours,
		SleepConsistency:     s.SleepConsistency,
		DataQuality:          s.DataQuality,
		Confidence:           s.Confidence,
		Status:               s.Status,
		Recommendation:       s.Recommendation,
		AINarrative:          s.AINarrative,
	})
}
