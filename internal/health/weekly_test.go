package health

import (
	"encoding/json"
	"math"
	"sort"
	"testing"
	"time"

	"healthsummary/apps/backend/internal/models"
)

var testToday = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func record(date string, weight, bodyFat, sleep *float64) models.DailyRecord {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return models.DailyRecord{
		Date:           day,
		WeightKg:       weight,
		BodyFatPercent: bodyFat,
		SleepHours:     sleep,
	}
}

func goalWith(label string, weight, bodyFat *float64) *models.Goal {
	return &models.Goal{Goal: label, Weight: weight, BodyFatPercent: bodyFat}
}

func TestWindowBounds(t *testing.T) {
	start, end := WindowBounds(time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC))
	if got := start.Format(models.DateLayout); got != "2024-02-24" {
		t.Fatalf("expected window start 2024-02-24, got %s", got)
	}
	if got := end.Format(models.DateLayout); got != "2024-03-01" {
		t.Fatalf("expected window end 2024-03-01, got %s", got)
	}
}

func TestComputeWeeklyInsufficientData(t *testing.T) {
	records := []models.DailyRecord{
		record("2024-03-09", f(80), f(20), f(7)),
		record("2024-03-10", f(79), f(19), f(7)),
		// Outside the window on both sides.
		record("2024-03-03", f(81), f(21), f(7)),
		record("2024-03-02", f(81), f(21), f(7)),
		record("2024-03-11", f(78), f(18), f(7)),
	}

	summary := ComputeWeekly(records, goalWith("fat_loss", f(82), f(22)), testToday)
	if !summary.Insufficient {
		t.Fatalf("expected insufficient summary, got %+v", summary)
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"status":"insufficient_data","message":"Not enough data yet","confidence":0}`
	if string(raw) != want {
		t.Fatalf("unexpected insufficient body:\n got %s\nwant %s", raw, want)
	}
}

func TestComputeWeeklyMuscleGainImproving(t *testing.T) {
	weights := []float64{70.0, 70.1, 70.3, 70.4, 70.5, 70.7, 70.8}
	sleeps := []float64{7.5, 7.4, 7.6, 7.5, 7.5, 7.6, 7.4}
	var records []models.DailyRecord
	for i := range weights {
		day := testToday.AddDate(0, 0, i-6).Format(models.DateLayout)
		records = append(records, record(day, f(weights[i]), nil, f(sleeps[i])))
	}

	summary := ComputeWeekly(records, goalWith("muscle_gain", f(70.0), nil), testToday)

	if summary.Insufficient {
		t.Fatalf("expected a full summary")
	}
	if summary.WeekStart != "2024-03-04" || summary.WeekEnd != "2024-03-10" {
		t.Fatalf("unexpected window %s..%s", summary.WeekStart, summary.WeekEnd)
	}
	if summary.WeightChangeKg == nil || *summary.WeightChangeKg != 0.8 {
		t.Fatalf("expected weight change 0.8, got %v", summary.WeightChangeKg)
	}
	if summary.Status != StatusImproving {
		t.Fatalf("expected improving, got %s", summary.Status)
	}
	if summary.SleepConsistency != SleepConsistent {
		t.Fatalf("expected consistent sleep, got %s (stddev %v)", summary.SleepConsistency, summary.SleepStdDev)
	}
	if summary.AverageSleepHours == nil || *summary.AverageSleepHours != 7.5 {
		t.Fatalf("expected average sleep 7.5, got %v", summary.AverageSleepHours)
	}
	if summary.Recommendation != recommendationImproving {
		t.Fatalf("unexpected recommendation %q", summary.Recommendation)
	}
	if summary.DataQuality != QualityGood {
		t.Fatalf("expected good data quality, got %s", summary.DataQuality)
	}
	if summary.Confidence < 0.8 {
		t.Fatalf("expected confidence >= 0.8, got %v", summary.Confidence)
	}
	if summary.BodyFatChangePercent != nil {
		t.Fatalf("expected no body fat change, got %v", *summary.BodyFatChangePercent)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		goal   GoalLabel
		change *float64
		want   string
	}{
		{GoalFatLoss, f(-0.35), StatusImproving},
		{GoalFatLoss, f(-0.3), StatusImproving},
		{GoalFatLoss, f(0.25), StatusRegressing},
		{GoalFatLoss, f(0.2), StatusRegressing},
		{GoalFatLoss, f(-0.1), StatusStable},
		{GoalMaintenance, f(-0.2), StatusImproving},
		{GoalMaintenance, f(-0.25), StatusImproving},
		{GoalMaintenance, f(0.2), StatusRegressing},
		{GoalMaintenance, f(0.1), StatusStable},
		{GoalMuscleGain, f(0.2), StatusImproving},
		{GoalMuscleGain, f(0.8), StatusImproving},
		{GoalMuscleGain, f(-0.2), StatusRegressing},
		{GoalMuscleGain, f(0), StatusStable},
		{GoalFatLoss, nil, StatusStable},
		{GoalMuscleGain, nil, StatusStable},
	}
	for _, tt := range tests {
		if got := tt.goal.classify(tt.change); got != tt.want {
			t.Errorf("%s with change %q: got %s, want %s", tt.goal, formatOptional(tt.change), got, tt.want)
		}
	}
}

func TestNormalizeGoal(t *testing.T) {
	tests := map[string]GoalLabel{
		"fat_loss":      GoalFatLoss,
		"muscle_gain":   GoalMuscleGain,
		"maintenance":   GoalMaintenance,
		" fat_loss ":    GoalFatLoss,
		"bulk":          GoalMaintenance,
		"":              GoalMaintenance,
		"FAT_LOSS":      GoalMaintenance,
		"muscle_gain\n": GoalMuscleGain,
	}
	for raw, want := range tests {
		if got := NormalizeGoal(raw); got != want {
			t.Errorf("NormalizeGoal(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestComputeWeeklyWithoutGoalUsesMaintenance(t *testing.T) {
	records := []models.DailyRecord{
		record("2024-03-08", f(80.0), nil, f(7)),
		record("2024-03-09", f(79.9), nil, f(7)),
		record("2024-03-10", f(79.75), nil, f(7)),
	}

	summary := ComputeWeekly(records, nil, testToday)
	if summary.Goal != GoalMaintenance {
		t.Fatalf("expected maintenance, got %s", summary.Goal)
	}
	// No goal means no starting weight, so there is no change to classify.
	if summary.WeightChangeKg != nil {
		t.Fatalf("expected nil weight change without a goal, got %v", *summary.WeightChangeKg)
	}
	if summary.Status != StatusStable {
		t.Fatalf("expected stable, got %s", summary.Status)
	}
	if summary.Recommendation != recommendationDefault {
		t.Fatalf("unexpected recommendation %q", summary.Recommendation)
	}
}

func TestComputeWeeklyZeroReferencesCountAsAbsent(t *testing.T) {
	tests := []struct {
		name          string
		goal          *models.Goal
		latestWeight  *float64
		latestBodyFat *float64
	}{
		{name: "zero starting weight", goal: goalWith("fat_loss", f(0), f(0)), latestWeight: f(79), latestBodyFat: f(19)},
		{name: "zero current weight", goal: goalWith("fat_loss", f(80), f(20)), latestWeight: f(0), latestBodyFat: f(0)},
		{name: "missing starting weight", goal: goalWith("fat_loss", nil, nil), latestWeight: f(79), latestBodyFat: f(19)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []models.DailyRecord{
				record("2024-03-08", f(80), f(20), f(7)),
				record("2024-03-09", f(80), f(20), f(7)),
				record("2024-03-10", tt.latestWeight, tt.latestBodyFat, f(7)),
			}
			summary := ComputeWeekly(records, tt.goal, testToday)
			if summary.WeightChangeKg != nil {
				t.Fatalf("expected nil weight change, got %v", *summary.WeightChangeKg)
			}
			if summary.BodyFatChangePercent != nil {
				t.Fatalf("expected nil body fat change, got %v", *summary.BodyFatChangePercent)
			}
			if summary.Status != StatusStable {
				t.Fatalf("expected stable, got %s", summary.Status)
			}
		})
	}
}

func TestComputeWeeklyUsesMostRecentValue(t *testing.T) {
	// Unsorted input; the latest day lacks weight so the day before wins.
	records := []models.DailyRecord{
		record("2024-03-10", nil, f(19.5), f(7)),
		record("2024-03-06", f(81), f(21), f(7)),
		record("2024-03-09", f(79.6), nil, f(7)),
		record("2024-03-05", f(82), f(22), f(7)),
	}

	summary := ComputeWeekly(records, goalWith("fat_loss", f(80), f(20)), testToday)
	if summary.WeightChangeKg == nil || *summary.WeightChangeKg != -0.4 {
		t.Fatalf("expected weight change -0.4, got %v", summary.WeightChangeKg)
	}
	if summary.BodyFatChangePercent == nil || *summary.BodyFatChangePercent != -0.5 {
		t.Fatalf("expected body fat change -0.5, got %v", summary.BodyFatChangePercent)
	}
	if summary.Status != StatusImproving {
		t.Fatalf("expected improving, got %s", summary.Status)
	}
	if summary.SignalAgreement != 1.0 {
		t.Fatalf("expected agreeing signals, got %v", summary.SignalAgreement)
	}
}

func TestChangeAgainstRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		start, current float64
		want           float64
	}{
		{start: 1, current: 1.005, want: 0.01},
		{start: 1.005, current: 1, want: -0.01},
		{start: 70, current: 70.8, want: 0.8},
		{start: 80.15, current: 80, want: -0.15},
	}
	for _, tt := range tests {
		got := changeAgainst(f(tt.start), f(tt.current))
		if got == nil || *got != tt.want {
			t.Errorf("changeAgainst(%v, %v) = %v, want %v", tt.start, tt.current, got, tt.want)
		}
	}
}

func TestComputeWeeklyLowQualityWithThreeSleepDays(t *testing.T) {
	var records []models.DailyRecord
	for i := 0; i < 7; i++ {
		day := testToday.AddDate(0, 0, -i).Format(models.DateLayout)
		var sleep *float64
		if i < 3 {
			sleep = f(7)
		}
		records = append(records, record(day, f(80), nil, sleep))
	}

	summary := ComputeWeekly(records, goalWith("maintenance", f(80), nil), testToday)
	if summary.DataQuality != QualityLow {
		t.Fatalf("expected low data quality, got %s", summary.DataQuality)
	}
	if summary.DaysWithWeight != 7 || summary.DaysWithSleep != 3 {
		t.Fatalf("unexpected day counts: weight=%d sleep=%d", summary.DaysWithWeight, summary.DaysWithSleep)
	}
	// coverage 10/14, agreement 1, stability 1
	if summary.Confidence != 0.86 {
		t.Fatalf("expected confidence 0.86, got %v", summary.Confidence)
	}
}

func TestComputeWeeklyWithoutSleep(t *testing.T) {
	records := []models.DailyRecord{
		record("2024-03-08", f(80), nil, nil),
		record("2024-03-09", f(80), nil, nil),
		record("2024-03-10", f(80), nil, nil),
	}

	summary := ComputeWeekly(records, nil, testToday)
	if summary.AverageSleepHours != nil {
		t.Fatalf("expected nil average sleep, got %v", *summary.AverageSleepHours)
	}
	if summary.SleepStdDev != 0 || summary.SleepConsistency != SleepConsistent {
		t.Fatalf("expected zero deviation and consistent sleep, got %v %s", summary.SleepStdDev, summary.SleepConsistency)
	}
	if summary.DataQuality != QualityLow {
		t.Fatalf("expected low data quality, got %s", summary.DataQuality)
	}
	if summary.Confidence != 0.61 {
		t.Fatalf("expected confidence 0.61, got %v", summary.Confidence)
	}
}

func TestSleepStats(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantMean   float64
		wantStdDev float64
		wantStable float64
	}{
		{name: "flat", values: []float64{7, 7, 7}, wantMean: 7, wantStdDev: 0, wantStable: 1.0},
		{name: "thirds", values: []float64{7, 7, 8}, wantMean: 7.33, wantStdDev: 0.47, wantStable: 1.0},
		{name: "one hour spread", values: []float64{6, 8}, wantMean: 7, wantStdDev: 1, wantStable: 0.8},
		{name: "two hour spread", values: []float64{5, 9}, wantMean: 7, wantStdDev: 2, wantStable: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, stdDev := sleepStats(tt.values)
			if mean == nil || *mean != tt.wantMean {
				t.Fatalf("expected mean %v, got %v", tt.wantMean, mean)
			}
			if stdDev != tt.wantStdDev {
				t.Fatalf("expected stddev %v, got %v", tt.wantStdDev, stdDev)
			}
			if got := sleepStability(stdDev); got != tt.wantStable {
				t.Fatalf("expected stability %v, got %v", tt.wantStable, got)
			}
		})
	}
}

func TestSignalAgreement(t *testing.T) {
	tests := []struct {
		name    string
		weight  *float64
		bodyFat *float64
		want    float64
	}{
		{name: "weight missing", weight: nil, bodyFat: f(-0.5), want: 1.0},
		{name: "body fat missing", weight: f(0.3), bodyFat: nil, want: 1.0},
		{name: "both falling", weight: f(-1), bodyFat: f(-0.5), want: 1.0},
		{name: "both rising", weight: f(1), bodyFat: f(0.5), want: 1.0},
		{name: "opposite", weight: f(-1), bodyFat: f(0.5), want: 0.6},
		{name: "zero weight change", weight: f(0), bodyFat: f(-0.5), want: 0.6},
		{name: "both zero", weight: f(0), bodyFat: f(0), want: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signalAgreement(tt.weight, tt.bodyFat); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendFirstMatchWins(t *testing.T) {
	tests := []struct {
		name        string
		goal        GoalLabel
		status      string
		consistency string
		want        string
	}{
		{"fat loss stable beats inconsistent sleep", GoalFatLoss, StatusStable, SleepInconsistent, recommendationFatLossStable},
		{"muscle gain stable beats inconsistent sleep", GoalMuscleGain, StatusStable, SleepInconsistent, recommendationMuscleGainStable},
		{"inconsistent sleep beats improving", GoalMaintenance, StatusImproving, SleepInconsistent, recommendationSleepInconsistent},
		{"inconsistent sleep beats regressing", GoalFatLoss, StatusRegressing, SleepInconsistent, recommendationSleepInconsistent},
		{"improving", GoalMuscleGain, StatusImproving, SleepConsistent, recommendationImproving},
		{"regressing", GoalFatLoss, StatusRegressing, SleepConsistent, recommendationRegressing},
		{"maintenance stable", GoalMaintenance, StatusStable, SleepConsistent, recommendationDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recommend(tt.goal, tt.status, tt.consistency); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfidenceStaysInRangeAndRounded(t *testing.T) {
	options := []*float64{nil, f(0), f(7), f(5), f(9.5)}
	weights := []*float64{nil, f(79), f(80.4)}
	for _, sleepA := range options {
		for _, sleepB := range options {
			for _, weight := range weights {
				records := []models.DailyRecord{
					record("2024-03-04", f(80), f(20), sleepA),
					record("2024-03-07", weight, f(21), sleepB),
					record("2024-03-10", weight, nil, sleepA),
				}
				summary := ComputeWeekly(records, goalWith("fat_loss", f(80), f(20)), testToday)
				c := summary.Confidence
				if c < 0 || c > 1 {
					t.Fatalf("confidence out of range: %v", c)
				}
				if math.Round(c*100)/100 != c {
					t.Fatalf("confidence not rounded to 2dp: %v", c)
				}
			}
		}
	}
}

func TestWeeklySummaryJSONShape(t *testing.T) {
	records := []models.DailyRecord{
		record("2024-03-08", f(80), f(20), f(6)),
		record("2024-03-09", f(79.9), f(20), f(8)),
		record("2024-03-10", f(79.9), f(20.1), f(6)),
	}
	summary := ComputeWeekly(records, goalWith("fat_loss", f(80), f(20)), testToday)

	raw, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var keys []string
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	want := []string{
		"ai_narrative", "average_sleep_hours", "body_fat_change_percent", "confidence",
		"data_quality", "recommendation", "sleep_consistency", "status",
		"week_end", "week_start", "weight_change_kg",
	}
	if len(keys) != len(want) {
		t.Fatalf("unexpected keys %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("unexpected keys %v", keys)
		}
	}
	if decoded["ai_narrative"] != nil {
		t.Fatalf("expected null narrative, got %v", decoded["ai_narrative"])
	}
	if decoded["status"] != StatusStable || decoded["recommendation"] != recommendationFatLossStable {
		t.Fatalf("unexpected status/recommendation: %v / %v", decoded["status"], decoded["recommendation"])
	}
	// 6, 8, 6 around 6.67 gives 0.94.
	if decoded["sleep_consistency"] != SleepInconsistent || summary.SleepStdDev != 0.94 {
		t.Fatalf("expected inconsistent sleep with stddev 0.94, got %v %v", decoded["sleep_consistency"], summary.SleepStdDev)
	}
}
