package health

import "strings"

type GoalLabel string

const (
	GoalFatLoss     GoalLabel = "fat_loss"
	GoalMaintenance GoalLabel = "maintenance"
	GoalMuscleGain  GoalLabel = "muscle_gain"
)

// thresholds hold the literal weight-change boundaries for a goal. Each row is
// compared as written; muscle_gain flips the direction of both checks.
type thresholds struct {
	improving  float64
	regressing float64
}

// NormalizeGoal maps a stored goal string onto the closed vocabulary.
// Anything unrecognized resolves to maintenance.
func NormalizeGoal(raw string) GoalLabel {
	switch GoalLabel(strings.TrimSpace(raw)) {
	case GoalFatLoss:
		return GoalFatLoss
	case GoalMuscleGain:
		return GoalMuscleGain
	case GoalMaintenance:
		return GoalMaintenance
	default:
		return GoalMaintenance
	}
}

func (g GoalLabel) thresholds() thresholds {
	switch g {
	case GoalFatLoss:
		return thresholds{improving: -0.3, regressing: 0.2}
	case GoalMuscleGain:
		return thresholds{improving: 0.2, regressing: -0.2}
	default:
		return thresholds{improving: -0.2, regressing: 0.2}
	}
}

// classify returns improving, regressing or stable for a weight change.
// Improving wins when both comparisons would match.
func (g GoalLabel) classify(weightChange *float64) string {
	if weightChange == nil {
		return StatusStable
	}
	change := *weightChange
	limits := g.thresholds()

	switch g {
	case GoalMuscleGain:
		if change >= limits.improving {
			return StatusImproving
		}
		if change <= limits.regressing {
			return StatusRegressing
		}
	default:
		if change <= limits.improving {
			return StatusImproving
		}
		if change >= limits.regressing {
			return StatusRegressing
		}
	}
	return StatusStable
}
