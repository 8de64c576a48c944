// Package confidence provides score math for the recommendation engine.
package confidence

// Level buckets a net confidence signal into three grades.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Weights applied to reasons and warnings when deriving confidence.
const (
	ReasonWeight  = 5.0
	WarningWeight = 3.0
)

// ClampScore ensures a score is in the valid range [0, 100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Net computes the confidence signal from reason and warning counts.
func Net(reasons, warnings int) float64 {
	return float64(reasons)*ReasonWeight - float64(warnings)*WarningWeight
}

// Bucket maps a net signal to a confidence level. Deterministic: the
// same reasons and warnings always yield the same level.
func Bucket(net float64) Level {
	switch {
	case net >= 15:
		return LevelHigh
	case net >= 5:
		return LevelMedium
	default:
		return LevelLow
	}
}
