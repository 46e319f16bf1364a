package exercise

// Stage is the discrete classification of the current joint angle relative
// to the exercise thresholds.
type Stage string

const (
	// StageDown means the angle is at or below the down threshold.
	StageDown Stage = "down"
	// StageUp means the angle is at or above the up threshold.
	StageUp Stage = "up"
	// StageNormal means the angle lies strictly between the thresholds.
	StageNormal Stage = "normal"
	// StageNone marks frames with no active exercise or no detection.
	StageNone Stage = "-"
)

// Classify maps an angle to a stage. Both threshold comparisons are
// inclusive and the down threshold is tested first, so a degenerate
// definition with downAngle >= upAngle resolves in favor of down.
func Classify(angle, downAngle, upAngle float64) Stage {
	switch {
	case angle <= downAngle:
		return StageDown
	case angle >= upAngle:
		return StageUp
	default:
		return StageNormal
	}
}
