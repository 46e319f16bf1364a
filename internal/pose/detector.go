package pose

import "gocv.io/x/gocv"

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns landmarks for each detected
	// subject, in original-frame pixel coordinates. Returns an empty slice
	// when no subject is detected.
	Detect(frame *gocv.Mat) ([]PersonLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	// The original evaluator runs with a deliberately low threshold so that
	// partially occluded joints still produce keypoints.
	MinConfidence float64

	// MaxSubjects is the maximum number of subjects to detect per frame.
	MaxSubjects int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.1,
		MaxSubjects:   1,
	}
}
