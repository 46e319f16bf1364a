package pose

import (
	"math"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	persons []PersonLandmarks
	err     error

	// MinConfidence records the last value passed to SetMinConfidence.
	MinConfidence float64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPersons sets the subjects that will be returned by Detect.
func (m *MockDetector) SetPersons(persons []PersonLandmarks) {
	m.persons = persons
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured subjects or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]PersonLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.persons, nil
}

// SetMinConfidence records the threshold for test assertions.
func (m *MockDetector) SetMinConfidence(v float64) {
	m.MinConfidence = v
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ArmAtAngleLandmarks returns a preset PersonLandmarks with the right arm
// posed so that the elbow joint (shoulder-elbow-wrist) forms the given angle
// in degrees. Useful for driving the evaluator through known stage sequences.
func ArmAtAngleLandmarks(angleDeg float64) PersonLandmarks {
	person := PersonLandmarks{Score: 0.95}

	// Rough standing figure so every landmark carries a plausible position.
	base := map[int]Point{
		Nose:         {X: 320, Y: 80, Confidence: 0.9},
		LeftEye:      {X: 310, Y: 72, Confidence: 0.9},
		RightEye:     {X: 330, Y: 72, Confidence: 0.9},
		LeftEar:      {X: 300, Y: 78, Confidence: 0.9},
		RightEar:     {X: 340, Y: 78, Confidence: 0.9},
		LeftShoulder: {X: 270, Y: 140, Confidence: 0.9},
		LeftElbow:    {X: 250, Y: 220, Confidence: 0.9},
		LeftWrist:    {X: 245, Y: 300, Confidence: 0.9},
		LeftHip:      {X: 285, Y: 320, Confidence: 0.9},
		RightHip:     {X: 355, Y: 320, Confidence: 0.9},
		LeftKnee:     {X: 283, Y: 430, Confidence: 0.9},
		RightKnee:    {X: 357, Y: 430, Confidence: 0.9},
		LeftAnkle:    {X: 281, Y: 540, Confidence: 0.9},
		RightAnkle:   {X: 359, Y: 540, Confidence: 0.9},
	}
	for idx, pt := range base {
		person.Points[idx] = pt
	}

	// Right arm: elbow fixed, shoulder straight above, wrist rotated by the
	// requested angle around the elbow.
	elbow := Point{X: 380, Y: 240, Confidence: 0.9}
	shoulder := Point{X: elbow.X, Y: elbow.Y - 100, Confidence: 0.9}

	rad := angleDeg * math.Pi / 180.0
	wrist := Point{
		X:          elbow.X + 100*math.Sin(rad),
		Y:          elbow.Y - 100*math.Cos(rad),
		Confidence: 0.9,
	}

	person.Points[RightShoulder] = shoulder
	person.Points[RightElbow] = elbow
	person.Points[RightWrist] = wrist

	return person
}
