// Package pose provides body-pose detection interfaces and landmark types
// for rehabilitation exercise evaluation.
package pose

// Body landmark indices following the COCO 17-keypoint convention used by
// YOLO pose models.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumLandmarks  = 17
)

// Point represents a single detected body landmark in frame pixel
// coordinates with its detection confidence.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// PersonLandmarks represents the 17 body landmarks of one detected subject.
type PersonLandmarks struct {
	Points [NumLandmarks]Point `json:"points"`
	Score  float64             `json:"score"`
}

// Rescale returns a copy of the landmarks with x and y coordinates scaled
// by the given factors. Pose models run at a fixed input resolution; the
// detector uses this to map keypoints back into original-frame pixel
// coordinates before they reach the evaluator.
func (p *PersonLandmarks) Rescale(sx, sy float64) *PersonLandmarks {
	if p == nil {
		return nil
	}

	scaled := &PersonLandmarks{Score: p.Score}
	for i := 0; i < NumLandmarks; i++ {
		scaled.Points[i] = Point{
			X:          p.Points[i].X * sx,
			Y:          p.Points[i].Y * sy,
			Confidence: p.Points[i].Confidence,
		}
	}
	return scaled
}
