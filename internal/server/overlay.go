package server

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/physio/internal/exercise"
	"github.com/ayusman/physio/internal/pose"
)

// minDrawConfidence hides keypoints the model is unsure about.
const minDrawConfidence = 0.3

// skeletonEdges are the COCO limb connections drawn over each subject.
var skeletonEdges = [][2]int{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
}

var (
	skeletonColor = color.RGBA{R: 0, G: 200, B: 0, A: 0}
	jointColor    = color.RGBA{R: 0, G: 120, B: 255, A: 0}
	trackedColor  = color.RGBA{R: 255, G: 80, B: 0, A: 0}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// drawOverlay renders the detected skeletons, highlights the joint triple
// being evaluated, and stamps the current count and stage onto the frame.
func drawOverlay(frame *gocv.Mat, persons []pose.PersonLandmarks, def exercise.Definition, result exercise.Result) {
	for i := range persons {
		drawSkeleton(frame, &persons[i])
	}

	if len(persons) > 0 && len(def.Kpts) == 3 {
		drawTrackedJoints(frame, &persons[0], def.Kpts)
	}

	label := fmt.Sprintf("%s  count: %d  stage: %s  angle: %.1f",
		def.Name, result.Count, result.Stage, result.Angle)
	gocv.PutText(frame, label, image.Point{X: 10, Y: 30},
		gocv.FontHersheySimplex, 0.7, textColor, 2)
}

func drawSkeleton(frame *gocv.Mat, person *pose.PersonLandmarks) {
	for _, edge := range skeletonEdges {
		a, b := person.Points[edge[0]], person.Points[edge[1]]
		if a.Confidence < minDrawConfidence || b.Confidence < minDrawConfidence {
			continue
		}
		gocv.Line(frame, pointOf(a), pointOf(b), skeletonColor, 2)
	}

	for i := range person.Points {
		p := person.Points[i]
		if p.Confidence < minDrawConfidence {
			continue
		}
		gocv.Circle(frame, pointOf(p), 4, jointColor, -1)
	}
}

func drawTrackedJoints(frame *gocv.Mat, person *pose.PersonLandmarks, kpts []int) {
	for i := 0; i+1 < len(kpts); i++ {
		a, b := person.Points[kpts[i]], person.Points[kpts[i+1]]
		if a.Confidence < minDrawConfidence || b.Confidence < minDrawConfidence {
			continue
		}
		gocv.Line(frame, pointOf(a), pointOf(b), trackedColor, 3)
	}
	for _, k := range kpts {
		p := person.Points[k]
		if p.Confidence < minDrawConfidence {
			continue
		}
		gocv.Circle(frame, pointOf(p), 6, trackedColor, -1)
	}
}

func pointOf(p pose.Point) image.Point {
	return image.Point{X: int(p.X), Y: int(p.Y)}
}
