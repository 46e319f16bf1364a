// Package exercise implements the rehabilitation repetition recognizer:
// joint-angle geometry, stage classification, and the cycle-pattern counter
// that turns a noisy stream of classified stages into a stable rep count.
package exercise

import (
	"errors"

	"github.com/ayusman/physio/internal/pose"
)

// ErrUndefinedGeometry is returned when a definition does not select exactly
// three valid landmarks and the joint angle therefore cannot be computed.
var ErrUndefinedGeometry = errors.New("undefined geometry")

// Definition parameterizes one exercise type: the three landmarks that form
// the monitored joint (proximal, vertex, distal) and the angle thresholds
// that bound a repetition.
type Definition struct {
	ID        string
	Name      string
	Kpts      []int
	UpAngle   float64
	DownAngle float64
	Default   bool
}

// AngleFor computes the monitored joint angle for the given subject.
// Returns ErrUndefinedGeometry when the definition does not name exactly
// three in-range landmarks.
func (d Definition) AngleFor(person *pose.PersonLandmarks) (float64, error) {
	if person == nil {
		return 0, ErrUndefinedGeometry
	}
	if len(d.Kpts) != 3 {
		return 0, ErrUndefinedGeometry
	}
	for _, idx := range d.Kpts {
		if idx < 0 || idx >= pose.NumLandmarks {
			return 0, ErrUndefinedGeometry
		}
	}

	a := person.Points[d.Kpts[0]]
	b := person.Points[d.Kpts[1]]
	c := person.Points[d.Kpts[2]]

	return JointAngle(a, b, c), nil
}
