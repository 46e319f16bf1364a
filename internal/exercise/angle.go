package exercise

import (
	"math"

	"github.com/ayusman/physio/internal/pose"
)

// JointAngle computes the angle in degrees at vertex b between the rays
// b->a and b->c. The result always lies in [0, 180]; collinear or
// coincident points yield 0.
func JointAngle(a, b, c pose.Point) float64 {
	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	cross := bax*bcy - bay*bcx
	dot := bax*bcx + bay*bcy

	angle := math.Abs(math.Atan2(cross, dot)) * 180.0 / math.Pi
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}
