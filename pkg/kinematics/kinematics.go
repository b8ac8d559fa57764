// Package kinematics converts desired foot positions into joint angles for
// one spider leg.
//
// Each leg has three revolute joints: the coxa rotates the leg around the
// vertical axis, while the femur and tibia move the foot within the leg's
// vertical plane. Solve runs the closed-form two-link inverse kinematics in
// that plane; MapToServo then corrects for the mirrored servo mounting on
// the left and right sides of the body.
package kinematics

import "math"

// Leg indices. Legs 0 and 3 sit on the right side of the body, 1 and 2 on
// the left; the two sides have mirrored servo orientations.
const (
	LegFrontRight = 0
	LegFrontLeft  = 1
	LegRearLeft   = 2
	LegRearRight  = 3

	NumLegs   = 4
	NumJoints = 3
)

// Joint indices within one leg, matching the servo channel layout.
const (
	JointFemur = 0 // alpha
	JointTibia = 1 // beta
	JointCoxa  = 2 // gamma
)

// Dimensions holds the leg segment lengths in millimeters.
type Dimensions struct {
	A float64 // femur length
	B float64 // tibia length
	C float64 // coxa offset from the body mount to the femur joint
}

// Point is a foot position in millimeters, robot frame, per leg.
type Point struct {
	X, Y, Z float64
}

// JointAngles is one leg's servo command in degrees, each in [0, 180].
type JointAngles struct {
	Femur float64
	Tibia float64
	Coxa  float64
}

// Solve computes the joint angles (alpha, beta, gamma in degrees) that place
// the foot at (x, y, z).
//
// Solve is total: targets outside the reachable workspace clamp the
// intermediate trigonometric ratios to [-1, 1] and yield the nearest
// physically expressible angles instead of failing. Gait sequencing depends
// on always getting an angle back, so imprecision is preferred over an error.
func (d Dimensions) Solve(x, y, z float64) (alpha, beta, gamma float64) {
	w := math.Sqrt(x*x + y*y)
	if x < 0 {
		w = -w
	}
	v := w - d.C

	r := math.Sqrt(v*v + z*z)
	alpha = math.Atan2(z, v) + math.Acos(clampRatio((d.A*d.A-d.B*d.B+v*v+z*z)/(2*d.A*r)))
	beta = math.Acos(clampRatio((d.A*d.A + d.B*d.B - v*v - z*z) / (2 * d.A * d.B)))

	if w >= 0 {
		gamma = math.Atan2(y, x)
	} else {
		gamma = math.Atan2(-y, -x)
	}

	return degrees(alpha), degrees(beta), degrees(gamma)
}

// MapToServo converts solved angles into the servo frame for the given leg.
// Right-side legs (0, 3) and left-side legs (1, 2) are mounted mirrored
// across the body's longitudinal axis and need different transforms.
func MapToServo(leg int, alpha, beta, gamma float64) JointAngles {
	switch leg {
	case LegFrontRight, LegRearRight:
		alpha = 90 - alpha
		gamma += 90
	case LegFrontLeft, LegRearLeft:
		alpha += 90
		beta = 180 - beta
		gamma = 90 - gamma
	}

	return JointAngles{
		Femur: clampAngle(alpha),
		Tibia: clampAngle(beta),
		Coxa:  clampAngle(gamma),
	}
}

// clampRatio bounds an acos argument so unreachable targets degrade instead
// of producing NaN. The ratio itself is NaN when the foot sits exactly on
// the femur joint (0/0); treat that as fully folded.
func clampRatio(r float64) float64 {
	if math.IsNaN(r) {
		return 1
	}
	if r < -1 {
		return -1
	}
	if r > 1 {
		return 1
	}
	return r
}

// clampAngle bounds a servo command to its mechanical range.
func clampAngle(deg float64) float64 {
	if deg < 0 {
		return 0
	}
	if deg > 180 {
		return 180
	}
	return deg
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
