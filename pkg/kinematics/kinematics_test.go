package kinematics

import (
	"math"
	"testing"
)

// Stock chassis dimensions (mm).
var dims = Dimensions{A: 55.0, B: 77.5, C: 27.5}

const angleTolerance = 1e-6

func TestSolve_KnownStancePoint(t *testing.T) {
	// Standing stance: x=62, y=0, z=-50.
	alpha, beta, gamma := dims.Solve(62, 0, -50)

	// Recompute by hand from the closed form.
	v := 62.0 - dims.C
	r := math.Hypot(v, 50)
	wantAlpha := math.Atan2(-50, v) + math.Acos((dims.A*dims.A-dims.B*dims.B+v*v+2500)/(2*dims.A*r))
	wantBeta := math.Acos((dims.A*dims.A + dims.B*dims.B - v*v - 2500) / (2 * dims.A * dims.B))

	if math.Abs(alpha-wantAlpha*180/math.Pi) > angleTolerance {
		t.Errorf("alpha: got %v, want %v", alpha, wantAlpha*180/math.Pi)
	}
	if math.Abs(beta-wantBeta*180/math.Pi) > angleTolerance {
		t.Errorf("beta: got %v, want %v", beta, wantBeta*180/math.Pi)
	}
	if gamma != 0 {
		t.Errorf("gamma: got %v, want 0 for y=0", gamma)
	}
}

func TestSolve_CoxaRotation(t *testing.T) {
	_, _, gamma := dims.Solve(62, 40, -50)
	want := math.Atan2(40, 62) * 180 / math.Pi
	if math.Abs(gamma-want) > angleTolerance {
		t.Errorf("gamma: got %v, want %v", gamma, want)
	}

	// Negative x flips the plane; gamma uses the mirrored quadrant.
	_, _, gamma = dims.Solve(-62, 40, -50)
	want = math.Atan2(-40, 62) * 180 / math.Pi
	if math.Abs(gamma-want) > angleTolerance {
		t.Errorf("gamma for x<0: got %v, want %v", gamma, want)
	}
}

func TestSolve_AlwaysFinite(t *testing.T) {
	// Includes wildly unreachable targets; Solve must clamp, never NaN.
	points := []Point{
		{0, 0, 0},
		{62, 0, -50},
		{1000, 1000, -1000},
		{-500, 0, 300},
		{0.001, 0, -0.001},
		{27.5, 0, 0}, // v == 0 exactly
		{5000, -5000, 5000},
	}

	for _, p := range points {
		alpha, beta, gamma := dims.Solve(p.X, p.Y, p.Z)
		for name, v := range map[string]float64{"alpha": alpha, "beta": beta, "gamma": gamma} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("Solve(%v): %s is not finite: %v", p, name, v)
			}
		}
	}
}

func TestSolve_UnreachableClampsBeta(t *testing.T) {
	// Far beyond a+b: the leg is fully extended, so beta saturates at acos(-1).
	_, beta, _ := dims.Solve(500, 0, -500)
	if math.Abs(beta-180) > angleTolerance {
		t.Errorf("beta at full extension: got %v, want 180", beta)
	}

	// Inside |a-b|: fully folded, beta saturates at acos(1).
	_, beta, _ = dims.Solve(dims.C+1, 0, 0)
	if math.Abs(beta) > angleTolerance {
		t.Errorf("beta fully folded: got %v, want 0", beta)
	}
}

// invertServo undoes the per-leg mirror transform. Only valid when the
// forward mapping did not hit the [0, 180] clamp.
func invertServo(leg int, j JointAngles) (alpha, beta, gamma float64) {
	switch leg {
	case LegFrontRight, LegRearRight:
		return 90 - j.Femur, j.Tibia, j.Coxa - 90
	default:
		return j.Femur - 90, 180 - j.Tibia, 90 - j.Coxa
	}
}

func TestMapToServo_RoundTrip(t *testing.T) {
	// Reachable foot positions across the working envelope.
	points := []Point{
		{62, 0, -50},
		{62, 40, -50},
		{62, 80, -50},
		{62, 0, -28},
		{62, 40, -30},
		{90, 20, -40},
		{50, 10, -60},
	}

	for leg := 0; leg < NumLegs; leg++ {
		for _, p := range points {
			alpha, beta, gamma := dims.Solve(p.X, p.Y, p.Z)
			j := MapToServo(leg, alpha, beta, gamma)

			gotAlpha, gotBeta, gotGamma := invertServo(leg, j)
			if math.Abs(gotAlpha-alpha) > angleTolerance ||
				math.Abs(gotBeta-beta) > angleTolerance ||
				math.Abs(gotGamma-gamma) > angleTolerance {
				t.Errorf("leg %d point %v: round trip (%v,%v,%v) != solved (%v,%v,%v)",
					leg, p, gotAlpha, gotBeta, gotGamma, alpha, beta, gamma)
			}
		}
	}
}

func TestMapToServo_MirrorsSides(t *testing.T) {
	alpha, beta, gamma := 30.0, 60.0, 20.0

	right := MapToServo(LegFrontRight, alpha, beta, gamma)
	if right.Femur != 60 || right.Tibia != 60 || right.Coxa != 110 {
		t.Errorf("right transform: got %+v", right)
	}

	left := MapToServo(LegFrontLeft, alpha, beta, gamma)
	if left.Femur != 120 || left.Tibia != 120 || left.Coxa != 70 {
		t.Errorf("left transform: got %+v", left)
	}

	// Rear legs share their side's transform.
	if MapToServo(LegRearRight, alpha, beta, gamma) != right {
		t.Error("rear-right should match front-right transform")
	}
	if MapToServo(LegRearLeft, alpha, beta, gamma) != left {
		t.Error("rear-left should match front-left transform")
	}
}

func TestMapToServo_ClampsToServoRange(t *testing.T) {
	j := MapToServo(LegFrontRight, 200, -30, 150)
	if j.Femur < 0 || j.Femur > 180 || j.Tibia < 0 || j.Tibia > 180 || j.Coxa < 0 || j.Coxa > 180 {
		t.Errorf("angles outside servo range: %+v", j)
	}
}
