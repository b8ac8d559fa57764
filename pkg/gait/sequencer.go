// Package gait turns discrete locomotion commands into ordered servo motion.
//
// Every command is a finite sequence of phases. A phase positions one or
// more feet through the leg kinematics and then blocks for a settle delay
// that models real servo travel time. Commands assume a stable four-point
// stance at entry and restore one at exit.
//
// The sequencer is not reentrant. It keeps no lock of its own: whoever
// drives it (the navigation loop, or the web layer in manual mode) must be
// the only driver while active.
package gait

import (
	"math"
	"time"

	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/actuator"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
)

// Config holds the stance geometry and phase timing for the sequencer.
type Config struct {
	Dims       kinematics.Dimensions
	LengthSide float64 // body side length between leg mounts (mm)

	// Stance heights and foot placement (mm). Z is negative below the body.
	ZDefault float64 // standing foot height
	ZUp      float64 // swing foot height
	ZBoot    float64 // resting foot height
	XDefault float64
	XOffset  float64
	YStart   float64
	YStep    float64

	// Settle delays between phases.
	LegSettle    time.Duration // single-leg swing phases
	BodySettle   time.Duration // whole-body weight shifts
	StanceSettle time.Duration // stand/sit posture changes
}

// DefaultConfig returns the timing and geometry for the stock chassis.
func DefaultConfig() Config {
	return Config{
		Dims:       kinematics.Dimensions{A: 55.0, B: 77.5, C: 27.5},
		LengthSide: 71.0,

		ZDefault: -50.0,
		ZUp:      -30.0,
		ZBoot:    -28.0,
		XDefault: 62.0,
		XOffset:  0.0,
		YStart:   0.0,
		YStep:    40.0,

		LegSettle:    150 * time.Millisecond,
		BodySettle:   200 * time.Millisecond,
		StanceSettle: 500 * time.Millisecond,
	}
}

// Sequencer owns the robot pose and issues joint angles to the actuator.
type Sequencer struct {
	act actuator.Actuator
	cfg Config

	// siteNow is the position each foot is assumed to have reached;
	// siteExpect is the last commanded target. They only differ while a
	// write is in flight, and only the sequencer mutates them.
	siteNow    [kinematics.NumLegs]kinematics.Point
	siteExpect [kinematics.NumLegs]kinematics.Point

	// Turn-in-place foot placements, derived from the body geometry.
	turnX0, turnY0 float64
	turnX1, turnY1 float64
}

// NewSequencer creates a sequencer in the boot (resting) stance.
func NewSequencer(act actuator.Actuator, cfg Config) *Sequencer {
	s := &Sequencer{act: act, cfg: cfg}
	s.deriveTurnConstants()

	// Boot stance: front feet a step ahead of the rear feet, body low.
	for _, leg := range []int{kinematics.LegFrontRight, kinematics.LegFrontLeft} {
		s.siteNow[leg] = kinematics.Point{X: cfg.XDefault - cfg.XOffset, Y: cfg.YStart + cfg.YStep, Z: cfg.ZBoot}
		s.siteExpect[leg] = s.siteNow[leg]
	}
	for _, leg := range []int{kinematics.LegRearLeft, kinematics.LegRearRight} {
		s.siteNow[leg] = kinematics.Point{X: cfg.XDefault + cfg.XOffset, Y: cfg.YStart, Z: cfg.ZBoot}
		s.siteExpect[leg] = s.siteNow[leg]
	}

	return s
}

// deriveTurnConstants solves the triangle formed by the body diagonal and a
// turn step to find where the feet must land when rotating in place.
func (s *Sequencer) deriveTurnConstants() {
	cfg := s.cfg
	tempA := math.Sqrt(square(2*cfg.XDefault+cfg.LengthSide) + square(cfg.YStep))
	tempB := 2*(cfg.YStart+cfg.YStep) + cfg.LengthSide
	tempC := math.Sqrt(square(2*cfg.XDefault+cfg.LengthSide) + square(2*cfg.YStart+cfg.YStep+cfg.LengthSide))
	tempAlpha := math.Acos((square(tempA) + square(tempB) - square(tempC)) / (2 * tempA * tempB))

	s.turnX1 = (tempA - cfg.LengthSide) / 2
	s.turnY1 = cfg.YStart + cfg.YStep/2
	s.turnX0 = s.turnX1 - tempB*math.Cos(tempAlpha)
	s.turnY0 = tempB*math.Sin(tempAlpha) - s.turnY1 - cfg.LengthSide
}

// SetSite commands one foot to a target position. The target goes through
// the inverse kinematics and the per-leg servo mapping, then all three joint
// writes are issued.
func (s *Sequencer) SetSite(leg int, x, y, z float64) error {
	s.siteExpect[leg] = kinematics.Point{X: x, Y: y, Z: z}

	alpha, beta, gamma := s.cfg.Dims.Solve(x, y, z)
	j := kinematics.MapToServo(leg, alpha, beta, gamma)

	if err := s.act.SetJointAngle(leg, kinematics.JointFemur, j.Femur); err != nil {
		return err
	}
	if err := s.act.SetJointAngle(leg, kinematics.JointTibia, j.Tibia); err != nil {
		return err
	}
	if err := s.act.SetJointAngle(leg, kinematics.JointCoxa, j.Coxa); err != nil {
		return err
	}

	s.siteNow[leg] = s.siteExpect[leg]
	return nil
}

// Pose returns the current assumed foot positions.
func (s *Sequencer) Pose() [kinematics.NumLegs]kinematics.Point {
	return s.siteNow
}

// waitAllReach blocks for the mechanical travel time of the last phase.
func (s *Sequencer) waitAllReach(d time.Duration) {
	time.Sleep(d)
}

// Stand raises the body to the standing stance.
func (s *Sequencer) Stand() error {
	log.Debug("gait: stand")
	if err := s.stance(s.cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(s.cfg.StanceSettle)
	return nil
}

// Sit lowers the body to the resting stance.
func (s *Sequencer) Sit() error {
	log.Debug("gait: sit")
	if err := s.stance(s.cfg.ZBoot); err != nil {
		return err
	}
	s.waitAllReach(s.cfg.StanceSettle)
	return nil
}

// stance places all four feet at their rest x/y with the given height.
func (s *Sequencer) stance(z float64) error {
	cfg := s.cfg
	for _, leg := range []int{kinematics.LegFrontRight, kinematics.LegFrontLeft} {
		if err := s.SetSite(leg, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, z); err != nil {
			return err
		}
	}
	for _, leg := range []int{kinematics.LegRearLeft, kinematics.LegRearRight} {
		if err := s.SetSite(leg, cfg.XDefault+cfg.XOffset, cfg.YStart, z); err != nil {
			return err
		}
	}
	return nil
}

func square(v float64) float64 { return v * v }
