package gait

import (
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
)

// TurnLeft rotates the body in place by n turn steps. Each step swings one
// leg of a diagonal pair onto the derived turn placement, rotates the body
// over the planted legs, swings the partner leg, and restores a rest stance.
func (s *Sequencer) TurnLeft(n int) error {
	log.Debug("gait: turn left", "steps", n)
	for i := 0; i < n; i++ {
		var err error
		if s.siteNow[kinematics.LegRearRight].Y == s.cfg.YStart {
			err = s.turnStep(kinematics.LegRearRight, kinematics.LegFrontLeft,
				kinematics.LegFrontRight, kinematics.LegRearLeft)
		} else {
			err = s.turnStep(kinematics.LegFrontRight, kinematics.LegRearLeft,
				kinematics.LegRearRight, kinematics.LegFrontLeft)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// TurnRight rotates the body in place by n turn steps, mirroring TurnLeft.
func (s *Sequencer) TurnRight(n int) error {
	log.Debug("gait: turn right", "steps", n)
	for i := 0; i < n; i++ {
		var err error
		if s.siteNow[kinematics.LegRearLeft].Y == s.cfg.YStart {
			err = s.turnStep(kinematics.LegRearLeft, kinematics.LegFrontRight,
				kinematics.LegFrontLeft, kinematics.LegRearRight)
		} else {
			err = s.turnStep(kinematics.LegFrontLeft, kinematics.LegRearRight,
				kinematics.LegRearLeft, kinematics.LegFrontRight)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// turnStep performs one in-place rotation step. first and second are the
// diagonal pair that swings (in that order); plantA and plantB stay on the
// ground and carry the body through the rotation. The rotation direction
// falls out of which diagonal swings.
func (s *Sequencer) turnStep(first, second, plantA, plantB int) error {
	cfg := s.cfg

	// Lift the first swing leg.
	if err := s.SetSite(first, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Rotate the body onto the turn placements, swing leg still raised.
	if err := s.SetSite(plantA, s.turnX1-cfg.XOffset, s.turnY1, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(second, s.turnX0-cfg.XOffset, s.turnY0, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(plantB, s.turnX1+cfg.XOffset, s.turnY1, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(first, s.turnX0+cfg.XOffset, s.turnY0, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Plant the first swing leg on its turn placement.
	if err := s.SetSite(first, s.turnX0+cfg.XOffset, s.turnY0, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Rotate the body through the remainder of the step.
	if err := s.SetSite(plantA, s.turnX1+cfg.XOffset, s.turnY1, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(second, s.turnX0+cfg.XOffset, s.turnY0, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(plantB, s.turnX1-cfg.XOffset, s.turnY1, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(first, s.turnX0-cfg.XOffset, s.turnY0, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Swing the partner leg home and restore a rest stance.
	if err := s.SetSite(second, s.turnX0+cfg.XOffset, s.turnY0, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	if err := s.SetSite(plantA, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(second, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	if err := s.SetSite(plantB, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(first, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	if err := s.SetSite(second, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	return nil
}
