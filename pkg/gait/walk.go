package gait

import (
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
)

// StepForward walks n paces using the diagonal alternation gait: one leg of
// a diagonal pair swings, the body shifts over the planted legs, then the
// partner leg swings. Which pair moves is tracked through the rear-left
// foot's resting y-coordinate.
func (s *Sequencer) StepForward(n int) error {
	log.Debug("gait: step forward", "paces", n)
	for i := 0; i < n; i++ {
		var err error
		if s.siteNow[kinematics.LegRearLeft].Y == s.cfg.YStart {
			err = s.forwardPairLeft()
		} else {
			err = s.forwardPairRight()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// forwardPairLeft advances the rear-left and front-left legs.
func (s *Sequencer) forwardPairLeft() error {
	cfg := s.cfg

	// Swing rear-left: lift, reach forward, plant.
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Shift the body over the planted legs.
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Swing front-left back under the body.
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	return nil
}

// forwardPairRight advances the front-right and rear-right legs.
func (s *Sequencer) forwardPairRight() error {
	cfg := s.cfg

	// Swing front-right: lift, reach forward, plant.
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Shift the body over the planted legs.
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Swing rear-right back under the body.
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	return nil
}

// StepBack walks n paces in reverse. The sequence mirrors StepForward with
// the swing and body-shift directions exchanged, alternating on the
// rear-right foot instead.
func (s *Sequencer) StepBack(n int) error {
	log.Debug("gait: step back", "paces", n)
	for i := 0; i < n; i++ {
		var err error
		if s.siteNow[kinematics.LegRearRight].Y == s.cfg.YStart {
			err = s.backwardPairRight()
		} else {
			err = s.backwardPairLeft()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// backwardPairRight retreats the rear-right and front-right legs.
func (s *Sequencer) backwardPairRight() error {
	cfg := s.cfg

	// Swing rear-right: lift, reach back, plant.
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Shift the body backward over the planted legs.
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Swing front-left forward under the body.
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	return nil
}

// backwardPairLeft retreats the front-left and rear-left legs.
func (s *Sequencer) backwardPairLeft() error {
	cfg := s.cfg

	// Swing front-left: lift, reach back, plant.
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	// Shift the body backward over the planted legs.
	if err := s.SetSite(kinematics.LegFrontRight, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegFrontLeft, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	if err := s.SetSite(kinematics.LegRearRight, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.BodySettle)

	// Swing rear-left forward under the body.
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart+2*cfg.YStep, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZUp); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	if err := s.SetSite(kinematics.LegRearLeft, cfg.XDefault+cfg.XOffset, cfg.YStart, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	return nil
}
