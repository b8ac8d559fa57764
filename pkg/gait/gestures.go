package gait

import (
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
)

// Gestures are cosmetic sequences. They raise one leg (or bob the body) and
// end back in the standing stance; with the no-op actuator they degrade to
// the same blocking delays without motion.

// Wave lifts the front-right leg and sweeps it side to side n times.
func (s *Sequencer) Wave(n int) error {
	log.Debug("gait: wave", "times", n)
	cfg := s.cfg
	leg := kinematics.LegFrontRight

	// Raise the leg clear of the ground.
	if err := s.SetSite(leg, cfg.XDefault, cfg.YStart+cfg.YStep, cfg.ZUp+20); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)

	for i := 0; i < n; i++ {
		if err := s.SetSite(leg, cfg.XDefault, cfg.YStart+2*cfg.YStep, cfg.ZUp+20); err != nil {
			return err
		}
		s.waitAllReach(cfg.LegSettle)
		if err := s.SetSite(leg, cfg.XDefault, cfg.YStart, cfg.ZUp+20); err != nil {
			return err
		}
		s.waitAllReach(cfg.LegSettle)
	}

	// Back down into stance.
	if err := s.SetSite(leg, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	return nil
}

// Shake lifts the front-right leg and pumps it up and down n times.
func (s *Sequencer) Shake(n int) error {
	log.Debug("gait: shake", "times", n)
	cfg := s.cfg
	leg := kinematics.LegFrontRight

	for i := 0; i < n; i++ {
		if err := s.SetSite(leg, cfg.XDefault, cfg.YStart+cfg.YStep, cfg.ZUp+10); err != nil {
			return err
		}
		s.waitAllReach(cfg.LegSettle)
		if err := s.SetSite(leg, cfg.XDefault, cfg.YStart+cfg.YStep, cfg.ZUp-10); err != nil {
			return err
		}
		s.waitAllReach(cfg.LegSettle)
	}

	if err := s.SetSite(leg, cfg.XDefault-cfg.XOffset, cfg.YStart+cfg.YStep, cfg.ZDefault); err != nil {
		return err
	}
	s.waitAllReach(cfg.LegSettle)
	return nil
}

// Dance bobs the body up and down twice.
func (s *Sequencer) Dance() error {
	log.Debug("gait: dance")
	for i := 0; i < 2; i++ {
		if err := s.stance(s.cfg.ZBoot); err != nil {
			return err
		}
		s.waitAllReach(s.cfg.BodySettle)
		if err := s.stance(s.cfg.ZDefault); err != nil {
			return err
		}
		s.waitAllReach(s.cfg.BodySettle)
	}
	return nil
}
