// Command gaitcheck exercises the gait sequencer on real hardware: stand,
// a few paces forward and back, a turn each way, a wave, then sit. Useful
// after servo re-assembly to verify channel mapping and mirroring.
package main

import (
	"flag"
	"os"

	"github.com/cybercrawl/go-spider/internal/config"
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/actuator"
	"github.com/cybercrawl/go-spider/pkg/gait"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
)

func main() {
	paces := flag.Int("paces", 2, "forward/back paces to take")
	dryRun := flag.Bool("dry-run", false, "run without hardware (no-op actuator)")
	flag.Parse()

	cfg := config.Load()
	log.Init(cfg.LogLevel)

	var act actuator.Actuator
	if *dryRun {
		act = actuator.Noop{}
	} else {
		pca, err := actuator.NewPCA9685(actuator.PCA9685Config{
			Addr:     cfg.PCA9685Addr,
			FreqHz:   cfg.PCA9685FreqHz,
			PulseMin: cfg.ServoPulseMin,
			PulseMax: cfg.ServoPulseMax,
			Channels: cfg.ServoChannels,
		})
		if err != nil {
			log.Error("servo driver unavailable", "error", err)
			os.Exit(1)
		}
		defer pca.Close()
		act = pca
	}

	gcfg := gait.DefaultConfig()
	gcfg.Dims = kinematics.Dimensions{A: cfg.LengthA, B: cfg.LengthB, C: cfg.LengthC}
	gcfg.LengthSide = cfg.LengthSide
	seq := gait.NewSequencer(act, gcfg)

	steps := []struct {
		name string
		run  func() error
	}{
		{"stand", seq.Stand},
		{"forward", func() error { return seq.StepForward(*paces) }},
		{"back", func() error { return seq.StepBack(*paces) }},
		{"turn left", func() error { return seq.TurnLeft(1) }},
		{"turn right", func() error { return seq.TurnRight(1) }},
		{"wave", func() error { return seq.Wave(2) }},
		{"sit", seq.Sit},
	}

	for _, s := range steps {
		log.Info("gaitcheck", "step", s.name)
		if err := s.run(); err != nil {
			log.Error("step failed", "step", s.name, "error", err)
			os.Exit(1)
		}
	}
	log.Info("gaitcheck complete")
}
