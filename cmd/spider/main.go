// Command spider runs the quadruped controller: gait sequencing over the
// PCA9685 servo driver, ultrasonic ranging, optional YOLO perception,
// autonomous navigation and the web control surface.
//
// Missing hardware is not fatal. Without the servo driver the gait layer
// drives a no-op actuator; without the ultrasonic sensor every reading
// fails and the policy stays cautious; without a camera URL vision is off.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cybercrawl/go-spider/internal/config"
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/actuator"
	"github.com/cybercrawl/go-spider/pkg/gait"
	"github.com/cybercrawl/go-spider/pkg/kinematics"
	"github.com/cybercrawl/go-spider/pkg/nav"
	"github.com/cybercrawl/go-spider/pkg/ranging"
	"github.com/cybercrawl/go-spider/pkg/telemetry"
	"github.com/cybercrawl/go-spider/pkg/vision"
	"github.com/cybercrawl/go-spider/pkg/web"
)

// smoothedRanger adapts the sensor to the policy's one-call-per-iteration
// interface by averaging a small burst of samples.
type smoothedRanger struct {
	sensor *ranging.Sensor
}

func (r smoothedRanger) Distance() ranging.Reading {
	return r.sensor.Average(3, 10*time.Millisecond)
}

func main() {
	cfg := config.Load()
	log.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("controller exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// Actuator: real servo driver, or a no-op when the hardware is absent.
	var act actuator.Actuator
	pca, err := actuator.NewPCA9685(actuator.PCA9685Config{
		Addr:     cfg.PCA9685Addr,
		FreqHz:   cfg.PCA9685FreqHz,
		PulseMin: cfg.ServoPulseMin,
		PulseMax: cfg.ServoPulseMax,
		Channels: cfg.ServoChannels,
	})
	if err != nil {
		log.Warn("servo driver unavailable, running without actuator", "error", err)
		act = actuator.Noop{}
	} else {
		act = pca
		defer act.Close()
	}

	seq := gait.NewSequencer(act, gaitConfig(cfg))

	// Ranging: a failed sensor degrades to always-failing readings.
	var ranger nav.Ranger = nav.DisabledRanger{}
	sensorEnabled := false
	if echo, err := ranging.NewHCSR04(cfg.TriggerPin, cfg.EchoPin); err != nil {
		log.Warn("ultrasonic sensor unavailable", "error", err)
	} else {
		ranger = smoothedRanger{sensor: ranging.NewSensor(echo, cfg.MaxDistanceCM, cfg.EchoTimeout)}
		sensorEnabled = true
	}

	// Vision: optional, keyed on the camera URL.
	var provider vision.Provider = vision.None{}
	if cfg.CameraURL != "" {
		detector, err := vision.NewYOLO(vision.YOLOConfig{
			ModelPath:        cfg.YOLOModelPath,
			ConfidenceThresh: cfg.YOLOConfidence,
			NMSThresh:        cfg.YOLOIoU,
			InputWidth:       640,
			InputHeight:      640,
		})
		if err != nil {
			log.Warn("object detector unavailable, running without vision", "error", err)
		} else {
			defer detector.Close()
			sampler := vision.NewSampler(vision.NewHTTPFrameSource(cfg.CameraURL), detector, cfg.DetectionInterval)
			go sampler.Run(ctx)
			provider = sampler
		}
	}

	ncfg := nav.DefaultConfig(cfg.ObstacleThreshold, cfg.FrameWidth)
	ncfg.LoopDelay = cfg.LoopDelay
	policy := nav.New(seq, ranger, provider, ncfg, sensorEnabled, act.Enabled())

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.New(cfg.MQTTBroker, "go-spider", time.Second)
		if err != nil {
			log.Warn("telemetry unavailable", "error", err)
		} else {
			defer pub.Close()
			go pub.Run(ctx, func() interface{} { return policy.Status() })
		}
	}

	server := web.NewServer(cfg.WebPort, web.Deps{
		Nav:    policy,
		Gait:   seq,
		Vision: provider,
	})

	log.Info("spider controller up",
		"actuator", act.Enabled(),
		"sensor", sensorEnabled,
		"vision", cfg.CameraURL != "",
		"port", cfg.WebPort,
	)

	err = server.Run(ctx)

	// Leave the robot sitting if a run was still active on shutdown.
	if stopErr := policy.Stop(); stopErr != nil && stopErr != nav.ErrNotRunning {
		log.Warn("stop on shutdown failed", "error", stopErr)
	}
	return err
}

func gaitConfig(cfg config.Config) gait.Config {
	g := gait.DefaultConfig()
	g.Dims = kinematics.Dimensions{A: cfg.LengthA, B: cfg.LengthB, C: cfg.LengthC}
	g.LengthSide = cfg.LengthSide
	g.ZDefault = cfg.ZDefault
	g.ZUp = cfg.ZUp
	g.ZBoot = cfg.ZBoot
	g.XDefault = cfg.XDefault
	g.XOffset = cfg.XOffset
	g.YStart = cfg.YStart
	g.YStep = cfg.YStep
	return g
}
