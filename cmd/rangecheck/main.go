// Command rangecheck prints ultrasonic distance readings until
// interrupted. Useful for verifying sensor wiring and tier thresholds.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cybercrawl/go-spider/internal/config"
	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/ranging"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.LogLevel)

	echo, err := ranging.NewHCSR04(cfg.TriggerPin, cfg.EchoPin)
	if err != nil {
		log.Error("ultrasonic sensor unavailable", "error", err)
		os.Exit(1)
	}
	sensor := ranging.NewSensor(echo, cfg.MaxDistanceCM, cfg.EchoTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r := sensor.Average(3, 10*time.Millisecond)
			if !r.OK {
				log.Warn("no echo")
				continue
			}
			log.Info("distance", "cm", r.CM, "severity", ranging.SeverityOf(r).String())
		}
	}
}
