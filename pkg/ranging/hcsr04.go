package ranging

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/cybercrawl/go-spider/internal/log"
)

// HCSR04 times echo pulses on an HC-SR04 ultrasonic transducer over GPIO.
type HCSR04 struct {
	trigger gpio.PinOut
	echo    gpio.PinIn
}

// NewHCSR04 claims the trigger and echo pins. Pin names follow periph's
// registry ("GPIO23", "GPIO24" on a Raspberry Pi). Returns an error when
// GPIO is unavailable so the caller can run without ranging.
func NewHCSR04(triggerPin, echoPin string) (*HCSR04, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	trigger := gpioreg.ByName(triggerPin)
	if trigger == nil {
		return nil, fmt.Errorf("trigger pin %q not found", triggerPin)
	}
	echo := gpioreg.ByName(echoPin)
	if echo == nil {
		return nil, fmt.Errorf("echo pin %q not found", echoPin)
	}

	if err := trigger.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("trigger pin %q: %w", triggerPin, err)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("echo pin %q: %w", echoPin, err)
	}

	// Let the transducer settle after the pins flip.
	time.Sleep(100 * time.Millisecond)

	log.Info("ultrasonic sensor ready", "trigger", triggerPin, "echo", echoPin)
	return &HCSR04{trigger: trigger, echo: echo}, nil
}

// TimeEcho fires a 10µs trigger pulse and times the echo pulse width.
func (h *HCSR04) TimeEcho(timeout time.Duration) (time.Duration, bool) {
	if err := h.trigger.Out(gpio.High); err != nil {
		return 0, false
	}
	time.Sleep(10 * time.Microsecond)
	if err := h.trigger.Out(gpio.Low); err != nil {
		return 0, false
	}

	// Rising edge marks the start of the echo pulse.
	if !waitForLevel(h.echo, gpio.High, time.Now().Add(timeout)) {
		return 0, false
	}
	start := time.Now()

	// Falling edge marks the end.
	if !waitForLevel(h.echo, gpio.Low, start.Add(timeout)) {
		return 0, false
	}

	return time.Since(start), true
}

// waitForLevel blocks until the pin reads level or the deadline passes.
// Spurious edges with the wrong level (a noisy echo line) loop back into
// the wait; the remaining time is re-checked first, since a negative
// timeout would make WaitForEdge block forever.
func waitForLevel(pin gpio.PinIn, level gpio.Level, deadline time.Time) bool {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if !pin.WaitForEdge(remaining) {
			return false
		}
		if pin.Read() == level {
			return true
		}
	}
}

var _ EchoTimer = (*HCSR04)(nil)
