// Package ranging reads the spider's forward ultrasonic distance sensor.
//
// Sensor failure is an expected, recoverable condition: readings are tagged
// values, not errors, and consumers branch on Reading.OK. A failed reading
// means "don't know", which the navigation policy treats differently from
// "no obstacle".
package ranging

import "time"

// Reading is a tagged distance measurement. OK is false when no echo
// arrived in time or the computed distance fell outside the sensor's
// physical range.
type Reading struct {
	CM float64
	OK bool
}

// Invalid is the failed-reading sentinel.
func Invalid() Reading { return Reading{} }

// Valid wraps a measured distance.
func Valid(cm float64) Reading { return Reading{CM: cm, OK: true} }

// Severity classifies obstacle proximity.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeveritySafe
	SeverityWarning
	SeverityDanger
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeveritySafe:
		return "safe"
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Severity tier boundaries in centimeters.
const (
	CriticalBelowCM = 10
	DangerBelowCM   = 20
	WarningBelowCM  = 50
)

// SeverityOf maps a reading onto its proximity tier. Failed readings map to
// SeverityUnknown, never to SeveritySafe.
func SeverityOf(r Reading) Severity {
	if !r.OK {
		return SeverityUnknown
	}
	switch {
	case r.CM < CriticalBelowCM:
		return SeverityCritical
	case r.CM < DangerBelowCM:
		return SeverityDanger
	case r.CM < WarningBelowCM:
		return SeverityWarning
	default:
		return SeveritySafe
	}
}

// EchoTimer is the hardware side of the sensor: fire a trigger pulse and
// time the echo pulse width. Implemented by the HC-SR04 GPIO driver and by
// test fakes.
type EchoTimer interface {
	// TimeEcho returns the echo pulse width, or ok=false when no echo
	// edge arrived within the timeout.
	TimeEcho(timeout time.Duration) (width time.Duration, ok bool)
}

// Sensor converts echo pulse timings into validated distance readings.
type Sensor struct {
	echo EchoTimer

	// MaxDistanceCM bounds valid readings; the HC-SR04 datasheet range
	// is 2cm to 4m, the stock configuration uses 200cm.
	MaxDistanceCM float64

	// Timeout bounds one measurement.
	Timeout time.Duration
}

// Speed-of-sound conversion: distance_cm = pulse_seconds * 17150
// (half the round trip at ~343 m/s).
const cmPerSecond = 17150.0

// MinDistanceCM is the sensor's near blind zone.
const MinDistanceCM = 2.0

// NewSensor wraps an echo timer with validation.
func NewSensor(echo EchoTimer, maxDistanceCM float64, timeout time.Duration) *Sensor {
	return &Sensor{echo: echo, MaxDistanceCM: maxDistanceCM, Timeout: timeout}
}

// Measure takes a single distance sample.
func (s *Sensor) Measure() Reading {
	width, ok := s.echo.TimeEcho(s.Timeout)
	if !ok {
		return Invalid()
	}

	cm := width.Seconds() * cmPerSecond
	if cm < MinDistanceCM || cm > s.MaxDistanceCM {
		return Invalid()
	}
	return Valid(cm)
}

// Average takes up to samples measurements, delayBetween apart, and averages
// the valid ones. Failed samples are skipped; the result is invalid only
// when every sample failed.
func (s *Sensor) Average(samples int, delayBetween time.Duration) Reading {
	var sum float64
	var valid int

	for i := 0; i < samples; i++ {
		if r := s.Measure(); r.OK {
			sum += r.CM
			valid++
		}
		if delayBetween > 0 && i < samples-1 {
			time.Sleep(delayBetween)
		}
	}

	if valid == 0 {
		return Invalid()
	}
	return Valid(sum / float64(valid))
}
