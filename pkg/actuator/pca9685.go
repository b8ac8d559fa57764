package actuator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	"github.com/cybercrawl/go-spider/internal/log"
)

// PCA9685Config describes the servo driver wiring.
type PCA9685Config struct {
	// Bus is the I2C bus name; empty selects the first available bus.
	Bus string

	// Addr is the PCA9685 I2C address, 0x40 on the stock board.
	Addr uint16

	// FreqHz is the PWM frequency, 50Hz for analog servos.
	FreqHz int

	// PulseMin and PulseMax are the servo pulse range in PWM counts
	// (out of 4096) corresponding to 0 and 180 degrees.
	PulseMin, PulseMax int

	// Channels maps [leg][joint] to a PCA9685 channel.
	Channels [4][3]int
}

// PCA9685 drives the 12 leg servos through a PCA9685 PWM controller.
type PCA9685 struct {
	bus      i2c.BusCloser
	servos   *pca9685.ServoGroup
	channels [4][3]int
}

// NewPCA9685 opens the I2C bus and configures the servo driver. Returns an
// error when the bus or the chip is absent; the caller should fall back to
// the Noop actuator in that case.
func NewPCA9685(cfg PCA9685Config) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}

	dev, err := pca9685.NewI2C(bus, cfg.Addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("pca9685 at 0x%02x: %w", cfg.Addr, err)
	}

	if err := dev.SetPwmFreq(physic.Frequency(cfg.FreqHz) * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}

	servos := pca9685.NewServoGroup(dev,
		gpio.Duty(cfg.PulseMin), gpio.Duty(cfg.PulseMax),
		0, 180*physic.Degree)

	log.Info("pca9685 servo driver ready", "addr", fmt.Sprintf("0x%02x", cfg.Addr), "freq_hz", cfg.FreqHz)

	return &PCA9685{
		bus:      bus,
		servos:   servos,
		channels: cfg.Channels,
	}, nil
}

// SetJointAngle commands one servo, clamping to the mechanical range first.
func (p *PCA9685) SetJointAngle(leg, joint int, deg float64) error {
	if leg < 0 || leg > 3 || joint < 0 || joint > 2 {
		return fmt.Errorf("joint out of range: leg %d joint %d", leg, joint)
	}

	if deg < 0 {
		deg = 0
	}
	if deg > 180 {
		deg = 180
	}

	ch := p.channels[leg][joint]
	angle := physic.Angle(deg * float64(physic.Degree))
	if err := p.servos.GetServo(ch).SetAngle(angle); err != nil {
		return fmt.Errorf("servo channel %d: %w", ch, err)
	}
	return nil
}

// Enabled reports true: this actuator only exists when hardware was found.
func (p *PCA9685) Enabled() bool { return true }

// Close releases the I2C bus.
func (p *PCA9685) Close() error {
	return p.bus.Close()
}

var _ Actuator = (*PCA9685)(nil)
var _ Actuator = Noop{}
