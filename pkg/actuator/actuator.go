// Package actuator provides servo output for the spider's 12 leg joints.
//
// The hardware decision is made once at construction: callers get either a
// real PCA9685-backed actuator or a no-op one, behind the same interface.
// Call sites never check for hardware availability.
package actuator

// Actuator writes joint angles to the leg servos. Writes are fire-and-forget;
// there is no feedback channel from the servos.
type Actuator interface {
	// SetJointAngle commands one servo. leg is 0-3, joint is 0-2,
	// deg is clamped to [0, 180] before the write.
	SetJointAngle(leg, joint int, deg float64) error

	// Enabled reports whether real hardware is attached.
	Enabled() bool

	// Close releases the underlying bus, if any.
	Close() error
}

// Noop is the hardware-absent actuator. Every write succeeds and does
// nothing, so gait and navigation logic can run on a dev machine.
type Noop struct{}

func (Noop) SetJointAngle(leg, joint int, deg float64) error { return nil }
func (Noop) Enabled() bool                                   { return false }
func (Noop) Close() error                                    { return nil }
