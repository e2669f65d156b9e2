// Package drive abstracts the motor hardware behind a single Driver
// capability contract. Two families of backend exist: a pair of Pololu
// Simple Motor Controllers addressed per side, and a Sabertooth 2x60
// relayed through the onboard microcontroller. All backends accept the
// logical command domains (speed -100..100, brake 1..100) and perform
// their own native conversion via the units package.
package drive

import (
	"errors"
	"fmt"
)

// Motor selects which side a speed command addresses.
type Motor string

const (
	Left  Motor = "left"
	Right Motor = "right"
	Both  Motor = "both"
)

// ParseMotor maps a wire-protocol verb to a Motor.
func ParseMotor(s string) (Motor, error) {
	switch Motor(s) {
	case Left, Right, Both:
		return Motor(s), nil
	}
	return "", fmt.Errorf("unknown motor %q: expected left, right or both", s)
}

// sides is the fixed controller ordering used for "both" operations and
// status reporting, so output is deterministic.
var sides = []Motor{Left, Right}

// Driver is the capability contract every motor backend implements.
// Logical inputs outside their domain are rejected with a units.RangeError
// before any hardware is touched.
type Driver interface {
	// Reset returns the controllers to a known run state. It does not
	// change speed beyond that side effect.
	Reset() error
	// Stop halts motion immediately. Always safe to call.
	Stop() error
	// Brake applies graduated deceleration at the given level (1-100).
	Brake(level int) error
	// SetSpeed sets the logical speed (-100..100) on one or both sides.
	SetSpeed(speed int, motor Motor) error
	// Speed returns the current logical speed of the addressed side(s).
	Speed(motor Motor) ([]int, error)
	// Braking reports whether the last motion command was a brake.
	Braking() bool
	// Status maps each side name to that controller's live state.
	Status() map[string]any
}

// Rejected is returned when a backend deliberately refuses a well-formed
// request for a domain reason. It is distinct from a validation error: the
// request was syntactically valid and in range, but the hardware layer
// would not honour it.
type Rejected struct {
	Reason string
}

func (r *Rejected) Error() string { return r.Reason }

// IsRejected reports whether err is a deliberate backend refusal.
func IsRejected(err error) bool {
	var r *Rejected
	return errors.As(err, &r)
}
