// Package units provides the conversions between the logical command
// domains exposed to clients and the native ranges of each motor
// controller, plus the range checks that reject a command before any
// hardware is touched.
package units

import "fmt"

// Logical domains. Clients always speak these ranges regardless of which
// controller backend is driving the motors.
const (
	MinSpeed = -100
	MaxSpeed = 100
	MinBrake = 1
	MaxBrake = 100
)

// Native ranges per backend.
const (
	SMCMaxSpeed        = 3200 // Pololu Simple Motor Controller, signed
	SMCMaxBrake        = 32
	SabertoothMaxSpeed = 63 // Sabertooth 2x60 via the board, signed
)

// RangeError reports a logical value outside its documented domain. It is a
// precondition failure: no hardware command has been attempted.
type RangeError struct {
	What string
	Min  int
	Max  int
	Got  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be a number from %d to %d, got %d", e.What, e.Min, e.Max, e.Got)
}

// CheckSpeed validates a logical speed value.
func CheckSpeed(speed int) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return &RangeError{What: "speed", Min: MinSpeed, Max: MaxSpeed, Got: speed}
	}
	return nil
}

// CheckBrake validates a logical brake level.
func CheckBrake(brake int) error {
	if brake < MinBrake || brake > MaxBrake {
		return &RangeError{What: "brake", Min: MinBrake, Max: MaxBrake, Got: brake}
	}
	return nil
}

// SMCSpeed converts a logical speed to the SMC native range (±3200).
// The conversion is exact, so SMCSpeedToLogical recovers the input.
func SMCSpeed(speed int) (int, error) {
	if err := CheckSpeed(speed); err != nil {
		return 0, err
	}
	return speed * 32, nil
}

// SMCSpeedToLogical converts an SMC native speed back to the logical domain.
func SMCSpeedToLogical(native int) int {
	return native / 32
}

// SMCBrake converts a logical brake level (1-100) to the SMC native brake
// range (1-32). Levels below 3 collapse to the minimum native level.
func SMCBrake(brake int) (int, error) {
	if err := CheckBrake(brake); err != nil {
		return 0, err
	}
	if brake < 3 {
		return 1, nil
	}
	return (brake - 3) / 3, nil
}

// SabertoothSpeed converts a logical speed to the Sabertooth native range
// (±63). Integer division truncates toward zero, so the conversion is lossy.
func SabertoothSpeed(speed int) (int, error) {
	if err := CheckSpeed(speed); err != nil {
		return 0, err
	}
	return speed * 63 / 100, nil
}

// SabertoothSpeedToLogical converts a Sabertooth native speed back to the
// logical domain. Because SabertoothSpeed truncates this is a best-effort
// inverse, used only for status reporting.
func SabertoothSpeedToLogical(native int) int {
	return native * 100 / 63
}
