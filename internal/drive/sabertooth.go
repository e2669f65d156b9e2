package drive

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/units"
)

// ErrNoBoard is returned when a board-relayed backend is constructed
// without a board connection.
var ErrNoBoard = errors.New("the sabertooth driver requires a connection to the onboard microcontroller")

// SabertoothDriver controls a Sabertooth 2x60 by relaying short textual
// commands through the board: R resets the relay, X is an immediate stop,
// and ML/MR/MB set native speed per side. The Sabertooth has no graduated
// brake, so Brake commands zero speed on both sides.
type SabertoothDriver struct {
	mux board.Conn

	mu      sync.Mutex
	left    int // native, cached from the last command
	right   int
	braking bool
}

var _ Driver = (*SabertoothDriver)(nil)

// NewSabertoothDriver builds the driver over a board connection.
func NewSabertoothDriver(mux board.Conn) (*SabertoothDriver, error) {
	if mux == nil {
		return nil, ErrNoBoard
	}
	return &SabertoothDriver{mux: mux}, nil
}

func (d *SabertoothDriver) Reset() error {
	return d.mux.SendCommand("R")
}

func (d *SabertoothDriver) Stop() error {
	if err := d.mux.SendCommand("X"); err != nil {
		return err
	}
	d.mu.Lock()
	d.left, d.right = 0, 0
	d.braking = false
	d.mu.Unlock()
	return nil
}

func (d *SabertoothDriver) Brake(level int) error {
	// Validate the logical level even though the relay has no graduated
	// brake: an out-of-range level is a caller bug, not a stop request.
	if err := units.CheckBrake(level); err != nil {
		return err
	}
	if err := d.setNative(0, Both); err != nil {
		return err
	}
	d.mu.Lock()
	d.braking = true
	d.mu.Unlock()
	return nil
}

func (d *SabertoothDriver) SetSpeed(speed int, motor Motor) error {
	native, err := units.SabertoothSpeed(speed)
	if err != nil {
		return err
	}
	if err := d.setNative(native, motor); err != nil {
		return err
	}
	d.mu.Lock()
	d.braking = false
	d.mu.Unlock()
	return nil
}

func (d *SabertoothDriver) setNative(native int, motor Motor) error {
	var code string
	switch motor {
	case Left:
		code = fmt.Sprintf("ML%d", native)
	case Right:
		code = fmt.Sprintf("MR%d", native)
	case Both:
		code = fmt.Sprintf("MB%d", native)
	default:
		return fmt.Errorf("unknown motor %q", motor)
	}

	if err := d.mux.SendCommand(code); err != nil {
		return err
	}

	d.mu.Lock()
	switch motor {
	case Left:
		d.left = native
	case Right:
		d.right = native
	case Both:
		d.left, d.right = native, native
	}
	d.mu.Unlock()
	return nil
}

func (d *SabertoothDriver) Speed(motor Motor) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch motor {
	case Left:
		return []int{units.SabertoothSpeedToLogical(d.left)}, nil
	case Right:
		return []int{units.SabertoothSpeedToLogical(d.right)}, nil
	case Both:
		return []int{
			units.SabertoothSpeedToLogical(d.left),
			units.SabertoothSpeedToLogical(d.right),
		}, nil
	}
	return nil, fmt.Errorf("unknown motor %q", motor)
}

func (d *SabertoothDriver) Braking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.braking
}

func (d *SabertoothDriver) Status() map[string]any {
	d.mu.Lock()
	left, right, braking := d.left, d.right, d.braking
	d.mu.Unlock()

	return map[string]any{
		"left":  map[string]any{"product": "sabertooth", "speed": left},
		"right": map[string]any{"product": "sabertooth", "speed": right},
		"relay": map[string]any{"braking": braking, "board": d.mux.Healthy()},
	}
}
