package drive

import (
	"fmt"
	"sync"

	"github.com/joyride-robotics/joyride/internal/units"
)

// Controller is one Pololu Simple Motor Controller. Values at this level
// are native (speed ±3200, brake 1-32); the SMCDriver does the logical
// conversion before calling in.
type Controller interface {
	Reset() error
	Stop() error
	Brake(native int) error
	SetSpeed(native int) error
	Speed() (int, error)
	Status() map[string]any
}

// SMCDriver drives around using two SMC controllers, one per side.
type SMCDriver struct {
	mu          sync.Mutex
	controllers map[Motor]Controller
	braking     bool
}

var _ Driver = (*SMCDriver)(nil)

// NewSMCDriver builds a driver over a left and right controller.
func NewSMCDriver(left, right Controller) *SMCDriver {
	return &SMCDriver{
		controllers: map[Motor]Controller{
			Left:  left,
			Right: right,
		},
	}
}

// selected returns the controllers a motor argument addresses, in side order.
func (d *SMCDriver) selected(motor Motor) ([]Controller, error) {
	if motor == Both {
		return []Controller{d.controllers[Left], d.controllers[Right]}, nil
	}
	c, ok := d.controllers[motor]
	if !ok {
		return nil, fmt.Errorf("unknown motor %q", motor)
	}
	return []Controller{c}, nil
}

func (d *SMCDriver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, side := range sides {
		if err := d.controllers[side].Reset(); err != nil {
			return fmt.Errorf("%s controller reset: %w", side, err)
		}
	}
	d.braking = false
	return nil
}

func (d *SMCDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, side := range sides {
		if err := d.controllers[side].Stop(); err != nil {
			return fmt.Errorf("%s controller stop: %w", side, err)
		}
	}
	d.braking = false
	return nil
}

func (d *SMCDriver) Brake(level int) error {
	native, err := units.SMCBrake(level)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, side := range sides {
		if err := d.controllers[side].Brake(native); err != nil {
			return fmt.Errorf("%s controller brake: %w", side, err)
		}
	}
	d.braking = true
	return nil
}

func (d *SMCDriver) SetSpeed(speed int, motor Motor) error {
	native, err := units.SMCSpeed(speed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.selected(motor)
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := c.SetSpeed(native); err != nil {
			return err
		}
	}
	d.braking = false
	return nil
}

func (d *SMCDriver) Speed(motor Motor) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.selected(motor)
	if err != nil {
		return nil, err
	}

	speeds := make([]int, 0, len(cs))
	for _, c := range cs {
		native, err := c.Speed()
		if err != nil {
			return nil, err
		}
		speeds = append(speeds, units.SMCSpeedToLogical(native))
	}
	return speeds, nil
}

// Left returns the left side's logical speed.
func (d *SMCDriver) Left() (int, error) {
	s, err := d.Speed(Left)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// Right returns the right side's logical speed.
func (d *SMCDriver) Right() (int, error) {
	s, err := d.Speed(Right)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// SetLeft sets the left side's logical speed.
func (d *SMCDriver) SetLeft(speed int) error { return d.SetSpeed(speed, Left) }

// SetRight sets the right side's logical speed.
func (d *SMCDriver) SetRight(speed int) error { return d.SetSpeed(speed, Right) }

func (d *SMCDriver) Braking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.braking
}

func (d *SMCDriver) Status() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := make(map[string]any, len(sides))
	for _, side := range sides {
		status[string(side)] = d.controllers[side].Status()
	}
	return status
}
