package drive

import (
	"fmt"
	"sync"
)

// StubController is an in-memory Controller for interface testing and for
// running the server without motor hardware. It models the SMC safe-start
// behaviour: Stop raises the safe start violation flag, Reset clears it.
type StubController struct {
	mu    sync.Mutex
	port  string
	speed int
	brake int
	safe  bool
	calls []string
}

var _ Controller = (*StubController)(nil)

// NewStubController returns a stub identified by port (a serial number or
// device path, used only for labelling).
func NewStubController(port string) *StubController {
	return &StubController{port: port, safe: true}
}

func (c *StubController) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *StubController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("reset()")
	c.speed = 0
	c.safe = false
	return nil
}

func (c *StubController) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("stop()")
	c.speed = 0
	c.safe = true
	return nil
}

func (c *StubController) Brake(native int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("brake(%d)", native)
	c.brake = native
	return nil
}

func (c *StubController) SetSpeed(native int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("set_speed(%d)", native)
	c.speed = native
	return nil
}

func (c *StubController) Speed() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed, nil
}

func (c *StubController) Status() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	errors := newErrorFlags()
	if c.safe {
		errors["safe start violation"] = true
	}

	return map[string]any{
		"product":  "stub",
		"firmware": "1.00",
		"port":     c.port,
		"speed":    c.speed,
		"braking":  c.brake,
		"errors":   errors,
	}
}

// Calls returns every operation issued to the stub, in order. Tests use it
// to assert that out-of-range commands never reach the hardware layer.
func (c *StubController) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}
