package drive

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// CmdController drives one SMC by shelling out to the Pololu SmcCmd
// utility for every request, addressed by controller serial number. It is
// the slowest backend but needs no USB protocol code of its own.
type CmdController struct {
	mu     sync.Mutex
	path   string
	serial string
	speed  int

	// runner executes the utility; tests replace it.
	runner func(args ...string) (string, error)
}

var _ Controller = (*CmdController)(nil)

// NewCmdController returns a controller using the SmcCmd binary at path to
// talk to the device with the given serial number.
func NewCmdController(path, serial string) *CmdController {
	c := &CmdController{path: path, serial: serial}
	c.runner = func(args ...string) (string, error) {
		out, err := exec.Command(c.path, args...).CombinedOutput()
		return string(out), err
	}
	return c
}

// run invokes SmcCmd against this controller. A non-zero exit whose output
// carries the utility's "Error:" banner is a deliberate refusal and comes
// back as a Rejected; any other failure is an ordinary error.
func (c *CmdController) run(args ...string) (string, error) {
	full := append([]string{"-d", c.serial}, args...)
	out, err := c.runner(full...)
	if err == nil {
		return out, nil
	}

	trimmed := strings.TrimSpace(out)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && strings.Contains(trimmed, "Error:") {
		return "", &Rejected{Reason: firstLine(trimmed)}
	}
	return "", fmt.Errorf("SmcCmd %v: %w (output: %s)", args, err, trimmed)
}

func (c *CmdController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.run("--resume")
	return err
}

func (c *CmdController) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.run("--stop"); err != nil {
		return err
	}
	c.speed = 0
	return nil
}

func (c *CmdController) Brake(native int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.run("--brake", strconv.Itoa(native))
	return err
}

func (c *CmdController) SetSpeed(native int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.run("--speed", strconv.Itoa(native)); err != nil {
		return err
	}
	c.speed = native
	return nil
}

// Speed returns the last speed commanded through this controller. SmcCmd
// has no cheap read-back, so the cached value stands in.
func (c *CmdController) Speed() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed, nil
}

func (c *CmdController) Status() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := map[string]any{
		"product": "smccmd",
		"serial":  c.serial,
		"speed":   c.speed,
	}

	out, err := c.run("--status")
	if err != nil {
		status["error"] = err.Error()
		return status
	}

	// SmcCmd prints "Name: value" lines.
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	status["fields"] = fields
	return status
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
