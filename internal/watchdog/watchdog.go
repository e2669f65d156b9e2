// Package watchdog runs the server monitor loop: it refreshes sensors,
// recovers an unhealthy board connection, and safes the robot when clients
// or control commands go quiet.
package watchdog

import (
	"context"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/joyride-robotics/joyride/internal/robot"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// Params are the monitor loop timings and thresholds.
type Params struct {
	// LoopInterval is the monitor poll period.
	LoopInterval time.Duration
	// ResetBackoff is the minimum gap between board reset attempts.
	ResetBackoff time.Duration
	// ClientTimeout stops the robot when no client has issued any
	// successful command for this long.
	ClientTimeout time.Duration
	// ControlBrakeAfter starts gentle braking when no motion command has
	// arrived for this long.
	ControlBrakeAfter time.Duration
	// ControlStopAfter stops the robot outright when motion commands stay
	// absent beyond the braking phase.
	ControlStopAfter time.Duration
	// BrakeLevel is the brake applied at ControlBrakeAfter.
	BrakeLevel int
	// TouchPath is the liveness file the process supervisor watches.
	TouchPath string
	// TouchInterval is the minimum gap between liveness file touches.
	TouchInterval time.Duration
}

// DefaultParams returns the stock monitor configuration.
func DefaultParams() Params {
	return Params{
		LoopInterval:      50 * time.Millisecond,
		ResetBackoff:      500 * time.Millisecond,
		ClientTimeout:     5 * time.Second,
		ControlBrakeAfter: 2500 * time.Millisecond,
		ControlStopAfter:  5 * time.Second,
		BrakeLevel:        3,
		TouchPath:         "/tmp/server-monitor-alive",
		TouchInterval:     time.Second,
	}
}

// ClientAges reports how long ago a client last completed a command. The
// control server implements it.
type ClientAges interface {
	ClientAge() time.Duration
}

// loopSamples is how many loop intervals the diagnostics keep.
const loopSamples = 128

// Monitor polls the robot and takes action on exceptional conditions. Each
// exceptional episode is logged once on entry, not every iteration.
type Monitor struct {
	robot  *robot.Robot
	server ClientAges
	params Params
	clock  timeutil.Clock
	Logf   func(format string, args ...any)

	logEstop          bool
	logSlowdown       bool
	logControlEstop   bool
	logBoardUnhealthy bool
	logFailedReset    bool
	logFailedTouch    bool

	lastResetAttempt time.Time
	lastTouched      time.Time
	lastLoop         time.Time

	mu        sync.Mutex
	intervals []float64
}

// New builds a monitor over the robot and client-age source. A nil clock
// selects the real clock.
func New(r *robot.Robot, server ClientAges, params Params, clock timeutil.Clock) *Monitor {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Monitor{
		robot:             r,
		server:            server,
		params:            params,
		clock:             clock,
		Logf:              log.Printf,
		logEstop:          true,
		logSlowdown:       true,
		logControlEstop:   true,
		logBoardUnhealthy: true,
		logFailedReset:    true,
		logFailedTouch:    true,
	}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.params.LoopInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			m.Step(now)
		}
	}
}

// Step runs one monitor iteration at the given time.
func (m *Monitor) Step(now time.Time) {
	m.recordLoop(now)
	m.robot.ReadSensors()
	m.checkBoard(now)
	m.checkClient()
	m.checkControl()
	m.touchAlive(now)
}

func (m *Monitor) recordLoop(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lastLoop.IsZero() {
		m.intervals = append(m.intervals, now.Sub(m.lastLoop).Seconds())
		if len(m.intervals) > loopSamples {
			m.intervals = m.intervals[len(m.intervals)-loopSamples:]
		}
	}
	m.lastLoop = now
}

func (m *Monitor) checkBoard(now time.Time) {
	if m.robot.Board().Healthy() {
		m.logFailedReset = true
		if !m.logBoardUnhealthy {
			m.logBoardUnhealthy = true
			m.Logf("board became healthy again")
		}
		return
	}

	if m.logBoardUnhealthy {
		m.Logf("board became unhealthy")
		m.logBoardUnhealthy = false
	}
	if now.Sub(m.lastResetAttempt) <= m.params.ResetBackoff {
		return
	}
	m.lastResetAttempt = now
	if err := m.robot.Reset(); err != nil && m.logFailedReset {
		m.Logf("failed to reset board: %v", err)
		m.logFailedReset = false
	}
}

func (m *Monitor) checkClient() {
	age := m.server.ClientAge()
	if age <= m.params.ClientTimeout {
		m.logEstop = true
		return
	}
	if m.logEstop {
		m.Logf("monitor estop; client age %.4fs", age.Seconds())
		m.logEstop = false
	}
	if err := m.robot.Driver().Stop(); err != nil {
		m.Logf("monitor estop failed: %v", err)
	}
}

func (m *Monitor) checkControl() {
	age := m.robot.ControlAge()
	switch {
	case age > m.params.ControlBrakeAfter && !m.robot.Braking():
		if m.logSlowdown {
			m.Logf("braking; control age %.4fs", age.Seconds())
			m.logSlowdown = false
		}
		if err := m.robot.Driver().Brake(m.params.BrakeLevel); err != nil {
			m.Logf("monitor brake failed: %v", err)
		}
	case age > m.params.ControlStopAfter:
		if m.logControlEstop {
			m.Logf("controlled estop; control age %.4fs", age.Seconds())
			m.logControlEstop = false
		}
		if err := m.robot.Driver().Stop(); err != nil {
			m.Logf("controlled estop failed: %v", err)
		}
	default:
		m.logSlowdown = true
		m.logControlEstop = true
	}
}

func (m *Monitor) touchAlive(now time.Time) {
	if m.params.TouchPath == "" || now.Sub(m.lastTouched) <= m.params.TouchInterval {
		return
	}
	m.lastTouched = now
	if err := touch(m.params.TouchPath); err != nil {
		if m.logFailedTouch {
			m.Logf("failed to touch %s: %v", m.params.TouchPath, err)
			m.logFailedTouch = false
		}
		return
	}
	m.logFailedTouch = true
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	f.Close()
	now := time.Now()
	return os.Chtimes(path, now, now)
}

// Status reports the watchdog ages and loop diagnostics.
func (m *Monitor) Status() map[string]any {
	status := map[string]any{
		"client_age":  roundAge(m.server.ClientAge()),
		"control_age": roundAge(m.robot.ControlAge()),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.intervals) > 0 {
		maxInterval := m.intervals[0]
		for _, v := range m.intervals {
			maxInterval = math.Max(maxInterval, v)
		}
		status["loop_mean"] = stat.Mean(m.intervals, nil)
		status["loop_max"] = maxInterval
	}
	return status
}

func roundAge(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
