// Package robot ties the motor driver, board connection, and sensors into
// a single facade. All command-side mutations go through it so the last
// control time stays accurate for the watchdog.
package robot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/drive"
	"github.com/joyride-robotics/joyride/internal/sensor"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// resetSettle is how long the board port rests between stopping and
// restarting telemetry ingestion during a reset.
const resetSettle = 500 * time.Millisecond

// Snapshot is a point-in-time view of the whole robot for status reporting.
type Snapshot struct {
	Driver  map[string]any  `json:"driver"`
	Board   map[string]any  `json:"board"`
	Sensors []sensor.Status `json:"sensors"`
	Monitor map[string]any  `json:"monitor,omitempty"`
}

type Robot struct {
	driver  drive.Driver
	conn    board.Conn
	sensors map[string]sensor.Sensor
	clock   timeutil.Clock

	// Logf is where monitor lifecycle and shutdown problems go.
	Logf func(format string, args ...any)

	// resetMu serialises Reset. The watchdog's board recovery and a client
	// reset command can both ask for one at the same time; interleaved
	// resets would leak a monitor goroutine.
	resetMu sync.Mutex

	mu            sync.Mutex
	lastControl   time.Time
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

// New builds a robot over an already-constructed driver and board
// connection. A nil clock selects the real clock. Telemetry ingestion does
// not start until Reset.
func New(driver drive.Driver, conn board.Conn, sensors map[string]sensor.Sensor, clock timeutil.Clock) *Robot {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Robot{
		driver:  driver,
		conn:    conn,
		sensors: sensors,
		clock:   clock,
		Logf:    log.Printf,
	}
}

// Reset brings the robot to a known idle state: telemetry ingestion is
// stopped, the port settles, the board connection is re-opened so a dead
// port handle is replaced rather than reused, ingestion restarts, and the
// motors stop. Resets run one at a time.
func (r *Robot) Reset() error {
	r.resetMu.Lock()
	defer r.resetMu.Unlock()

	r.stopMonitor()
	r.clock.Sleep(resetSettle)
	if err := r.conn.Reopen(); err != nil {
		return fmt.Errorf("reopening board connection: %w", err)
	}
	r.startMonitor()
	if err := r.driver.Stop(); err != nil {
		return err
	}
	r.touch()
	return nil
}

func (r *Robot) startMonitor() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.monitorCancel = cancel
	r.monitorDone = done
	go func() {
		defer close(done)
		if err := r.conn.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.Logf("board monitor stopped: %v", err)
		}
	}()
}

func (r *Robot) stopMonitor() {
	r.mu.Lock()
	cancel := r.monitorCancel
	done := r.monitorDone
	r.monitorCancel = nil
	r.monitorDone = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Go clears the driver out of its stopped state so speed commands take
// effect.
func (r *Robot) Go() error {
	defer r.touch()
	return r.driver.Reset()
}

// Stop halts both motors immediately.
func (r *Robot) Stop() error {
	defer r.touch()
	return r.driver.Stop()
}

// Brake applies proportional braking at the given level.
func (r *Robot) Brake(level int) error {
	defer r.touch()
	return r.driver.Brake(level)
}

// SetSpeed commands the given motor(s) to the given logical speed.
func (r *Robot) SetSpeed(speed int, motor drive.Motor) error {
	defer r.touch()
	return r.driver.SetSpeed(speed, motor)
}

// Speed reports the current logical speed of the given motor(s).
func (r *Robot) Speed(motor drive.Motor) ([]int, error) {
	return r.driver.Speed(motor)
}

// Braking reports whether the driver is currently braking.
func (r *Robot) Braking() bool {
	return r.driver.Braking()
}

// ReadSensors recomputes every sensor from the latest board readings.
func (r *Robot) ReadSensors() {
	for _, s := range r.sensors {
		s.Read()
	}
}

// Status assembles a snapshot of the driver, board, and sensors. Sensors
// are sorted by name so repeated snapshots are comparable.
func (r *Robot) Status() Snapshot {
	names := make([]string, 0, len(r.sensors))
	for name := range r.sensors {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]sensor.Status, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, r.sensors[name].Status())
	}
	return Snapshot{
		Driver:  r.driver.Status(),
		Board:   r.conn.Status(),
		Sensors: statuses,
	}
}

// Shutdown stops the motors and releases the board connection. A driver
// stop failure is logged rather than propagated so the port still closes.
func (r *Robot) Shutdown() error {
	if err := r.driver.Stop(); err != nil {
		r.Logf("driver stop during shutdown: %v", err)
	}
	r.stopMonitor()
	return r.conn.Close()
}

// Board exposes the underlying board connection for health checks and
// admin routes.
func (r *Robot) Board() board.Conn {
	return r.conn
}

// Driver exposes the motor driver for watchdog actions that must not count
// as client control commands.
func (r *Robot) Driver() drive.Driver {
	return r.driver
}

// Sensors returns the sensor set keyed by name.
func (r *Robot) Sensors() map[string]sensor.Sensor {
	return r.sensors
}

func (r *Robot) touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastControl = r.clock.Now()
}

// LastControl is when the robot last received any motion command.
func (r *Robot) LastControl() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastControl
}

// ControlAge is how long the robot has gone without a motion command.
func (r *Robot) ControlAge() time.Duration {
	return r.clock.Since(r.LastControl())
}
