package robot

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/drive"
	"github.com/joyride-robotics/joyride/internal/sensor"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// fakeDriver records driver calls for assertion.
type fakeDriver struct {
	calls   []string
	stopErr error
	braking bool
}

func (f *fakeDriver) Reset() error { f.calls = append(f.calls, "reset"); return nil }
func (f *fakeDriver) Stop() error  { f.calls = append(f.calls, "stop"); return f.stopErr }
func (f *fakeDriver) Brake(level int) error {
	f.calls = append(f.calls, "brake")
	f.braking = true
	return nil
}
func (f *fakeDriver) SetSpeed(speed int, motor drive.Motor) error {
	f.calls = append(f.calls, "set_speed")
	return nil
}
func (f *fakeDriver) Speed(motor drive.Motor) ([]int, error) { return []int{0}, nil }
func (f *fakeDriver) Braking() bool                          { return f.braking }
func (f *fakeDriver) Status() map[string]any {
	return map[string]any{"left": "ok", "right": "ok"}
}

// fakeConn is a board.Conn that tracks monitor lifecycle and reopens.
type fakeConn struct {
	mu            sync.Mutex
	reopenErr     error
	monitorStarts int
	liveMonitors  int
	reopenCount   int
	closed        bool
}

func (f *fakeConn) Subscribe() (string, chan string) { return "sub", make(chan string) }
func (f *fakeConn) Unsubscribe(string)               {}
func (f *fakeConn) SendCommand(string) error         { return nil }
func (f *fakeConn) Monitor(ctx context.Context) error {
	f.mu.Lock()
	f.monitorStarts++
	f.liveMonitors++
	f.mu.Unlock()
	<-ctx.Done()
	f.mu.Lock()
	f.liveMonitors--
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeConn) Reopen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reopenErr != nil {
		return f.reopenErr
	}
	f.reopenCount++
	return nil
}

func (f *fakeConn) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitorStarts
}

func (f *fakeConn) active() bool {
	return f.live() > 0
}

func (f *fakeConn) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveMonitors
}

func (f *fakeConn) reopens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reopenCount
}
func (f *fakeConn) LatestReading(string) (board.Reading, bool) { return board.Reading{}, false }
func (f *fakeConn) Status() map[string]any                     { return map[string]any{"healthy": true} }
func (f *fakeConn) Healthy() bool                              { return true }
func (f *fakeConn) AttachAdminRoutes(*http.ServeMux)           {}
func (f *fakeConn) Close() error                               { f.closed = true; return nil }

func newTestRobot(t *testing.T, driver *fakeDriver, conn *fakeConn) (*Robot, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r := New(driver, conn, sensor.Defaults(conn, clock), clock)
	r.Logf = t.Logf
	return r, clock
}

func TestResetStartsMonitorAndStopsDriver(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{}
	r, clock := newTestRobot(t, driver, conn)

	require.NoError(t, r.Reset())
	assert.Equal(t, []string{"stop"}, driver.calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Sleeps())
	require.Eventually(t, func() bool { return conn.starts() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, clock.Now(), r.LastControl())

	require.NoError(t, r.Shutdown())
}

func TestResetRestartsMonitor(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{}
	r, _ := newTestRobot(t, driver, conn)

	require.NoError(t, r.Reset())
	require.NoError(t, r.Reset())
	require.Eventually(t, func() bool { return conn.starts() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, r.Shutdown())
	assert.False(t, conn.active())
	assert.True(t, conn.closed)
}

func TestResetReopensBoardConnection(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{}
	r, _ := newTestRobot(t, driver, conn)

	require.NoError(t, r.Reset())
	assert.Equal(t, 1, conn.reopens())
	require.Eventually(t, func() bool { return conn.starts() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, r.Shutdown())
}

func TestResetPropagatesReopenFailure(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{reopenErr: errors.New("no such device")}
	r, _ := newTestRobot(t, driver, conn)

	assert.Error(t, r.Reset())
	// With no port to read, ingestion must not restart and the driver is
	// left alone; the watchdog retries the whole reset.
	assert.Equal(t, 0, conn.starts())
	assert.Empty(t, driver.calls)

	require.NoError(t, r.Shutdown())
}

func TestResetReopensBoardPort(t *testing.T) {
	first := board.NewTestablePort()
	factory := board.NewMockSerialPortFactory(first)
	mux, err := board.NewFactoryMux(factory, "/dev/ttyUSB0", board.PortOptions{})
	require.NoError(t, err)

	driver := &fakeDriver{}
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r := New(driver, mux, sensor.Defaults(mux, clock), clock)
	r.Logf = t.Logf

	factory.Port = board.NewTestablePort()
	require.NoError(t, r.Reset())

	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB0"}, factory.Opens())
	assert.True(t, first.Closed())

	require.NoError(t, r.Shutdown())
}

func TestConcurrentResetsDoNotLeakMonitor(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{}
	r, _ := newTestRobot(t, driver, conn)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Reset())
		}()
	}
	wg.Wait()
	require.Eventually(t, func() bool { return conn.starts() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, r.Shutdown())
	require.Eventually(t, func() bool { return conn.live() == 0 }, time.Second, time.Millisecond,
		"a monitor goroutine survived shutdown")
}

func TestResetPropagatesDriverFailure(t *testing.T) {
	driver := &fakeDriver{stopErr: errors.New("no controller")}
	conn := &fakeConn{}
	r, _ := newTestRobot(t, driver, conn)

	assert.Error(t, r.Reset())
	r.Shutdown()
}

func TestControlCommandsStampLastControl(t *testing.T) {
	driver := &fakeDriver{}
	conn := &fakeConn{}
	r, clock := newTestRobot(t, driver, conn)

	start := clock.Now()
	clock.Advance(time.Minute)
	require.NoError(t, r.Go())
	require.NoError(t, r.SetSpeed(50, drive.Both))
	require.NoError(t, r.Brake(3))
	require.NoError(t, r.Stop())
	assert.Equal(t, []string{"reset", "set_speed", "brake", "stop"}, driver.calls)
	assert.Equal(t, start.Add(time.Minute), r.LastControl())
	assert.Zero(t, r.ControlAge())

	clock.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, r.ControlAge())
}

func TestStatusSortsSensorsByName(t *testing.T) {
	r, _ := newTestRobot(t, &fakeDriver{}, &fakeConn{})

	snap := r.Status()
	assert.Equal(t, map[string]any{"left": "ok", "right": "ok"}, snap.Driver)
	assert.Equal(t, map[string]any{"healthy": true}, snap.Board)

	names := make([]string, 0, len(snap.Sensors))
	for _, s := range snap.Sensors {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"battery-voltage", "driver-temp",
		"left-encoder", "left-sonar",
		"right-encoder", "right-sonar",
	}, names)
}

func TestShutdownClosesBoardDespiteDriverFailure(t *testing.T) {
	driver := &fakeDriver{stopErr: errors.New("port gone")}
	conn := &fakeConn{}
	r, _ := newTestRobot(t, driver, conn)

	require.NoError(t, r.Shutdown())
	assert.True(t, conn.closed)
}
