// Package board manages the connection to the onboard microcontroller. A
// Mux owns the serial port: it ingests the board's line-oriented telemetry,
// tracks the latest reading per sensor channel, fans raw lines out to
// subscribers, and serialises command writes.
package board

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/joyride-robotics/joyride/internal/timeutil"
)

var (
	ErrWriteFailed       = fmt.Errorf("failed to write to board serial port")
	ErrCommandNotAllowed = fmt.Errorf("command is not in the board allow list")
)

// HealthyWindow is how recently the board must have reported anything for
// the connection to count as healthy.
const HealthyWindow = 2 * time.Second

// Conn is the board connection as seen by the rest of the server: command
// writes, telemetry ingestion, and the latest reading per channel.
type Conn interface {
	// Subscribe creates a channel receiving every raw line from the board.
	// The returned ID identifies the subscription for Unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes and closes a subscriber channel.
	Unsubscribe(string)
	// SendCommand writes an allow-listed command to the board.
	SendCommand(string) error
	// Monitor reads lines from the board until the context is cancelled,
	// recording sensor readings and fanning lines out to subscribers.
	Monitor(context.Context) error
	// Reopen re-establishes the underlying port. Connections over a fixed
	// port treat it as a no-op. Call with Monitor stopped.
	Reopen() error
	// LatestReading returns the most recent reading for a channel key.
	// ok is false until the first report for that channel arrives.
	LatestReading(channel string) (Reading, bool)
	// Status describes the connection for status reporting.
	Status() map[string]any
	// Healthy reports whether the board has said anything recently.
	Healthy() bool
	// AttachAdminRoutes mounts debug endpoints (command form, live line
	// tail) on the given HTTP mux under /debug/.
	AttachAdminRoutes(*http.ServeMux)
	// Close shuts the port and closes all subscriber channels.
	Close() error
}

// Mux multiplexes a single board serial port between telemetry ingestion
// and any number of line subscribers.
type Mux[T SerialPorter] struct {
	port  T
	clock timeutil.Clock

	// open hands out a fresh port for Reopen. nil when the mux was built
	// over a fixed port.
	open func() (T, error)

	subscriberMu sync.Mutex
	subscribers  map[string]chan string

	commandMu sync.Mutex

	stateMu   sync.Mutex
	readings  map[string]Reading
	lines     int64
	lastLine  time.Time
	monitored bool
	closing   bool
}

var _ Conn = (*Mux[*TestablePort])(nil)

// NewMux creates a Mux over the given port.
func NewMux[T SerialPorter](port T) *Mux[T] {
	return &Mux[T]{
		port:        port,
		clock:       timeutil.RealClock{},
		subscribers: make(map[string]chan string),
		readings:    make(map[string]Reading),
	}
}

// randomID generates a random subscriber ID (8 random bytes, hex encoded).
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *Mux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

func (m *Mux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// SendCommand validates cmd against the allow list and writes it to the
// board terminated by a newline. Writes are serialised so concurrent
// callers cannot interleave bytes.
func (m *Mux[T]) SendCommand(cmd string) error {
	if !IsAllowedCommand(cmd) {
		return fmt.Errorf("%w: %q", ErrCommandNotAllowed, cmd)
	}

	m.commandMu.Lock()
	defer m.commandMu.Unlock()

	payload := cmd
	if len(payload) == 0 || payload[len(payload)-1] != '\n' {
		payload += "\n"
	}
	n, err := m.port.Write([]byte(payload))
	if err != nil {
		return err
	}
	if n != len(payload) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the board and distributes them. Lines that parse
// as sensor reports are recorded as the latest reading for their channel;
// every line is fanned out to subscribers with non-blocking sends so a slow
// subscriber cannot stall ingestion.
func (m *Mux[T]) Monitor(ctx context.Context) error {
	m.stateMu.Lock()
	m.monitored = true
	m.stateMu.Unlock()
	defer func() {
		m.stateMu.Lock()
		m.monitored = false
		m.stateMu.Unlock()
	}()

	// Pin the port for this Monitor run; Reopen may swap the field between
	// runs.
	m.commandMu.Lock()
	port := m.port
	m.commandMu.Unlock()
	scan := bufio.NewScanner(port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// can await lines and context cancellation together.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}

			m.stateMu.Lock()
			if m.closing {
				m.stateMu.Unlock()
				return nil
			}
			now := m.clock.Now()
			m.lines++
			m.lastLine = now
			if reading, ok := ParseReading(line, now); ok {
				m.readings[reading.Channel] = reading
			}
			m.stateMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- line:
				default:
					// skip saturated subscribers rather than stall ingestion
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

// Reopen closes the current port and asks the opener for a fresh one at the
// same path, so a dead handle can be replaced without rebuilding the mux or
// disturbing its subscribers and cached readings. The close error of the
// old handle is discarded; it is usually the reason for reopening. Muxes
// built over a fixed port return nil without touching the port.
func (m *Mux[T]) Reopen() error {
	if m.open == nil {
		return nil
	}

	m.commandMu.Lock()
	defer m.commandMu.Unlock()

	m.port.Close()
	port, err := m.open()
	if err != nil {
		return err
	}
	m.port = port
	return nil
}

func (m *Mux[T]) LatestReading(channel string) (Reading, bool) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	r, ok := m.readings[channel]
	return r, ok
}

func (m *Mux[T]) Healthy() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.lastLine.IsZero() {
		return false
	}
	return m.clock.Since(m.lastLine) <= HealthyWindow
}

func (m *Mux[T]) Status() map[string]any {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	status := map[string]any{
		"monitoring":     m.monitored,
		"lines_received": m.lines,
		"channels":       len(m.readings),
	}
	if m.lastLine.IsZero() {
		status["healthy"] = false
	} else {
		age := m.clock.Since(m.lastLine)
		status["healthy"] = age <= HealthyWindow
		status["last_line_age_seconds"] = age.Seconds()
	}
	return status
}

func (m *Mux[T]) Close() error {
	m.stateMu.Lock()
	m.closing = true
	m.stateMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}

	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	return m.port.Close()
}
