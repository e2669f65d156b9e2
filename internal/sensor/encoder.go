package sensor

import (
	"sync"
	"time"

	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// Default encoder parameters for the wheel hall-effect sensors.
const (
	DefaultMagnets = 2
	DefaultWindow  = 10 * time.Second
)

// Encoder estimates wheel RPM from a monotonically increasing pulse counter
// reported by the board. It keeps a trailing window of readings; the rate
// is the pulse delta across the retained window divided by how long ago the
// window started.
type Encoder struct {
	mu      sync.Mutex
	source  Source
	name    string
	channel string
	magnets int
	window  time.Duration
	clock   timeutil.Clock

	readings []pulseReading
	rpm      *float64
}

type pulseReading struct {
	timestamp time.Time
	pulses    int
}

// NewEncoder builds an encoder sensor. magnets is the number of magnets per
// wheel revolution; window is how long readings stay eligible for the rate
// estimate. A nil clock selects the real clock.
func NewEncoder(source Source, name, channel string, magnets int, window time.Duration, clock timeutil.Clock) *Encoder {
	if magnets <= 0 {
		magnets = DefaultMagnets
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Encoder{
		source:  source,
		name:    name,
		channel: channel,
		magnets: magnets,
		window:  window,
		clock:   clock,
	}
}

// Read recomputes the RPM estimate. The order matters: ingest first, then
// evict, then compute from whatever the window retained, never from an
// evicted reading.
func (e *Encoder) Read() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Ingest a new reading only if its timestamp is strictly newer than the
	// newest retained one. Duplicate or out-of-order board reports never
	// enter the window.
	if reading, ok := e.source.LatestReading(e.channel); ok {
		if len(e.readings) == 0 || reading.Timestamp.After(e.readings[len(e.readings)-1].timestamp) {
			e.readings = append(e.readings, pulseReading{
				timestamp: reading.Timestamp,
				pulses:    int(reading.Data),
			})
		}
	}

	// Evict readings that have aged out of the window.
	now := e.clock.Now()
	cutoff := now.Add(-e.window)
	stale := 0
	for stale < len(e.readings) && e.readings[stale].timestamp.Before(cutoff) {
		stale++
	}
	e.readings = e.readings[stale:]

	// With fewer than two retained readings there is no measurable pulse
	// delta; report zero over the full window rather than dividing by a
	// near-zero elapsed time at startup.
	var pulses int
	elapsed := e.window
	if len(e.readings) >= 2 {
		newest := e.readings[len(e.readings)-1]
		oldest := e.readings[0]
		pulses = newest.pulses - oldest.pulses
		elapsed = now.Sub(oldest.timestamp)
	}
	if elapsed <= 0 {
		elapsed = e.window
	}

	rpm := (float64(pulses) / float64(e.magnets)) * (60 / elapsed.Seconds())
	e.rpm = &rpm
	return rpm, true
}

func (e *Encoder) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Name: e.name, Value: e.rpm, Units: "RPM"}
}

// Window returns a copy of the retained readings, newest last.
func (e *Encoder) Window() []board.Reading {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]board.Reading, 0, len(e.readings))
	for _, r := range e.readings {
		out = append(out, board.Reading{
			Timestamp: r.timestamp,
			Channel:   e.channel,
			Data:      float64(r.pulses),
		})
	}
	return out
}
