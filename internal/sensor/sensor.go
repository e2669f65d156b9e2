// Package sensor reads and scales the board-fed sensors. Every sensor
// follows the same pattern: fetch the latest reading for its channel, scale
// it, and expose the result as a status value. A channel with no reading
// yet reports an absent value, not an error.
package sensor

import (
	"github.com/joyride-robotics/joyride/internal/board"
)

// Source supplies the most recent reading per channel key. board.Conn
// satisfies it; tests use a map-backed fake.
type Source interface {
	LatestReading(channel string) (board.Reading, bool)
}

// Status is one sensor's contribution to a robot status snapshot.
type Status struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	Units string   `json:"units"`
}

// Sensor is a named, board-fed measurement.
type Sensor interface {
	// Read recomputes the sensor's value from the latest board reading.
	// ok is false when no reading has arrived for the channel yet.
	Read() (value float64, ok bool)
	// Status reports the last computed value with its name and units.
	Status() Status
}
