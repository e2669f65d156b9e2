package board

import (
	"strconv"
	"strings"
	"time"
)

// Reading is one sensor report from the board: the channel key it arrived
// on, the raw datum, and the time the report was received. Readings are
// immutable once recorded.
type Reading struct {
	Timestamp time.Time
	Channel   string
	Data      float64
}

// Sensor channel keys reported by the board firmware.
const (
	ChannelBatteryVoltage = "BV"
	ChannelDriverTemp     = "DT"
	ChannelLeftSonar      = "LS"
	ChannelRightSonar     = "RS"
	ChannelLeftEncoder    = "LE"
	ChannelRightEncoder   = "RE"
)

// ParseReading interprets a line from the board as a sensor report of the
// form "<CHANNEL> <VALUE>", e.g. "BV 731". The channel key is one to three
// uppercase letters; the value must parse as a number. Lines that do not
// match (command acks, boot banners, line noise) return ok=false and are
// not readings.
func ParseReading(line string, now time.Time) (Reading, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Reading{}, false
	}

	channel := fields[0]
	if len(channel) < 1 || len(channel) > 3 {
		return Reading{}, false
	}
	for _, r := range channel {
		if r < 'A' || r > 'Z' {
			return Reading{}, false
		}
	}

	data, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Reading{}, false
	}

	return Reading{Timestamp: now, Channel: channel, Data: data}, true
}
