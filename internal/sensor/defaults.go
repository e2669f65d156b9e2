package sensor

import (
	"github.com/joyride-robotics/joyride/internal/board"
	"github.com/joyride-robotics/joyride/internal/timeutil"
)

// Divider resistors on the battery sense input, in ohms.
const (
	batteryDividerR1 = 100000
	batteryDividerR2 = 10000
)

// Defaults builds the standard sensor set for the stock board wiring,
// keyed by sensor name.
func Defaults(source Source, clock timeutil.Clock) map[string]Sensor {
	return map[string]Sensor{
		"battery-voltage": NewVoltage(source, "battery-voltage", board.ChannelBatteryVoltage, batteryDividerR1, batteryDividerR2),
		"driver-temp":     NewTemperature(source, "driver-temp", board.ChannelDriverTemp, nil),
		"left-sonar":      NewSonar(source, "left-sonar", board.ChannelLeftSonar),
		"right-sonar":     NewSonar(source, "right-sonar", board.ChannelRightSonar),
		"left-encoder":    NewEncoder(source, "left-encoder", board.ChannelLeftEncoder, DefaultMagnets, DefaultWindow, clock),
		"right-encoder":   NewEncoder(source, "right-encoder", board.ChannelRightEncoder, DefaultMagnets, DefaultWindow, clock),
	}
}
