package drive

import (
	"fmt"
	"sort"

	"github.com/joyride-robotics/joyride/internal/board"
)

// Config carries everything any backend might need. Each constructor uses
// only the fields relevant to it.
type Config struct {
	// Board is the onboard microcontroller connection (sabertooth backend).
	Board board.Conn
	// LeftSerial and RightSerial are the SMC controller serial numbers.
	LeftSerial  string
	RightSerial string
	// SmcCmdPath is the path to the Pololu SmcCmd utility (smccmd backend).
	SmcCmdPath string
}

type driverInfo struct {
	description string
	build       func(Config) (Driver, error)
}

// The backend is chosen exactly once at startup from a flag; there is no
// per-command dispatch on the name.
var driverList = map[string]driverInfo{
	"sabertooth": {
		description: "Talks to the Sabertooth 2x60 via the onboard microcontroller",
		build: func(cfg Config) (Driver, error) {
			return NewSabertoothDriver(cfg.Board)
		},
	},
	"smccmd": {
		description: "Runs the Pololu SmcCmd utility to process every request",
		build: func(cfg Config) (Driver, error) {
			if cfg.SmcCmdPath == "" {
				return nil, fmt.Errorf("the smccmd driver requires the path to the SmcCmd utility")
			}
			left := NewCmdController(cfg.SmcCmdPath, cfg.LeftSerial)
			right := NewCmdController(cfg.SmcCmdPath, cfg.RightSerial)
			return NewSMCDriver(left, right), nil
		},
	},
	"smcstub": {
		description: "Stub test driver for SMC controller-based drivers",
		build: func(cfg Config) (Driver, error) {
			return NewSMCDriver(
				NewStubController(cfg.LeftSerial),
				NewStubController(cfg.RightSerial),
			), nil
		},
	},
}

// New constructs the named backend.
func New(name string, cfg Config) (Driver, error) {
	info, ok := driverList[name]
	if !ok {
		return nil, fmt.Errorf("invalid driver %q (see --list-drivers)", name)
	}
	return info.build(cfg)
}

// List returns the available backend names and descriptions, sorted by name.
func List() []string {
	names := make([]string, 0, len(driverList))
	for name := range driverList {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf("%-12s %s", name, driverList[name].description))
	}
	return out
}
