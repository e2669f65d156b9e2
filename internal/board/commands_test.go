package board

import "testing"

func TestIsValidMotorCommand(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		expected bool
	}{
		// Valid commands
		{"left zero", "ML0", true},
		{"right full forward", "MR63", true},
		{"both full reverse", "MB-63", true},
		{"left partial", "ML31", true},
		{"right negative", "MR-10", true},

		// Invalid commands
		{"too short", "ML", false},
		{"wrong prefix", "XL10", false},
		{"bad side", "MX10", false},
		{"over native range", "ML64", false},
		{"under native range", "MR-64", false},
		{"not a number", "MBfast", false},
		{"float speed", "ML1.5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidMotorCommand(tt.cmd); got != tt.expected {
				t.Errorf("IsValidMotorCommand(%q) = %v, expected %v", tt.cmd, got, tt.expected)
			}
		})
	}
}

func TestIsAllowedCommand(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		expected bool
	}{
		{"reset", "R", true},
		{"estop", "X", true},
		{"heartbeat", "H", true},
		{"identity query", "?", true},
		{"motor command", "ML32", true},

		{"unknown static", "Q", false},
		{"arbitrary text", "reboot", false},
		{"bad motor command", "ML999", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowedCommand(tt.cmd); got != tt.expected {
				t.Errorf("IsAllowedCommand(%q) = %v, expected %v", tt.cmd, got, tt.expected)
			}
		})
	}
}
