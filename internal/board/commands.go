package board

import (
	"strconv"
	"strings"
)

// Allow list of commands the server may write to the board. Anything not
// listed here (or matching a validated motor command) is refused before it
// reaches the wire, so a bad caller cannot put the firmware into an
// undocumented state.
var allowedCommands = []string{
	"R", // reset the motor relay to its run state
	"X", // emergency stop: kill drive outputs immediately
	"H", // heartbeat; the firmware estops if these stop arriving
	"?", // query firmware identity and version
	"S", // request an immediate sensor report sweep
}

const (
	motorCommandPrefix = "M"
	motorNativeMax     = 63 // Sabertooth native units, signed
)

// IsValidMotorCommand reports whether cmd is a well-formed motor speed
// command: "ML<n>", "MR<n>" or "MB<n>" with n in the Sabertooth native
// range [-63, 63]. L and R address one side, B addresses both.
func IsValidMotorCommand(cmd string) bool {
	if len(cmd) < 3 || !strings.HasPrefix(cmd, motorCommandPrefix) {
		return false
	}

	switch cmd[1] {
	case 'L', 'R', 'B':
	default:
		return false
	}

	n, err := strconv.Atoi(cmd[2:])
	if err != nil {
		return false
	}
	return n >= -motorNativeMax && n <= motorNativeMax
}

// IsAllowedCommand reports whether cmd may be sent to the board.
func IsAllowedCommand(cmd string) bool {
	for _, allowed := range allowedCommands {
		if cmd == allowed {
			return true
		}
	}
	return IsValidMotorCommand(cmd)
}
