package drive

// SMCErrorConditions is the vendor error table for the Pololu Simple Motor
// Controller, keyed by error bit. Controller status reports carry one
// boolean per condition name.
var SMCErrorConditions = map[int]string{
	0: "safe start violation",
	1: "channel invalid",
	2: "serial error",
	3: "command timeout",
	4: "limit/kill switch",
	5: "low vin",
	6: "high vin",
	7: "over temperature",
	8: "motor driver error",
	9: "err line high",
}

// newErrorFlags returns a fresh all-clear error flag map.
func newErrorFlags() map[string]bool {
	flags := make(map[string]bool, len(SMCErrorConditions))
	for _, name := range SMCErrorConditions {
		flags[name] = false
	}
	return flags
}
