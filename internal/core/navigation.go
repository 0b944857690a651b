package core

// navigationTable maps a source process (0 = phase just entered) to the
// set of permitted next processes. Termination of the phase is only
// reachable from P3.
var navigationTable = map[ProcessID][]ProcessID{
	0: {1},
	1: {1, 2},
	2: {1, 2, 3},
	3: {2, 3},
}

// IsValidNavigation reports whether the process transition from -> to is
// permitted by the rule table.
func IsValidNavigation(from, to ProcessID) bool {
	allowed, ok := navigationTable[from]
	if !ok {
		return false
	}
	for _, p := range allowed {
		if p == to {
			return true
		}
	}
	return false
}

// AllowedNavigation returns the permitted next processes from a source
// process. The slice is a copy; callers may mutate it.
func AllowedNavigation(from ProcessID) []ProcessID {
	allowed, ok := navigationTable[from]
	if !ok {
		return nil
	}
	out := make([]ProcessID, len(allowed))
	copy(out, allowed)
	return out
}

// CanTerminatePhaseFrom reports whether a phase may be terminated when
// its most recently terminated process is from.
func CanTerminatePhaseFrom(from ProcessID) bool {
	return from == 3
}
