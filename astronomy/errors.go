package astronomy

import "fmt"

// ErrEphemerisUnavailable is returned when no ephemeris handle could be
// acquired at all (neither primary nor fallback provider is usable).
type ErrEphemerisUnavailable struct {
	Reason string
}

func (e *ErrEphemerisUnavailable) Error() string {
	return fmt.Sprintf("ephemeris unavailable: %s", e.Reason)
}

// ErrOutOfEphemerisRange is returned when a requested instant falls outside
// the validity window reported by DataRange.
type ErrOutOfEphemerisRange struct {
	Provider  string
	Requested string
	Start     string
	End       string
}

func (e *ErrOutOfEphemerisRange) Error() string {
	return fmt.Sprintf("%s: requested time %s is outside ephemeris range [%s, %s]",
		e.Provider, e.Requested, e.Start, e.End)
}
