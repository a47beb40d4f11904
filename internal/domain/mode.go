package domain

import "strings"

// Mode is the enforcement policy applied to a non-empty scan result
type Mode string

const (
	ModeWarn    Mode = "warn"
	ModeEnforce Mode = "enforce"
)

// ParseMode converts a configuration value to a Mode.
// Unknown values fall back to warn.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enforce":
		return ModeEnforce
	default:
		return ModeWarn
	}
}

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	return m == ModeWarn || m == ModeEnforce
}
