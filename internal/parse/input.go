package parse

import (
	"regexp"
	"strings"
)

var pinRe = regexp.MustCompile(`^\d{4}$`)

// Duration bounds for a session, in minutes.
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 120
)

// ValidPIN reports whether s is exactly four digits.
func ValidPIN(s string) bool {
	return pinRe.MatchString(s)
}

// ValidDuration reports whether minutes is within the allowed session length.
func ValidDuration(minutes int) bool {
	return minutes >= MinDurationMinutes && minutes <= MaxDurationMinutes
}

// CleanName trims surrounding whitespace and collapses internal runs of
// whitespace to single spaces.
func CleanName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// SameName compares two display names case-insensitively after cleaning.
// Turn-order checks use this so "bob " claims the slot queued as "Bob".
func SameName(a, b string) bool {
	return strings.EqualFold(CleanName(a), CleanName(b))
}
