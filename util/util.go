// Package util contains misc internal utilities.
package util

import "unicode"

// AllElementsNumbers returns true if every rune in s is a digit or a
// decimal point, e.g. a duration given without a unit.
func AllElementsNumbers(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
