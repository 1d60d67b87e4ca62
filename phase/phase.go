// Package phase implements the offline phase-pairing rule used by the
// simulation engine's loader and exported for advanced callers (spec
// §4.J): panel positions alternate legs 1-based by odd/even, and a
// dual-phase circuit is valid iff its two positions sit on opposite legs
// and within panel bounds.
package phase

// Leg identifies which of the panel's two incoming legs a position sits on.
type Leg int

const (
	LegOne Leg = 1
	LegTwo Leg = 2
)

// LegOf returns the leg for a 1-based panel position: odd positions are
// leg one, even positions are leg two.
func LegOf(position int) Leg {
	if position%2 == 1 {
		return LegOne
	}
	return LegTwo
}

// InBounds reports whether position is a valid 1-based panel slot.
func InBounds(position, totalPositions int) bool {
	return position >= 1 && position <= totalPositions
}

// ValidPair reports whether positions a and b form a valid dual-phase
// (multi-leg) circuit: both within bounds and on opposite legs.
func ValidPair(a, b, totalPositions int) bool {
	if !InBounds(a, totalPositions) || !InBounds(b, totalPositions) {
		return false
	}
	return LegOf(a) != LegOf(b)
}

// IsDualPhase reports whether the given ordered tab list describes a
// dual-phase circuit: exactly two tabs forming a valid pair. A
// single-tab circuit is never dual-phase; more than two tabs is not a
// recognized multi-leg shape and also reports false.
func IsDualPhase(tabs []int, totalPositions int) bool {
	if len(tabs) != 2 {
		return false
	}
	return ValidPair(tabs[0], tabs[1], totalPositions)
}
