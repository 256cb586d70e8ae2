package prediction

import "math"

const (
	// FlatMedalsPerDeck is the assumed average when no history is used.
	FlatMedalsPerDeck = 165.625

	minMedalsPerDeck = 100.0
	maxMedalsPerDeck = 225.0

	// Unreachable marks a target no win rate in [0, 1] produces exactly.
	Unreachable = -1.0
)

// MedalsPerDeck is the expected medals per deck at win rate p when each
// Battle Day is one best-of-three duel followed by regular battles.
func MedalsPerDeck(p float64) float64 {
	return -25*p*p*p + 25*p*p + 125*p + 100
}

// WinRate inverts MedalsPerDeck on [0, 1] by bisection. MedalsPerDeck is
// strictly increasing there.
func WinRate(medalsPerDeck float64) float64 {
	if math.IsNaN(medalsPerDeck) || medalsPerDeck < minMedalsPerDeck || medalsPerDeck > maxMedalsPerDeck {
		return Unreachable
	}

	lo, hi := 0.0, 1.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if MedalsPerDeck(mid) < medalsPerDeck {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// roundToNearest50 rounds halves to the even multiple, so 1025 becomes 1000
// and 1075 becomes 1100.
func roundToNearest50(v float64) int {
	return int(math.RoundToEven(v/50) * 50)
}
