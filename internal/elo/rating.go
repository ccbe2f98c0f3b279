// Package elo implements the rating function and K-factor policy used by the
// league's rating engine.
package elo

import "math"

// Deviation is the rating difference at which the stronger player is expected
// to win ten times as often as the weaker one.
const Deviation = 400.0

// Expected returns the probability that a player rated a beats a player rated b.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/Deviation))
}

// ApplyResult returns the post-match ratings of the winner and the loser.
// Each side moves by its own K-factor, so rating mass is only conserved when
// kWinner == kLoser.
func ApplyResult(winner, loser, kWinner, kLoser float64) (float64, float64) {
	newWinner := winner + kWinner*(1-Expected(winner, loser))
	newLoser := loser + kLoser*(0-Expected(loser, winner))
	return newWinner, newLoser
}

// Round converts a computed rating to its persisted integer form, rounding
// halves to the nearest even integer.
func Round(rating float64) int {
	return int(math.RoundToEven(rating))
}
