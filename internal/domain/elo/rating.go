package elo

import "math"

// Expected is the probability a wrestler rated ra beats one rated rb.
func Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// Update applies one win. The winner gains exactly what the loser gives up.
func Update(winner, loser, k float64) (winnerPost, loserPost, expected float64) {
	expected = Expected(winner, loser)
	delta := k * (1 - expected)
	return winner + delta, loser - delta, expected
}
