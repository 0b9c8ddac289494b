package utils

import "math"

// BankersRoundPence rounds a fractional pence amount to the nearest whole
// penny using round-half-to-even, so repeated re-quotes do not drift upward.
func BankersRoundPence(amount float64) int64 {
	floor := math.Floor(amount)
	frac := amount - floor
	switch {
	case frac > 0.5:
		return int64(floor) + 1
	case frac < 0.5:
		return int64(floor)
	default:
		// Exactly halfway: round to the even neighbour.
		if int64(floor)%2 == 0 {
			return int64(floor)
		}
		return int64(floor) + 1
	}
}

// ClampMultiplier bounds a demand multiplier to the configured band.
func ClampMultiplier(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
