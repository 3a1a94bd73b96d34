package utils

import (
	"math/rand"
)

// Square is faster than math.Pow(x, 2).
func Square(n float64) float64 {
	return n * n
}

// Clamp restricts value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}
