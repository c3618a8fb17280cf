package mathx

import "math"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

// Mod is the Euclidean remainder: always in [0, b) for b > 0.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Step returns -1 for negative x and 1 otherwise (zero steps forward).
func Step(x int) int {
	if x < 0 {
		return -1
	}
	return 1
}

// FloorDivFloat floors a/b to an int. b > 0.
func FloorDivFloat(a, b float64) int {
	return int(math.Floor(a / b))
}
