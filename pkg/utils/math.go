package utils

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CeilDiv divides a by b rounding up. b must be positive; a non-positive a yields 0.
func CeilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// RoundUpToMultiple rounds a up to the nearest multiple of b.
func RoundUpToMultiple(a, b int) int {
	return CeilDiv(a, b) * b
}
