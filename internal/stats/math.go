package stats

import "math"

// round rounds to the nearest integer, returned as float64.
func round(v float64) float64 {
	return math.Round(v)
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// pct returns part/total*100, or 0 when total is zero. Division by
// zero must never leak NaN or Inf into a displayed percentage.
func pct(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popVariance returns the population variance, or 0 for an empty slice.
func popVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// clamp100 restricts v to the [0, 100] range.
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
