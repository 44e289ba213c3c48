// Kunhua Huang 2026

package bench

import "math"

// Mean returns the arithmetic mean of samples, 0 when empty.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Stddev returns the Bessel-corrected sample standard deviation
// (divisor n-1). With fewer than two samples the statistic is
// undefined and ok is false; a NaN is never returned.
func Stddev(samples []float64) (stddev float64, ok bool) {
	n := len(samples)
	if n < 2 {
		return 0, false
	}

	mean := Mean(samples)
	var sq float64
	for _, s := range samples {
		d := s - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1)), true
}
