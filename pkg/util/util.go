package util

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDomain is returned when a numeric operation leaves the real domain
// (negative base with a fractional exponent, 0 raised to a negative power, ...).
var ErrDomain = errors.New("util: result outside real domain")

// Pow returns a^b and reports ErrDomain instead of a NaN or infinite value.
func Pow(a, b float64) (float64, error) {
	v := math.Pow(a, b)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrDomain
	}
	return v, nil
}

// Finite reports whether every value is neither NaN nor ±Inf.
func Finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Logspace returns n points spaced evenly on a log scale between lo and hi
// (both inclusive). lo and hi must be > 0.
func Logspace(lo, hi float64, n int) []float64 {
	if n <= 0 || lo <= 0 || hi <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := floats.LogSpan(make([]float64, n), lo, hi)
	// pin the ends against rounding drift
	out[0], out[n-1] = lo, hi
	return out
}

// MinMaxPositive returns the smallest and largest strictly positive value.
// ok is false when xs has no positive entry.
func MinMaxPositive(xs []float64) (lo, hi float64, ok bool) {
	for _, x := range xs {
		if !(x > 0) || math.IsInf(x, 1) {
			continue
		}
		if !ok {
			lo, hi, ok = x, x, true
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, ok
}
