// Package simdops binds the vector primitives used by the polyphase kernels.
//
// Every kernel variant (real/complex signal times real/complex coefficients)
// reduces to one or more real dot products over split real and imaginary
// planes, so a single primitive covers all of them.
package simdops

import (
	"github.com/tphakala/simd/f64"
)

// Ops provides the dot product implementation used by a kernel.
// Function pointers keep the hot loop free of type switches; the choice
// is made once when a resampler is constructed.
type Ops struct {
	// Name identifies the implementation ("simd" or "go").
	Name string

	// Dot computes the dot product without bounds checking.
	// Use only when slices are guaranteed to have equal length.
	Dot func(a, b []float64) float64
}

var (
	simdOps = Ops{
		Name: "simd",
		Dot:  f64.DotProductUnsafe,
	}
	goOps = Ops{
		Name: "go",
		Dot:  dotGo,
	}
)

// For returns the SIMD-backed operations when enableSIMD is true and the
// pure Go fallback otherwise.
func For(enableSIMD bool) *Ops {
	if enableSIMD {
		return &simdOps
	}
	return &goOps
}

// Float64Ops returns the SIMD-accelerated operations.
func Float64Ops() *Ops {
	return &simdOps
}

// PureGoOps returns the portable implementation.
func PureGoOps() *Ops {
	return &goOps
}

func dotGo(a, b []float64) float64 {
	b = b[:len(a)]
	var sum float64
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}
