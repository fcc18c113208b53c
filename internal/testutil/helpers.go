// Package testutil provides reference implementations and assertion helpers
// for upfirdn tests.
package testutil

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

// Default tolerances for various test scenarios.
const (
	// NMSETolerance bounds the normalized mean-square error between a
	// streaming result and its reference.
	NMSETolerance = 1e-10

	// DefaultTolerance is the absolute per-sample tolerance.
	DefaultTolerance = 1e-10
)

// ReferenceUpfirdn is the slow textbook definition: insert up-1 zeros after
// every input sample, fully convolve with h, keep every down-th sample.
func ReferenceUpfirdn(x, h []complex128, up, down int) []complex128 {
	stuffed := make([]complex128, len(x)*up)
	for i, v := range x {
		stuffed[i*up] = v
	}
	full := Convolve(stuffed, h)
	out := make([]complex128, 0, len(full)/down+1)
	for i := 0; i < len(full); i += down {
		out = append(out, full[i])
	}
	return out
}

// Convolve returns the full linear convolution of a and b.
func Convolve(a, b []complex128) []complex128 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]complex128, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// Real promotes real samples to complex128.
func Real(x []float64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = complex(v, 0)
	}
	return out
}

// Split separates complex samples into real and imaginary planes.
func Split(x []complex128) (re, im []float64) {
	re = make([]float64, len(x))
	im = make([]float64, len(x))
	for i, v := range x {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return re, im
}

// Join combines planes into complex128 samples. A nil im yields zero
// imaginary parts.
func Join(re, im []float64) []complex128 {
	out := make([]complex128, len(re))
	for i := range re {
		var v float64
		if im != nil {
			v = im[i]
		}
		out[i] = complex(re[i], v)
	}
	return out
}

// NMSE returns sum|got-want|^2 / sum|want|^2. Lengths must match.
func NMSE(got, want []complex128) float64 {
	gRe, gIm := Split(got)
	wRe, wIm := Split(want)
	dRe := floats.Distance(gRe, wRe, 2)
	dIm := floats.Distance(gIm, wIm, 2)
	num := dRe*dRe + dIm*dIm
	den := floats.Dot(wRe, wRe) + floats.Dot(wIm, wIm)
	if den == 0 {
		return num
	}
	return num / den
}

// RandomReal returns n standard normal samples.
func RandomReal(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// RandomSignal returns n standard normal samples, complex when
// complexValued is set and with zero imaginary parts otherwise.
func RandomSignal(rng *rand.Rand, n int, complexValued bool) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		if complexValued {
			out[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		} else {
			out[i] = complex(rng.NormFloat64(), 0)
		}
	}
	return out
}

// Ramp returns 0, 1, ..., n-1.
func Ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AssertNMSE verifies that got matches want within NMSE tolerance.
func AssertNMSE(t *testing.T, want, got []complex128, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, got, len(want), msgAndArgs...) {
		return false
	}
	nmse := NMSE(got, want)
	return assert.Less(t, nmse, tolerance, msgAndArgs...)
}

// AssertComplexInDelta verifies element-wise closeness of complex slices.
func AssertComplexInDelta(t *testing.T, want, got []complex128, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, got, len(want), msgAndArgs...) {
		return false
	}
	for i := range want {
		if d := cmplx.Abs(got[i] - want[i]); d > delta {
			return assert.Fail(t, "complex values differ",
				"index %d: got %v, want %v (|diff|=%g)", i, got[i], want[i], d)
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}
