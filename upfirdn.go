package upfirdn

import (
	"github.com/tphakala/go-upfirdn/internal/ndarray"
)

// Array is a strided N-dimensional array of real or complex samples.
// Complex data is kept as separate real and imaginary planes.
type Array = ndarray.Array

// NewArray wraps real data laid out in C (row-major) order. The array
// aliases data.
func NewArray(shape []int, data []float64) (*Array, error) {
	return ndarray.New(shape, data)
}

// NewComplexArray copies complex data laid out in C order.
func NewComplexArray(shape []int, data []complex128) (*Array, error) {
	return ndarray.NewComplex(shape, data)
}

// NewSplitArray wraps separate real and imaginary planes without copying.
// A nil im yields a real array.
func NewSplitArray(shape []int, re, im []float64) (*Array, error) {
	return ndarray.NewSplit(shape, re, im)
}

// Upfirdn upsamples x by p, filters it with h and downsamples by q in one
// call. Rates, axes and parallelism are set with options; the filter tail
// is included unless WithAllSamples(false) is given.
//
// For 1-D x and h with the tail included, the output has
// ceil((len(x)+ceil(len(h)/p)-1)*p/q) samples.
func Upfirdn(x, h *Array, opts ...Option) (*Array, error) {
	b, err := NewBank(x, h, opts...)
	if err != nil {
		return nil, err
	}
	o := resolveOptions(opts)
	return b.Apply(x, o.allSamples)
}

// Upfirdn1D is the one-shot form for a single real signal and real filter,
// including the filter tail.
func Upfirdn1D(x, h []float64, up, down int) ([]float64, error) {
	r, err := NewReal(up, down, h)
	if err != nil {
		return nil, err
	}
	out, err := r.Process(x)
	if err != nil {
		return nil, err
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}

// Upfirdn1DComplex is Upfirdn1D for complex signal and filter.
func Upfirdn1DComplex(x, h []complex128, up, down int) ([]complex128, error) {
	r, err := New(&Config{
		UpRate:              up,
		DownRate:            down,
		ComplexCoefficients: h,
		ComplexSignal:       true,
	})
	if err != nil {
		return nil, err
	}
	out, err := r.ProcessComplex(x)
	if err != nil {
		return nil, err
	}
	tail, err := r.FlushComplex()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}
