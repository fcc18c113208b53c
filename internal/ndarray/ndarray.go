// Package ndarray implements the strided N-dimensional arrays used by the
// resampler bank.
//
// An Array stores real data in one float64 plane and, when complex, the
// imaginary parts in a second plane of the same length. Axis permutations
// only reorder shape and strides, so moving the sample axis to the back
// and back again never copies data.
package ndarray

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrIncompatibleShapes indicates shapes that cannot be broadcast together.
	ErrIncompatibleShapes = errors.New("ndarray: incompatible shapes")

	// ErrAxisOutOfRange indicates an axis index outside [-ndim, ndim).
	ErrAxisOutOfRange = errors.New("ndarray: axis out of range")

	// ErrInvalidShape indicates a shape that does not match its data.
	ErrInvalidShape = errors.New("ndarray: invalid shape")
)

// Array is a strided view over split real/imaginary planes.
type Array struct {
	shape   []int
	strides []int
	offset  int

	re []float64
	im []float64 // nil for real arrays
}

// New wraps real data in C (row-major) order. The array aliases re.
// A zero-dimensional shape is promoted to [1].
func New(shape []int, re []float64) (*Array, error) {
	return NewSplit(shape, re, nil)
}

// NewSplit wraps separate real and imaginary planes. A nil im yields a
// real array. Both planes are aliased, not copied.
func NewSplit(shape []int, re, im []float64) (*Array, error) {
	shape = atLeast1D(shape)
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension in %v", ErrInvalidShape, shape)
		}
	}
	n := Volume(shape)
	if len(re) != n {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d", ErrInvalidShape, shape, n, len(re))
	}
	if im != nil && len(im) != n {
		return nil, fmt.Errorf("%w: imaginary plane has %d elements, want %d", ErrInvalidShape, len(im), n)
	}
	return &Array{
		shape:   shape,
		strides: cOrderStrides(shape),
		re:      re,
		im:      im,
	}, nil
}

// NewComplex copies complex data in C order into split planes.
func NewComplex(shape []int, data []complex128) (*Array, error) {
	re := make([]float64, len(data))
	im := make([]float64, len(data))
	for i, v := range data {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return NewSplit(shape, re, im)
}

// Zeros allocates a zero-filled contiguous array.
func Zeros(shape []int, complexValued bool) *Array {
	shape = atLeast1D(shape)
	n := Volume(shape)
	a := &Array{
		shape:   shape,
		strides: cOrderStrides(shape),
		re:      make([]float64, n),
	}
	if complexValued {
		a.im = make([]float64, n)
	}
	return a
}

func atLeast1D(shape []int) []int {
	if len(shape) == 0 {
		return []int{1}
	}
	return slices.Clone(shape)
}

func cOrderStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Volume returns the number of elements addressed by shape.
func Volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Strides returns a copy of the element strides.
func (a *Array) Strides() []int { return slices.Clone(a.strides) }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return Volume(a.shape) }

// IsComplex reports whether the array carries an imaginary plane.
func (a *Array) IsComplex() bool { return a.im != nil }

// Contiguous reports whether the view walks its planes in C order.
func (a *Array) Contiguous() bool {
	return a.offset == 0 && slices.Equal(a.strides, cOrderStrides(a.shape))
}

// Planes returns the underlying storage. The planes are only in C order
// when Contiguous reports true.
func (a *Array) Planes() (re, im []float64) { return a.re, a.im }

func (a *Array) index(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for %d-dimensional array", len(idx), len(a.shape)))
	}
	off := a.offset
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with size %d", v, i, a.shape[i]))
		}
		off += v * a.strides[i]
	}
	return off
}

// At returns the element at idx. Real arrays return a zero imaginary part.
func (a *Array) At(idx ...int) complex128 {
	off := a.index(idx)
	if a.im == nil {
		return complex(a.re[off], 0)
	}
	return complex(a.re[off], a.im[off])
}

// Set stores v at idx. The imaginary part is discarded for real arrays.
func (a *Array) Set(v complex128, idx ...int) {
	off := a.index(idx)
	a.re[off] = real(v)
	if a.im != nil {
		a.im[off] = imag(v)
	}
}

// Float64s returns the real parts in C order as a new slice.
func (a *Array) Float64s() []float64 {
	out := make([]float64, 0, a.Size())
	for _, idx := range Indices(a.shape) {
		out = append(out, a.re[a.index(idx)])
	}
	return out
}

// Complex128s returns the elements in C order as a new slice.
func (a *Array) Complex128s() []complex128 {
	out := make([]complex128, 0, a.Size())
	for _, idx := range Indices(a.shape) {
		out = append(out, a.At(idx...))
	}
	return out
}

// NormalizeAxis maps a possibly negative axis onto [0, ndim).
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < -ndim || axis >= ndim {
		return 0, fmt.Errorf("%w: axis %d for %d dimensions", ErrAxisOutOfRange, axis, ndim)
	}
	if axis < 0 {
		axis += ndim
	}
	return axis, nil
}

// Transpose returns a view with axes reordered by perm.
func (a *Array) Transpose(perm []int) (*Array, error) {
	if len(perm) != len(a.shape) {
		return nil, fmt.Errorf("%w: permutation %v for %d dimensions", ErrAxisOutOfRange, perm, len(a.shape))
	}
	seen := make([]bool, len(perm))
	shape := make([]int, len(perm))
	strides := make([]int, len(perm))
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, fmt.Errorf("%w: invalid permutation %v", ErrAxisOutOfRange, perm)
		}
		seen[p] = true
		shape[i] = a.shape[p]
		strides[i] = a.strides[p]
	}
	return &Array{
		shape:   shape,
		strides: strides,
		offset:  a.offset,
		re:      a.re,
		im:      a.im,
	}, nil
}

// MoveAxisToBack returns a view with axis moved to the last position,
// keeping the relative order of the other axes.
func (a *Array) MoveAxisToBack(axis int) (*Array, error) {
	n := len(a.shape)
	axis, err := NormalizeAxis(axis, n)
	if err != nil {
		return nil, err
	}
	perm := make([]int, 0, n)
	for i := range n {
		if i != axis {
			perm = append(perm, i)
		}
	}
	perm = append(perm, axis)
	return a.Transpose(perm)
}

// MoveBackToAxis is the inverse of MoveAxisToBack: the last axis is moved
// to position axis.
func (a *Array) MoveBackToAxis(axis int) (*Array, error) {
	n := len(a.shape)
	axis, err := NormalizeAxis(axis, n)
	if err != nil {
		return nil, err
	}
	perm := make([]int, 0, n)
	for i := range axis {
		perm = append(perm, i)
	}
	perm = append(perm, n-1)
	for i := axis; i < n-1; i++ {
		perm = append(perm, i)
	}
	return a.Transpose(perm)
}

// Lane returns the 1-D run along the last axis at the leading multi-index
// prefix. The planes alias the array when the last stride is 1; otherwise
// they are copied. im is nil for real arrays.
func (a *Array) Lane(prefix []int) (re, im []float64) {
	last := len(a.shape) - 1
	if len(prefix) != last {
		panic(fmt.Sprintf("ndarray: lane prefix has %d indices, want %d", len(prefix), last))
	}
	base := a.offset
	for i, v := range prefix {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with size %d", v, i, a.shape[i]))
		}
		base += v * a.strides[i]
	}
	n := a.shape[last]
	if n == 0 {
		re = []float64{}
		if a.im != nil {
			im = []float64{}
		}
		return re, im
	}
	stride := a.strides[last]
	if stride == 1 || n == 1 {
		re = a.re[base : base+n : base+n]
		if a.im != nil {
			im = a.im[base : base+n : base+n]
		}
		return re, im
	}

	re = make([]float64, n)
	for i := range n {
		re[i] = a.re[base+i*stride]
	}
	if a.im != nil {
		im = make([]float64, n)
		for i := range n {
			im[i] = a.im[base+i*stride]
		}
	}
	return re, im
}
