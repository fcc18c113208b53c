package ndarray

import (
	"fmt"
	"iter"
)

// BroadcastShapes combines two shapes with right-aligned broadcasting:
// missing leading axes count as 1 and a size-1 axis stretches to match
// the other operand.
func BroadcastShapes(a, b []int) ([]int, error) {
	n := max(len(a), len(b))
	out := make([]int, n)
	for i := range n {
		da := dimFromBack(a, n-1-i)
		db := dimFromBack(b, n-1-i)
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("%w: %v and %v", ErrIncompatibleShapes, a, b)
		}
	}
	return out, nil
}

// dimFromBack returns shape[len(shape)-1-k], or 1 when shape is too short.
func dimFromBack(shape []int, k int) int {
	i := len(shape) - 1 - k
	if i < 0 {
		return 1
	}
	return shape[i]
}

// SourceIndex maps idx, a multi-index into a broadcast shape, onto the
// source array of shape src by dropping extra leading axes and pinning
// size-1 axes to 0. The result is written to dst, which is grown if needed.
func SourceIndex(dst, idx, src []int) []int {
	dst = dst[:0]
	skip := len(idx) - len(src)
	for j, d := range src {
		if d == 1 {
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, idx[skip+j])
	}
	return dst
}

// Ravel returns the C-order flat position of idx within shape.
func Ravel(idx, shape []int) int {
	flat := 0
	for i, v := range idx {
		flat = flat*shape[i] + v
	}
	return flat
}

// Indices enumerates every multi-index of shape in C order, yielding the
// flat position alongside it. The yielded slice is reused between
// iterations; copy it to retain it. A zero-dimensional shape yields one
// empty index.
func Indices(shape []int) iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		total := Volume(shape)
		idx := make([]int, len(shape))
		for flat := range total {
			if !yield(flat, idx) {
				return
			}
			for ax := len(shape) - 1; ax >= 0; ax-- {
				idx[ax]++
				if idx[ax] < shape[ax] {
					break
				}
				idx[ax] = 0
			}
		}
	}
}

// Unravel writes the multi-index of flat within shape into dst.
func Unravel(dst []int, flat int, shape []int) []int {
	if cap(dst) < len(shape) {
		dst = make([]int, len(shape))
	}
	dst = dst[:len(shape)]
	for ax := len(shape) - 1; ax >= 0; ax-- {
		d := shape[ax]
		dst[ax] = flat % d
		flat /= d
	}
	return dst
}
