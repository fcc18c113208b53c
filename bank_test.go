package upfirdn

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-upfirdn/internal/ndarray"
	"github.com/tphakala/go-upfirdn/internal/testutil"
)

// insertAxis returns outer with n inserted at position axis.
func insertAxis(outer []int, axis, n int) []int {
	return slices.Insert(slices.Clone(outer), axis, n)
}

func randomArray(t *testing.T, rng *rand.Rand, shape []int, complexValued bool) *Array {
	t.Helper()
	data := testutil.RandomSignal(rng, ndarray.Volume(shape), complexValued)
	if complexValued {
		a, err := NewComplexArray(shape, data)
		require.NoError(t, err)
		return a
	}
	re, _ := testutil.Split(data)
	a, err := NewArray(shape, re)
	require.NoError(t, err)
	return a
}

// lane extracts the samples along axis at the multi-index of the other axes.
func lane(t *testing.T, a *Array, axis int, outer []int) []complex128 {
	t.Helper()
	v, err := a.MoveAxisToBack(axis)
	require.NoError(t, err)
	re, im := v.Lane(outer)
	return testutil.Join(re, im)
}

func TestBank_TwoDimensionalExamples(t *testing.T) {
	x, err := NewArray([]int{4, 2}, testutil.Ramp(8))
	require.NoError(t, err)
	h, err := NewArray([]int{2}, []float64{1, 1})
	require.NoError(t, err)

	t.Run("last axis", func(t *testing.T) {
		y, err := Upfirdn(x, h, WithUpRate(2))
		require.NoError(t, err)
		assert.Equal(t, []int{4, 4}, y.Shape())
		assert.Equal(t, []float64{
			0, 0, 1, 1,
			2, 2, 3, 3,
			4, 4, 5, 5,
			6, 6, 7, 7,
		}, y.Float64s())
	})

	t.Run("first axis", func(t *testing.T) {
		y, err := Upfirdn(x, h, WithUpRate(2), WithXDim(0))
		require.NoError(t, err)
		assert.Equal(t, []int{8, 2}, y.Shape())
		assert.Equal(t, []float64{
			0, 1,
			0, 1,
			2, 3,
			2, 3,
			4, 5,
			4, 5,
			6, 7,
			6, 7,
		}, y.Float64s())
	})
}

func TestBank_BroadcastMatchesOneDimensional(t *testing.T) {
	rng := testutil.NewRand(1234)

	for trial := range 24 {
		ndims := rng.IntN(4) + 1
		xOuter := make([]int, ndims)
		hOuter := make([]int, ndims)
		for d := range ndims {
			size := rng.IntN(3) + 2
			xOuter[d], hOuter[d] = size, size
			// Singleton axes in one operand only, so the grid stays full.
			switch rng.IntN(3) {
			case 0:
				xOuter[d] = 1
			case 1:
				hOuter[d] = 1
			}
		}

		xdim := rng.IntN(ndims + 1)
		hdim := rng.IntN(ndims + 1)
		up := rng.IntN(5) + 1
		down := rng.IntN(5) + 1
		taps := rng.IntN(11) + 10
		inCount := rng.IntN(51) + 50
		xComplex := rng.IntN(2) == 1
		hComplex := rng.IntN(2) == 1

		name := fmt.Sprintf("%d/x%v@%d/h%v@%d/p%d_q%d", trial, xOuter, xdim, hOuter, hdim, up, down)
		t.Run(name, func(t *testing.T) {
			x := randomArray(t, rng, insertAxis(xOuter, xdim, inCount), xComplex)
			h := randomArray(t, rng, insertAxis(hOuter, hdim, taps), hComplex)

			bank, err := NewBank(x, h, WithUpRate(up), WithDownRate(down), WithXDim(xdim), WithHDim(hdim))
			require.NoError(t, err)
			assert.Equal(t, xComplex || hComplex, bank.OutputComplex())

			needed := bank.NeededOutCount(inCount, true)
			y, err := bank.Apply(x, true)
			require.NoError(t, err)

			grid := bank.GridShape()
			assert.Equal(t, insertAxis(grid, xdim, needed), y.Shape())

			for _, idx := range ndarray.Indices(grid) {
				xLane := lane(t, x, xdim, ndarray.SourceIndex(nil, idx, xOuter))
				hLane := lane(t, h, hdim, ndarray.SourceIndex(nil, idx, hOuter))
				padded := append(xLane, make([]complex128, bank.CoefsPerPhase()-1)...)
				want := testutil.ReferenceUpfirdn(padded, hLane, up, down)[:needed]

				got := lane(t, y, xdim, idx)
				testutil.AssertNMSE(t, want, got, testutil.NMSETolerance, "cell %v", idx)
			}
		})
	}
}

func TestBank_FilterWithMoreAxesThanSignal(t *testing.T) {
	const (
		inCount = 40
		taps    = 9
		up      = 3
		down    = 2
	)
	rng := testutil.NewRand(808)
	// Sample axis first in x; h adds a leading filter axis, so the grid is
	// [4, 2] and the output has one more axis than x.
	x := randomArray(t, rng, []int{inCount, 2}, false)
	h := randomArray(t, rng, []int{4, 1, taps}, false)

	tests := []struct {
		name    string
		xdim    int
		outAxis int
	}{
		{"negative xdim counts from the output back", -2, 1},
		{"positive xdim", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := NewBank(x, h, WithUpRate(up), WithDownRate(down), WithXDim(tt.xdim))
			require.NoError(t, err)
			require.Equal(t, []int{4, 2}, bank.GridShape())

			needed := bank.NeededOutCount(inCount, true)
			y, err := bank.Apply(x, true)
			require.NoError(t, err)
			assert.Equal(t, insertAxis([]int{4, 2}, tt.outAxis, needed), y.Shape())

			for _, idx := range ndarray.Indices(bank.GridShape()) {
				xLane := lane(t, x, 0, []int{idx[1]})
				hLane := lane(t, h, 2, []int{idx[0], 0})
				padded := append(xLane, make([]complex128, bank.CoefsPerPhase()-1)...)
				want := testutil.ReferenceUpfirdn(padded, hLane, up, down)[:needed]

				got := lane(t, y, tt.outAxis, idx)
				testutil.AssertNMSE(t, want, got, testutil.NMSETolerance, "cell %v", idx)
			}
		})
	}
}

func TestBank_StreamingMatchesOneShot(t *testing.T) {
	rng := testutil.NewRand(55)
	x := randomArray(t, rng, []int{3, 500}, true)
	h := randomArray(t, rng, []int{3, 17}, false)

	oneShot, err := Upfirdn(x, h, WithUpRate(3), WithDownRate(4))
	require.NoError(t, err)

	bank, err := NewBank(x, h, WithUpRate(3), WithDownRate(4))
	require.NoError(t, err)
	assert.Equal(t, 3, bank.Cells())
	assert.Equal(t, 3, bank.UpRate())
	assert.Equal(t, 4, bank.DownRate())

	all := x.Complex128s()
	parts := make([][]complex128, 3)
	for pos := 0; pos < 500; {
		n := min(rng.IntN(60)+1, 500-pos)
		chunk := make([]complex128, 0, 3*n)
		for ch := range 3 {
			chunk = append(chunk, all[ch*500+pos:ch*500+pos+n]...)
		}
		xa, err := NewComplexArray([]int{3, n}, chunk)
		require.NoError(t, err)

		last := pos+n == 500
		y, err := bank.Apply(xa, last)
		require.NoError(t, err)
		for ch := range 3 {
			parts[ch] = append(parts[ch], lane(t, y, -1, []int{ch})...)
		}
		pos += n
	}

	for ch := range 3 {
		want := lane(t, oneShot, -1, []int{ch})
		testutil.AssertComplexInDelta(t, want, parts[ch], testutil.DefaultTolerance, "channel %d", ch)
	}
}

func TestBank_ParallelMatchesSequential(t *testing.T) {
	rng := testutil.NewRand(77)
	x := randomArray(t, rng, []int{8, 2, 1000}, false)
	h := randomArray(t, rng, []int{2, 64}, true)

	seq, err := Upfirdn(x, h, WithUpRate(5), WithDownRate(2))
	require.NoError(t, err)
	par, err := Upfirdn(x, h, WithUpRate(5), WithDownRate(2), WithParallel(true))
	require.NoError(t, err)

	assert.Equal(t, seq.Shape(), par.Shape())
	// Cells are independent, so results are bit-exact.
	assert.Equal(t, seq.Complex128s(), par.Complex128s())
}

func TestBank_RealSignalIntoComplexBank(t *testing.T) {
	shape := []int{2, 40}
	xc, err := NewComplexArray(shape, make([]complex128, 80))
	require.NoError(t, err)
	h, err := NewArray([]int{5}, []float64{1, 2, 3, 2, 1})
	require.NoError(t, err)

	bank, err := NewBank(xc, h, WithUpRate(2))
	require.NoError(t, err)

	xr, err := NewArray(shape, testutil.Ramp(80))
	require.NoError(t, err)
	y, err := bank.Apply(xr, true)
	require.NoError(t, err)
	require.True(t, y.IsComplex())

	want, err := Upfirdn1D(testutil.Ramp(80)[40:], []float64{1, 2, 3, 2, 1}, 2, 1)
	require.NoError(t, err)
	testutil.AssertComplexInDelta(t, testutil.Real(want), lane(t, y, -1, []int{1}), testutil.DefaultTolerance)
}

func TestBank_Errors(t *testing.T) {
	x, err := NewArray([]int{2, 10}, make([]float64, 20))
	require.NoError(t, err)
	h3, err := NewArray([]int{3, 4}, make([]float64, 12))
	require.NoError(t, err)
	h, err := NewArray([]int{4}, []float64{1, 1, 1, 1})
	require.NoError(t, err)

	t.Run("incompatible grid", func(t *testing.T) {
		_, err := NewBank(x, h3)
		require.ErrorIs(t, err, ErrIncompatibleShapes)
	})

	t.Run("axis out of range", func(t *testing.T) {
		_, err := NewBank(x, h, WithXDim(2))
		require.ErrorIs(t, err, ErrAxisOutOfRange)
		_, err = NewBank(x, h, WithHDim(-2))
		require.ErrorIs(t, err, ErrAxisOutOfRange)
	})

	t.Run("rates", func(t *testing.T) {
		_, err := NewBank(x, h, WithDownRate(0))
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("empty filter", func(t *testing.T) {
		empty, err := NewArray([]int{0}, nil)
		require.NoError(t, err)
		_, err = NewBank(x, empty)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("nil arrays", func(t *testing.T) {
		_, err := NewBank(nil, h)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	bank, err := NewBank(x, h)
	require.NoError(t, err)

	t.Run("complex signal into real bank", func(t *testing.T) {
		xc, err := NewComplexArray([]int{2, 10}, make([]complex128, 20))
		require.NoError(t, err)
		_, err = bank.Apply(xc, false)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("signal outside grid", func(t *testing.T) {
		wide, err := NewArray([]int{3, 10}, make([]float64, 30))
		require.NoError(t, err)
		_, err = bank.Apply(wide, false)
		require.ErrorIs(t, err, ErrIncompatibleShapes)

		deeper, err := NewArray([]int{2, 2, 10}, make([]float64, 40))
		require.NoError(t, err)
		_, err = bank.Apply(deeper, false)
		require.ErrorIs(t, err, ErrIncompatibleShapes)
	})

	t.Run("broadcast signal", func(t *testing.T) {
		one, err := NewArray([]int{1, 5}, []float64{1, 0, 0, 0, 0})
		require.NoError(t, err)
		y, err := bank.Apply(one, false)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 5}, y.Shape())
		bank.Reset()
	})

	t.Run("empty chunk", func(t *testing.T) {
		empty, err := NewArray([]int{2, 0}, nil)
		require.NoError(t, err)
		y, err := bank.Apply(empty, false)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0}, y.Shape())
	})
}
