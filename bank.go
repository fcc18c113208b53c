package upfirdn

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-upfirdn/internal/engine"
	"github.com/tphakala/go-upfirdn/internal/ndarray"
)

// Bank applies upfirdn along one axis of an N-dimensional signal using one
// or more filters laid out along one axis of an N-dimensional filter array.
//
// The non-sample axes of the signal and the filter are broadcast together
// (right-aligned, size-1 axes stretch) into a grid. Every grid cell owns an
// independent streaming resampler, so a Bank can be fed successive chunks
// of a multichannel stream and each cell keeps its own history and phase.
// Cells that read the same filter share its decomposed branches.
type Bank struct {
	up, down   int
	xdim, hdim int

	grid          []int
	coefsPerPhase int
	signalComplex bool
	outputComplex bool
	parallel      bool

	cells []engine.Polyphase
	zeros []float64
}

// NewBank builds the resampler grid. x fixes the signal layout and element
// type (its sample axis length is ignored); h holds the filters along its
// hdim axis. Use WithUpRate, WithDownRate, WithXDim, WithHDim and
// WithParallel to configure it.
func NewBank(x, h *Array, opts ...Option) (*Bank, error) {
	if x == nil || h == nil {
		return nil, fmt.Errorf("%w: nil signal or filter array", ErrInvalidParameter)
	}
	o := resolveOptions(opts)
	if o.up <= 0 || o.down <= 0 {
		return nil, fmt.Errorf("%w: rates must be positive (up %d, down %d)", ErrInvalidParameter, o.up, o.down)
	}

	xb, err := x.MoveAxisToBack(o.xdim)
	if err != nil {
		return nil, fmt.Errorf("signal axis: %w", err)
	}
	hb, err := h.MoveAxisToBack(o.hdim)
	if err != nil {
		return nil, fmt.Errorf("filter axis: %w", err)
	}

	xShape := xb.Shape()
	hShape := hb.Shape()
	taps := hShape[len(hShape)-1]
	if taps == 0 {
		return nil, fmt.Errorf("%w: filter has no coefficients", ErrInvalidParameter)
	}
	hOuter := hShape[:len(hShape)-1]

	grid, err := ndarray.BroadcastShapes(xShape[:len(xShape)-1], hOuter)
	if err != nil {
		return nil, err
	}

	b := &Bank{
		up:            o.up,
		down:          o.down,
		xdim:          o.xdim,
		hdim:          o.hdim,
		grid:          grid,
		coefsPerPhase: (taps + o.up - 1) / o.up,
		signalComplex: x.IsComplex(),
		outputComplex: x.IsComplex() || h.IsComplex(),
		parallel:      o.parallel,
		cells:         make([]engine.Polyphase, ndarray.Volume(grid)),
	}
	b.zeros = make([]float64, b.coefsPerPhase-1)

	kind := engine.KindFor(x.IsComplex(), h.IsComplex())
	ops := o.ops()
	shared := make([]*engine.Branches, ndarray.Volume(hOuter))
	var hIdx []int
	for c, idx := range ndarray.Indices(grid) {
		hIdx = ndarray.SourceIndex(hIdx, idx, hOuter)
		key := ndarray.Ravel(hIdx, hOuter)
		if shared[key] == nil {
			re, im := hb.Lane(hIdx)
			if shared[key], err = engine.NewBranches(o.up, re, im); err != nil {
				return nil, err
			}
		}
		if err := b.cells[c].Init(kind, o.down, shared[key], ops); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// NeededOutCount returns the length of the sample axis Apply will produce
// for inCount input samples per cell.
func (b *Bank) NeededOutCount(inCount int, allSamples bool) int {
	if allSamples {
		inCount += b.coefsPerPhase - 1
	}
	if len(b.cells) > 0 {
		return b.cells[0].NeededOutCount(inCount)
	}
	if inCount <= 0 {
		return 0
	}
	return (inCount*b.up + b.down - 1) / b.down
}

// Apply feeds x to every cell and returns the newly determined outputs.
//
// x's non-sample axes must broadcast into the grid; its sample axis may
// have any length. The result has the grid shape with the sample axis of
// length NeededOutCount placed at xdim. With allSamples set, each cell is
// also fed CoefsPerPhase-1 zeros so the full filter tail is emitted.
//
// A real x may be fed to a bank built for complex signals; a complex x
// requires a bank built for complex signals.
func (b *Bank) Apply(x *Array, allSamples bool) (*Array, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: nil signal array", ErrInvalidParameter)
	}
	if x.IsComplex() && !b.signalComplex {
		return nil, fmt.Errorf("%w: complex signal for a bank built for real signals", ErrInvalidParameter)
	}

	xb, err := x.MoveAxisToBack(b.xdim)
	if err != nil {
		return nil, fmt.Errorf("signal axis: %w", err)
	}
	xShape := xb.Shape()
	xOuter := xShape[:len(xShape)-1]
	if merged, err := ndarray.BroadcastShapes(xOuter, b.grid); err != nil || !slices.Equal(merged, b.grid) {
		return nil, fmt.Errorf("%w: signal %v does not broadcast into grid %v", ErrIncompatibleShapes, xOuter, b.grid)
	}

	n := xShape[len(xShape)-1]
	needed := b.NeededOutCount(n, allSamples)

	out := ndarray.Zeros(slices.Concat(b.grid, []int{needed}), b.outputComplex)
	outRe, outIm := out.Planes()

	process := func(c int, idx []int) error {
		re, im := xb.Lane(ndarray.SourceIndex(nil, idx, xOuter))
		dst := engine.Block{Re: outRe[c*needed : (c+1)*needed]}
		if outIm != nil {
			dst.Im = outIm[c*needed : (c+1)*needed]
		}

		written, err := b.cells[c].Apply(engine.Block{Re: re, Im: im}, dst)
		if err != nil {
			return fmt.Errorf("cell %v: %w", idx, err)
		}
		if allSamples {
			if _, err := b.cells[c].Apply(engine.Block{Re: b.zeros}, dst.Slice(written, needed)); err != nil {
				return fmt.Errorf("cell %v: %w", idx, err)
			}
		}
		return nil
	}

	if b.parallel && len(b.cells) > 1 {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for c := range b.cells {
			g.Go(func() error {
				return process(c, ndarray.Unravel(nil, c, b.grid))
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for c, idx := range ndarray.Indices(b.grid) {
			if err := process(c, idx); err != nil {
				return nil, err
			}
		}
	}

	return out.MoveBackToAxis(b.xdim)
}

// Reset returns every cell to its initial state.
func (b *Bank) Reset() {
	for c := range b.cells {
		b.cells[c].Reset()
	}
}

// GridShape returns the broadcast shape of the non-sample axes.
func (b *Bank) GridShape() []int { return slices.Clone(b.grid) }

// Cells returns the number of resamplers in the grid.
func (b *Bank) Cells() int { return len(b.cells) }

// CoefsPerPhase returns ceil(L/UpRate), the taps per polyphase branch.
func (b *Bank) CoefsPerPhase() int { return b.coefsPerPhase }

// OutputComplex reports whether Apply produces complex arrays.
func (b *Bank) OutputComplex() bool { return b.outputComplex }

// UpRate returns the upsampling factor.
func (b *Bank) UpRate() int { return b.up }

// DownRate returns the downsampling factor.
func (b *Bank) DownRate() int { return b.down }
