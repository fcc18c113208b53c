package engine

import (
	"fmt"

	"github.com/tphakala/go-upfirdn/internal/simdops"
)

// Polyphase implements exact, resumable upsample/filter/downsample of one
// sample stream against one fixed FIR filter.
//
// The filter is split into UpRate branches; branch k holds taps
// h[k], h[k+p], h[k+2p], ... so zero-stuffed samples are never multiplied.
// Each output selects the branch for the current phase and dots it with the
// CoefsPerPhase most recent input samples. The phase then advances by
// DownRate; every wrap past UpRate moves the input pointer one sample.
//
// State is fully described by (phase, xOffset, history, counters), and
// because the history carries the last CoefsPerPhase-1 samples across
// calls, any chunking of the same input produces the same output.
type Polyphase struct {
	kind     Kind
	down     int
	branches *Branches
	ops      *simdops.Ops
	kernel   kernelFunc

	// phase is the branch used for the next output sample, in [0, up).
	phase int
	// xOffset is the index, relative to the start of the next chunk, of
	// the newest input sample the next output depends on.
	xOffset int

	// Most recent CoefsPerPhase-1 input samples, oldest first.
	histRe []float64
	histIm []float64

	// Scratch: history followed by the current chunk.
	workRe []float64
	workIm []float64

	// Statistics
	samplesIn  int64
	samplesOut int64
}

// New creates a resampler for the given kernel variant, downsampling rate
// and coefficient branches. The upsampling rate comes from b.
func New(kind Kind, down int, b *Branches) (*Polyphase, error) {
	p := &Polyphase{}
	if err := p.Init(kind, down, b, simdops.Float64Ops()); err != nil {
		return nil, err
	}
	return p, nil
}

// Init prepares p in place, which lets callers keep resamplers in a
// contiguous slice. Any previous state is discarded.
func (p *Polyphase) Init(kind Kind, down int, b *Branches, ops *simdops.Ops) error {
	if down <= 0 {
		return fmt.Errorf("%w: downsampling rate must be positive: %d", ErrInvalidParameter, down)
	}
	if b == nil {
		return fmt.Errorf("%w: nil coefficient branches", ErrInvalidParameter)
	}
	if !kind.valid() {
		return fmt.Errorf("%w: unknown kernel kind %d", ErrInvalidParameter, kind)
	}
	if kind.CoefComplex() != b.IsComplex() {
		return fmt.Errorf("%w: kernel %s does not match %s coefficients",
			ErrInvalidParameter, kind, complexity(b.IsComplex()))
	}
	if ops == nil {
		ops = simdops.Float64Ops()
	}

	hist := b.CoefsPerPhase() - 1
	*p = Polyphase{
		kind:     kind,
		down:     down,
		branches: b,
		ops:      ops,
		kernel:   kernels[kind],
		histRe:   make([]float64, hist),
	}
	if kind.SignalComplex() {
		p.histIm = make([]float64, hist)
	}
	return nil
}

// NeededOutCount returns how many output samples become fully determined
// when inCount more input samples are fed. It is exact: Apply with the
// same inCount writes precisely this many samples.
func (p *Polyphase) NeededOutCount(inCount int) int {
	if inCount <= 0 {
		return 0
	}
	up := p.branches.up
	// Position of the next output on the upsampled timeline, measured from
	// the first sample of the upcoming chunk.
	pos := p.xOffset*up + p.phase
	end := inCount * up
	if end <= pos {
		return 0
	}
	return (end - pos + p.down - 1) / p.down
}

// Apply consumes all of in and writes the newly determined output samples
// to the front of out, returning how many were written.
//
// If out is shorter than NeededOutCount(len(in.Re)), Apply returns
// ErrBufferTooSmall without writing anything or changing any state.
func (p *Polyphase) Apply(in, out Block) (int, error) {
	if err := p.checkBlocks(in, out); err != nil {
		return 0, err
	}

	n := len(in.Re)
	need := p.NeededOutCount(n)
	if len(out.Re) < need {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, need, len(out.Re))
	}
	if n == 0 {
		return 0, nil
	}

	hist := len(p.histRe)
	p.workRe = fill(p.workRe, p.histRe, in.Re, n)
	if p.kind.SignalComplex() {
		// A nil imaginary plane is real input to a complex-signal kernel.
		p.workIm = fill(p.workIm, p.histIm, in.Im, n)
	}

	up := p.branches.up
	down := p.down
	phase := p.phase
	i := p.xOffset
	written := 0
	for i < n {
		// Window over the CoefsPerPhase most recent samples ending at
		// chunk index i, which sits at work index i+hist.
		p.kernel(p, phase, i, out, written)
		written++

		phase += down
		i += phase / up
		phase %= up
	}
	p.phase = phase
	p.xOffset = i - n

	// Keep the newest CoefsPerPhase-1 samples for the next call.
	copy(p.histRe, p.workRe[n:n+hist])
	if p.histIm != nil {
		copy(p.histIm, p.workIm[n:n+hist])
	}

	p.samplesIn += int64(n)
	p.samplesOut += int64(written)
	return written, nil
}

func (p *Polyphase) checkBlocks(in, out Block) error {
	if in.Im != nil && len(in.Im) != len(in.Re) {
		return fmt.Errorf("%w: input planes differ in length (%d, %d)", ErrInvalidParameter, len(in.Re), len(in.Im))
	}
	if in.Im != nil && !p.kind.SignalComplex() {
		return fmt.Errorf("%w: complex input for %s kernel", ErrInvalidParameter, p.kind)
	}
	if p.kind.OutputComplex() {
		if out.Im == nil || len(out.Im) != len(out.Re) {
			return fmt.Errorf("%w: %s kernel needs a complex output buffer", ErrInvalidParameter, p.kind)
		}
	} else if out.Im != nil {
		return fmt.Errorf("%w: %s kernel produces real output", ErrInvalidParameter, p.kind)
	}
	return nil
}

// fill sets dst to head followed by n tail samples, reusing dst's storage.
// A nil tail is treated as n zeros.
func fill(dst, head, tail []float64, n int) []float64 {
	total := len(head) + n
	if cap(dst) < total {
		dst = make([]float64, total)
	}
	dst = dst[:total]
	copy(dst, head)
	if tail == nil {
		clear(dst[len(head):])
	} else {
		copy(dst[len(head):], tail)
	}
	return dst
}

// Reset returns the resampler to its initial state: zero history, phase 0
// and cleared statistics. Coefficients are kept.
func (p *Polyphase) Reset() {
	clear(p.histRe)
	clear(p.histIm)
	p.phase = 0
	p.xOffset = 0
	p.samplesIn = 0
	p.samplesOut = 0
}

// Kind returns the kernel variant.
func (p *Polyphase) Kind() Kind { return p.kind }

// UpRate returns the upsampling factor.
func (p *Polyphase) UpRate() int { return p.branches.up }

// DownRate returns the downsampling factor.
func (p *Polyphase) DownRate() int { return p.down }

// CoefsPerPhase returns the number of taps in each branch.
func (p *Polyphase) CoefsPerPhase() int { return p.branches.coefsPerPhase }

// Phase returns the branch that will produce the next output sample.
func (p *Polyphase) Phase() int { return p.phase }

// Branches returns the shared coefficient branches.
func (p *Polyphase) Branches() *Branches { return p.branches }

// GetStatistics returns processing statistics.
func (p *Polyphase) GetStatistics() map[string]int64 {
	return map[string]int64{
		"samplesIn":  p.samplesIn,
		"samplesOut": p.samplesOut,
	}
}
