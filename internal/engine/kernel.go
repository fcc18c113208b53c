package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a non-positive rate, an empty filter or
	// mismatched sample planes.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrBufferTooSmall indicates the output buffer cannot hold every
	// determined output sample.
	ErrBufferTooSmall = errors.New("output buffer too small")
)

// Block is a run of samples stored as split planes. Im is nil for real data;
// otherwise it has the same length as Re.
type Block struct {
	Re []float64
	Im []float64
}

// Len returns the number of samples in the block.
func (b Block) Len() int { return len(b.Re) }

// IsComplex reports whether the block carries an imaginary plane.
func (b Block) IsComplex() bool { return b.Im != nil }

// Slice returns the samples [from, to).
func (b Block) Slice(from, to int) Block {
	out := Block{Re: b.Re[from:to]}
	if b.Im != nil {
		out.Im = b.Im[from:to]
	}
	return out
}

// Kind selects the kernel variant from the signal and coefficient types.
type Kind int

const (
	// KindRR filters a real signal with real coefficients.
	KindRR Kind = iota
	// KindRC filters a real signal with complex coefficients.
	KindRC
	// KindCR filters a complex signal with real coefficients.
	KindCR
	// KindCC filters a complex signal with complex coefficients.
	KindCC
)

// KindFor returns the kernel variant for the given operand types.
func KindFor(signalComplex, coefComplex bool) Kind {
	switch {
	case signalComplex && coefComplex:
		return KindCC
	case signalComplex:
		return KindCR
	case coefComplex:
		return KindRC
	default:
		return KindRR
	}
}

func (k Kind) valid() bool { return k >= KindRR && k <= KindCC }

// SignalComplex reports whether the kernel expects complex input.
func (k Kind) SignalComplex() bool { return k == KindCR || k == KindCC }

// CoefComplex reports whether the kernel uses complex coefficients.
func (k Kind) CoefComplex() bool { return k == KindRC || k == KindCC }

// OutputComplex reports whether the kernel produces complex output, which
// is the case whenever either operand is complex.
func (k Kind) OutputComplex() bool { return k != KindRR }

func (k Kind) String() string {
	switch k {
	case KindRR:
		return "real/real"
	case KindRC:
		return "real/complex"
	case KindCR:
		return "complex/real"
	case KindCC:
		return "complex/complex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func complexity(c bool) string {
	if c {
		return "complex"
	}
	return "real"
}

// kernelFunc writes output sample k for branch phase, using the window of
// CoefsPerPhase samples that ends at chunk index i.
type kernelFunc func(p *Polyphase, phase, i int, out Block, k int)

var kernels = [...]kernelFunc{
	KindRR: kernelRR,
	KindRC: kernelRC,
	KindCR: kernelCR,
	KindCC: kernelCC,
}

func kernelRR(p *Polyphase, phase, i int, out Block, k int) {
	cpp := p.branches.coefsPerPhase
	hRe := p.branches.re[phase*cpp : phase*cpp+cpp]
	out.Re[k] = p.ops.Dot(hRe, p.workRe[i:i+cpp])
}

func kernelRC(p *Polyphase, phase, i int, out Block, k int) {
	cpp := p.branches.coefsPerPhase
	hRe := p.branches.re[phase*cpp : phase*cpp+cpp]
	hIm := p.branches.im[phase*cpp : phase*cpp+cpp]
	x := p.workRe[i : i+cpp]
	out.Re[k] = p.ops.Dot(hRe, x)
	out.Im[k] = p.ops.Dot(hIm, x)
}

func kernelCR(p *Polyphase, phase, i int, out Block, k int) {
	cpp := p.branches.coefsPerPhase
	hRe := p.branches.re[phase*cpp : phase*cpp+cpp]
	out.Re[k] = p.ops.Dot(hRe, p.workRe[i:i+cpp])
	out.Im[k] = p.ops.Dot(hRe, p.workIm[i:i+cpp])
}

func kernelCC(p *Polyphase, phase, i int, out Block, k int) {
	cpp := p.branches.coefsPerPhase
	hRe := p.branches.re[phase*cpp : phase*cpp+cpp]
	hIm := p.branches.im[phase*cpp : phase*cpp+cpp]
	xRe := p.workRe[i : i+cpp]
	xIm := p.workIm[i : i+cpp]
	out.Re[k] = p.ops.Dot(hRe, xRe) - p.ops.Dot(hIm, xIm)
	out.Im[k] = p.ops.Dot(hRe, xIm) + p.ops.Dot(hIm, xRe)
}

// Branches holds a filter decomposed into polyphase branches. It is
// immutable after construction and may be shared by many resamplers.
//
// Branch k holds taps h[k], h[k+up], h[k+2*up], ... padded with zeros to
// CoefsPerPhase taps and stored in REVERSED order, so a branch dotted with
// an oldest-first input window yields the convolution sum directly.
type Branches struct {
	up            int
	coefsPerPhase int
	taps          int

	// re[phase*coefsPerPhase + j], reversed within each branch.
	re []float64
	im []float64 // nil for real coefficients
}

// NewBranches decomposes the filter (re, im) for upsampling factor up.
// im may be nil for a real filter.
func NewBranches(up int, re, im []float64) (*Branches, error) {
	if up <= 0 {
		return nil, fmt.Errorf("%w: upsampling rate must be positive: %d", ErrInvalidParameter, up)
	}
	if len(re) == 0 {
		return nil, fmt.Errorf("%w: filter has no coefficients", ErrInvalidParameter)
	}
	if im != nil && len(im) != len(re) {
		return nil, fmt.Errorf("%w: coefficient planes differ in length (%d, %d)", ErrInvalidParameter, len(re), len(im))
	}

	taps := len(re)
	coefsPerPhase := (taps + up - 1) / up

	b := &Branches{
		up:            up,
		coefsPerPhase: coefsPerPhase,
		taps:          taps,
		re:            decompose(re, up, coefsPerPhase),
	}
	if im != nil {
		b.im = decompose(im, up, coefsPerPhase)
	}
	return b, nil
}

// decompose transposes h into up branches and flips each branch.
func decompose(h []float64, up, coefsPerPhase int) []float64 {
	out := make([]float64, up*coefsPerPhase)
	for phase := range up {
		for tap := range coefsPerPhase {
			idx := phase + tap*up
			if idx < len(h) {
				out[phase*coefsPerPhase+coefsPerPhase-1-tap] = h[idx]
			}
		}
	}
	return out
}

// UpRate returns the upsampling factor the filter was split for.
func (b *Branches) UpRate() int { return b.up }

// CoefsPerPhase returns the number of taps per branch, ceil(L/up).
func (b *Branches) CoefsPerPhase() int { return b.coefsPerPhase }

// Taps returns the original filter length L.
func (b *Branches) Taps() int { return b.taps }

// IsComplex reports whether the coefficients are complex.
func (b *Branches) IsComplex() bool { return b.im != nil }

// Branch returns branch phase in natural (unreversed) tap order.
func (b *Branches) Branch(phase int) (re, im []float64) {
	cpp := b.coefsPerPhase
	re = make([]float64, cpp)
	for j := range cpp {
		re[j] = b.re[phase*cpp+cpp-1-j]
	}
	if b.im != nil {
		im = make([]float64, cpp)
		for j := range cpp {
			im[j] = b.im[phase*cpp+cpp-1-j]
		}
	}
	return re, im
}
