package upfirdn

import (
	"fmt"

	"github.com/tphakala/go-upfirdn/internal/engine"
	"github.com/tphakala/go-upfirdn/internal/simdops"
)

// Config holds the parameters of a streaming Resampler.
type Config struct {
	// UpRate is the upsampling factor p. Must be positive.
	UpRate int

	// DownRate is the downsampling factor q. Must be positive.
	DownRate int

	// Coefficients is a real FIR filter. Exactly one of Coefficients and
	// ComplexCoefficients must be set.
	Coefficients []float64

	// ComplexCoefficients is a complex FIR filter.
	ComplexCoefficients []complex128

	// ComplexSignal selects a resampler for complex input samples. Real
	// input is still accepted and treated as having a zero imaginary part.
	ComplexSignal bool

	// DisableSIMD forces the pure Go dot product.
	DisableSIMD bool
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.UpRate <= 0 || c.DownRate <= 0 {
		return fmt.Errorf("%w: rates must be positive (up %d, down %d)", ErrInvalidParameter, c.UpRate, c.DownRate)
	}

	hasReal := len(c.Coefficients) > 0
	hasComplex := len(c.ComplexCoefficients) > 0
	switch {
	case hasReal && hasComplex:
		return fmt.Errorf("%w: both real and complex coefficients set", ErrInvalidParameter)
	case !hasReal && !hasComplex:
		return fmt.Errorf("%w: filter has no coefficients", ErrInvalidParameter)
	}

	return nil
}

// Resampler upsamples, filters and downsamples one stream of samples.
// Output depends only on the concatenated input, never on how it was split
// into calls. A Resampler must not be used from several goroutines at once.
type Resampler struct {
	poly engine.Polyphase

	// scratch planes for the complex128 entry points
	inRe, inIm   []float64
	outRe, outIm []float64
	zeros        []float64
}

// New creates a resampler with the specified configuration.
func New(config *Config) (*Resampler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidParameter)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	re, im := config.Coefficients, []float64(nil)
	if len(config.ComplexCoefficients) > 0 {
		re, im = splitComplex(config.ComplexCoefficients, nil, nil)
	}
	branches, err := engine.NewBranches(config.UpRate, re, im)
	if err != nil {
		return nil, err
	}

	kind := engine.KindFor(config.ComplexSignal, im != nil)
	r := &Resampler{}
	if err := r.poly.Init(kind, config.DownRate, branches, simdops.For(!config.DisableSIMD)); err != nil {
		return nil, err
	}
	r.zeros = make([]float64, branches.CoefsPerPhase()-1)
	return r, nil
}

// NewReal creates a real-signal, real-filter resampler.
func NewReal(up, down int, h []float64) (*Resampler, error) {
	return New(&Config{UpRate: up, DownRate: down, Coefficients: h})
}

// NeededOutCount returns the exact number of samples the next Apply call
// with inCount input samples will write.
func (r *Resampler) NeededOutCount(inCount int) int {
	return r.poly.NeededOutCount(inCount)
}

// Apply resamples real input with a real filter, writing to the front of
// out. It returns the number of samples written, or ErrBufferTooSmall
// without touching out or the stream state.
func (r *Resampler) Apply(in, out []float64) (int, error) {
	return r.poly.Apply(engine.Block{Re: in}, engine.Block{Re: out})
}

// ApplyRealComplex resamples real input into complex output. It serves
// resamplers with complex coefficients or a complex signal type.
func (r *Resampler) ApplyRealComplex(in []float64, out []complex128) (int, error) {
	r.outRe = grow(r.outRe, len(out))
	r.outIm = grow(r.outIm, len(out))
	n, err := r.poly.Apply(engine.Block{Re: in}, engine.Block{Re: r.outRe, Im: r.outIm})
	if err != nil {
		return 0, err
	}
	joinComplex(out[:n], r.outRe[:n], r.outIm[:n])
	return n, nil
}

// ApplyComplex resamples complex input. The resampler must have been
// created with ComplexSignal set.
func (r *Resampler) ApplyComplex(in, out []complex128) (int, error) {
	r.inRe, r.inIm = splitComplex(in, r.inRe, r.inIm)
	r.outRe = grow(r.outRe, len(out))
	r.outIm = grow(r.outIm, len(out))
	n, err := r.poly.Apply(engine.Block{Re: r.inRe, Im: r.inIm}, engine.Block{Re: r.outRe, Im: r.outIm})
	if err != nil {
		return 0, err
	}
	joinComplex(out[:n], r.outRe[:n], r.outIm[:n])
	return n, nil
}

// Process resamples real input and returns a newly allocated output slice.
func (r *Resampler) Process(in []float64) ([]float64, error) {
	out := make([]float64, r.poly.NeededOutCount(len(in)))
	n, err := r.Apply(in, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// ProcessComplex resamples complex input and returns a new output slice.
func (r *Resampler) ProcessComplex(in []complex128) ([]complex128, error) {
	out := make([]complex128, r.poly.NeededOutCount(len(in)))
	n, err := r.ApplyComplex(in, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// Flush feeds CoefsPerPhase-1 zeros so every output influenced by the
// input so far is emitted. Calling it again continues the zero tail.
func (r *Resampler) Flush() ([]float64, error) {
	return r.Process(r.zeros)
}

// FlushComplex is Flush for resamplers with complex output.
func (r *Resampler) FlushComplex() ([]complex128, error) {
	out := make([]complex128, r.poly.NeededOutCount(len(r.zeros)))
	n, err := r.ApplyRealComplex(r.zeros, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// Reset clears history, phase and statistics. The filter is kept.
func (r *Resampler) Reset() {
	r.poly.Reset()
}

// UpRate returns the upsampling factor.
func (r *Resampler) UpRate() int { return r.poly.UpRate() }

// DownRate returns the downsampling factor.
func (r *Resampler) DownRate() int { return r.poly.DownRate() }

// CoefsPerPhase returns ceil(L/UpRate), the taps per polyphase branch.
func (r *Resampler) CoefsPerPhase() int { return r.poly.CoefsPerPhase() }

// OutputComplex reports whether the resampler produces complex samples.
func (r *Resampler) OutputComplex() bool { return r.poly.Kind().OutputComplex() }

// GetRatio returns the resampling ratio (UpRate / DownRate).
func (r *Resampler) GetRatio() float64 {
	return float64(r.poly.UpRate()) / float64(r.poly.DownRate())
}

// GetStatistics returns processing statistics.
func (r *Resampler) GetStatistics() map[string]int64 {
	return r.poly.GetStatistics()
}

// grow never returns nil: a nil plane would mark the block as real.
func grow(s []float64, n int) []float64 {
	if s == nil || cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// splitComplex writes x into real and imaginary planes, reusing re and im.
func splitComplex(x []complex128, re, im []float64) ([]float64, []float64) {
	re = grow(re, len(x))
	im = grow(im, len(x))
	for i, v := range x {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return re, im
}

func joinComplex(dst []complex128, re, im []float64) {
	for i := range dst {
		dst[i] = complex(re[i], im[i])
	}
}
