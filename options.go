package upfirdn

import "github.com/tphakala/go-upfirdn/internal/simdops"

// Option configures a Bank or an Upfirdn call.
type Option func(*options)

type options struct {
	up, down   int
	xdim, hdim int
	allSamples bool
	parallel   bool
	simd       bool
}

func defaultOptions() options {
	return options{
		up:         1,
		down:       1,
		xdim:       -1,
		hdim:       -1,
		allSamples: true,
		simd:       true,
	}
}

func resolveOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o *options) ops() *simdops.Ops {
	return simdops.For(o.simd)
}

// WithUpRate sets the upsampling factor p. Default 1.
func WithUpRate(up int) Option {
	return func(o *options) { o.up = up }
}

// WithDownRate sets the downsampling factor q. Default 1.
func WithDownRate(down int) Option {
	return func(o *options) { o.down = down }
}

// WithXDim selects the sample axis of the signal array. Negative values
// count from the back. Default -1.
func WithXDim(axis int) Option {
	return func(o *options) { o.xdim = axis }
}

// WithHDim selects the sample axis of the filter array. Negative values
// count from the back. Default -1.
func WithHDim(axis int) Option {
	return func(o *options) { o.hdim = axis }
}

// WithAllSamples controls whether Upfirdn drains the filter tail after the
// input. Default true. Bank.Apply takes the flag per call instead.
func WithAllSamples(all bool) Option {
	return func(o *options) { o.allSamples = all }
}

// WithParallel processes grid cells concurrently, bounded by GOMAXPROCS.
// Default false.
func WithParallel(parallel bool) Option {
	return func(o *options) { o.parallel = parallel }
}

// WithSIMD enables or disables the SIMD dot product. Default true.
func WithSIMD(enable bool) Option {
	return func(o *options) { o.simd = enable }
}
