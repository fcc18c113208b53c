// Package upfirdn upsamples, FIR filters and downsamples signals in one
// pass using polyphase decomposition.
//
// Upsampling by p inserts p-1 zeros between input samples, the FIR filter h
// is applied, and every q-th sample of the result is kept. The filter is
// split into p branches of ceil(len(h)/p) taps so the inserted zeros are
// never multiplied and discarded outputs are never computed.
//
// # Features
//
//   - Real or complex signals and filters, stored as split re/im planes
//   - Streaming with exact carry-over of filter history and phase, so results
//     do not depend on how the input is chunked
//   - N-dimensional banks: signals and filters broadcast against each other
//     over all non-sample axes, one independent resampler per grid cell
//   - Optional SIMD dot products via github.com/tphakala/simd
//   - Optional concurrent processing of bank cells
//
// # Quick Start
//
// One-shot, full-length output including the filter tail:
//
//	y, err := upfirdn.Upfirdn1D(x, []float64{0.5, 1, 0.5}, 2, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Streaming with caller-owned buffers:
//
//	r, err := upfirdn.NewReal(160, 147, taps)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for chunk := range chunks {
//	    out := make([]float64, r.NeededOutCount(len(chunk)))
//	    n, err := r.Apply(chunk, out)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    emit(out[:n])
//	}
//	tail, _ := r.Flush()
//
// Many channels with one filter each:
//
//	bank, err := upfirdn.NewBank(x, h, upfirdn.WithUpRate(3), upfirdn.WithXDim(-1))
//	y, err := bank.Apply(x, true)
//
// Apply returns ErrBufferTooSmall without touching the output or the
// resampler state when out is shorter than NeededOutCount.
//
// # Output Length
//
// For a signal of n samples and coefficients-per-phase c = ceil(len(h)/p),
// streaming the whole signal yields ceil(n*p/q) samples. Draining the tail
// with c-1 trailing zeros, as Upfirdn and Flush do, yields
// ceil((n+c-1)*p/q).
package upfirdn
