package testutil

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// minFFTSize keeps tiny convolutions from using degenerate transforms.
const minFFTSize = 64

// ConvolveFFT returns the full linear convolution of a and b computed with
// a zero-padded complex FFT. It is an independent cross-check of Convolve
// for long filters.
func ConvolveFFT(a, b []complex128) []complex128 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	outLen := len(a) + len(b) - 1
	n := minFFTSize
	for n < outLen {
		n *= 2
	}

	fft := fourier.NewCmplxFFT(n)

	pa := make([]complex128, n)
	copy(pa, a)
	pb := make([]complex128, n)
	copy(pb, b)

	fa := fft.Coefficients(nil, pa)
	fb := fft.Coefficients(nil, pb)
	for i := range fa {
		fa[i] *= fb[i]
	}

	// gonum does not normalize the inverse transform.
	seq := fft.Sequence(nil, fa)
	scale := complex(1/float64(n), 0)
	out := make([]complex128, outLen)
	for i := range out {
		out[i] = seq[i] * scale
	}
	return out
}

// ReferenceUpfirdnFFT is ReferenceUpfirdn with the convolution done in the
// frequency domain.
func ReferenceUpfirdnFFT(x, h []complex128, up, down int) []complex128 {
	stuffed := make([]complex128, len(x)*up)
	for i, v := range x {
		stuffed[i*up] = v
	}
	full := ConvolveFFT(stuffed, h)
	out := make([]complex128, 0, len(full)/down+1)
	for i := 0; i < len(full); i += down {
		out = append(out, full[i])
	}
	return out
}
