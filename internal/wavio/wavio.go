// Package wavio moves PCM WAV data in and out of [channels, frames] arrays.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-upfirdn/internal/ndarray"
)

const (
	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt8  = 127.0
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1
)

// ErrInvalidWAV indicates a file that is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid WAV file")

// MaxValue returns the full-scale sample value for the given bit depth.
func MaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample8:
		return maxInt8
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// offset returns the PCM value of silence. 8-bit WAV samples are unsigned.
func offset(bitDepth int) int {
	if bitDepth == bitsPerSample8 {
		return 128
	}
	return 0
}

// Deinterleave converts interleaved PCM integers of the given bit depth
// into a [channels, frames] plane in C order, normalized to [-1, 1].
func Deinterleave(data []int, channels, bitDepth int) []float64 {
	frames := len(data) / channels
	out := make([]float64, frames*channels)
	inv := 1 / MaxValue(bitDepth)
	zero := offset(bitDepth)
	for i := range frames {
		base := i * channels
		for ch := range channels {
			out[ch*frames+i] = float64(data[base+ch]-zero) * inv
		}
	}
	return out
}

// Interleave converts a [channels, frames] plane back to interleaved PCM
// integers of the given bit depth, clamping to [-1, 1] and rounding to the
// nearest level. dst is reused when large enough.
func Interleave(plane []float64, channels, bitDepth int, dst []int) []int {
	frames := len(plane) / channels
	n := frames * channels
	if cap(dst) < n {
		dst = make([]int, n)
	}
	dst = dst[:n]
	maxVal := MaxValue(bitDepth)
	zero := offset(bitDepth)
	for ch := range channels {
		row := plane[ch*frames : (ch+1)*frames]
		for i, s := range row {
			s = min(max(s, -1), 1)
			dst[i*channels+ch] = int(math.Round(s*maxVal)) + zero
		}
	}
	return dst
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth + 7) / 8
}

// Reader decodes a WAV file chunk by chunk.
type Reader struct {
	file    *os.File
	decoder *wav.Decoder
	buf     *audio.IntBuffer

	SampleRate int
	Channels   int
	BitDepth   int
	// Frames is the total frame count from the data chunk size.
	Frames int64
}

// Open opens and validates a WAV file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	if err := decoder.FwdToPCM(); err != nil || decoder.PCMChunk == nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s has no PCM data", ErrInvalidWAV, path)
	}

	format := decoder.Format()
	if format.NumChannels < 1 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s has no channels", ErrInvalidWAV, path)
	}

	r := &Reader{
		file:       f,
		decoder:    decoder,
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   int(decoder.BitDepth),
	}
	if frameBytes := int64(r.Channels * bytesPerSample(r.BitDepth)); frameBytes > 0 {
		r.Frames = decoder.PCMLen() / frameBytes
	}
	return r, nil
}

// Read decodes up to frames frames into a [channels, n] array. It returns
// io.EOF once no samples remain.
func (r *Reader) Read(frames int) (*ndarray.Array, error) {
	want := frames * r.Channels
	if r.buf == nil || cap(r.buf.Data) < want {
		r.buf = &audio.IntBuffer{
			Data:   make([]int, want),
			Format: r.decoder.Format(),
		}
	}
	r.buf.Data = r.buf.Data[:want]

	// PCMBuffer counts interleaved samples, not frames.
	n, err := r.decoder.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	got := n / r.Channels
	if got == 0 {
		return nil, io.EOF
	}

	plane := Deinterleave(r.buf.Data[:got*r.Channels], r.Channels, r.BitDepth)
	return ndarray.New([]int{r.Channels, got}, plane)
}

// Close closes the input file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Writer encodes [channels, frames] arrays to a PCM WAV file.
type Writer struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
	scratch []int

	channels int
	bitDepth int
	// Frames counts the frames written so far.
	Frames int64
}

// Create creates path and prepares a PCM encoder.
func Create(path string, sampleRate, bitDepth, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("%w: rate %d, channels %d", ErrInvalidWAV, sampleRate, channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &Writer{
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM),
		format:   &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		channels: channels,
		bitDepth: bitDepth,
	}, nil
}

// Write encodes a [channels, frames] array. Complex arrays contribute
// their real part.
func (w *Writer) Write(a *ndarray.Array) error {
	shape := a.Shape()
	if len(shape) != 2 || shape[0] != w.channels {
		return fmt.Errorf("%w: array shape %v for %d channels", ndarray.ErrInvalidShape, shape, w.channels)
	}
	if shape[1] == 0 {
		return nil
	}

	var plane []float64
	if a.Contiguous() {
		plane, _ = a.Planes()
	} else {
		plane = a.Float64s()
	}

	w.scratch = Interleave(plane, w.channels, w.bitDepth, w.scratch)
	buf := &audio.IntBuffer{
		Format:         w.format,
		Data:           w.scratch,
		SourceBitDepth: w.bitDepth,
	}
	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	w.Frames += int64(shape[1])
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return w.file.Close()
}
