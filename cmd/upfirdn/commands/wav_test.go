package commands

import (
	"bytes"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	upfirdn "github.com/tphakala/go-upfirdn"
	"github.com/tphakala/go-upfirdn/internal/ndarray"
	"github.com/tphakala/go-upfirdn/internal/wavio"
)

func TestOutputRate(t *testing.T) {
	rate, err := outputRate(44100, 160, 147)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)

	rate, err = outputRate(8000, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)

	rate, err = outputRate(44100, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 11025, rate)

	// 5512.5 Hz
	_, err = outputRate(44100, 1, 8)
	require.ErrorIs(t, err, errInvalidJob)
}

// writeTestWAV writes a stereo 16-bit file and returns its [2, frames] plane.
func writeTestWAV(t *testing.T, path string, rate, frames int) []float64 {
	t.Helper()
	plane := make([]float64, 2*frames)
	for i := range frames {
		plane[i] = 0.4 * math.Sin(2*math.Pi*300*float64(i)/float64(rate))
		plane[frames+i] = 0.2 * math.Sin(2*math.Pi*700*float64(i)/float64(rate))
	}
	a, err := ndarray.New([]int{2, frames}, plane)
	require.NoError(t, err)

	w, err := wavio.Create(path, rate, 16, 2)
	require.NoError(t, err)
	require.NoError(t, w.Write(a))
	require.NoError(t, w.Close())
	return plane
}

func readAll(t *testing.T, path string) (*wavio.Reader, [2][]float64) {
	t.Helper()
	r, err := wavio.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	var got [2][]float64
	for {
		chunk, err := r.Read(500)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for ch := range 2 {
			re, _ := chunk.Lane([]int{ch})
			got[ch] = append(got[ch], re...)
		}
	}
	return r, got
}

func TestResampleWAV(t *testing.T) {
	const (
		rate   = 8000
		frames = 1000
	)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	plane := writeTestWAV(t, in, rate, frames)

	taps := []float64{0.5, 1, 0.5}
	for _, parallel := range []bool{false, true} {
		job := &Job{Up: 2, Down: 1, Taps: taps, Chunk: 256, Parallel: parallel}
		stats, err := resampleWAV(in, out, job)
		require.NoError(t, err)
		assert.Equal(t, rate, stats.inputRate)
		assert.Equal(t, 2*rate, stats.outputRate)
		assert.Equal(t, int64(frames), stats.inputFrames)
		assert.Equal(t, int64(2*(frames+1)), stats.outputFrames, "output carries the filter tail")

		r, got := readAll(t, out)
		assert.Equal(t, 2*rate, r.SampleRate)
		assert.Equal(t, 16, r.BitDepth)

		// Input and output quantization each add up to half an LSB per tap.
		tol := 3 / wavio.MaxValue(16)
		for ch := range 2 {
			want, err := upfirdn.Upfirdn1D(plane[ch*frames:(ch+1)*frames], taps, 2, 1)
			require.NoError(t, err)
			require.Len(t, got[ch], len(want))
			assert.InDeltaSlice(t, want, got[ch], tol, "channel %d", ch)
		}
	}
}

func TestResampleWAV_Errors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeTestWAV(t, in, 44100, 64)
	job := &Job{Up: 1, Down: 1, Taps: []float64{1}, Chunk: 16}

	_, err := resampleWAV(filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"), job)
	require.Error(t, err)

	job.Down = 8
	_, err = resampleWAV(in, filepath.Join(dir, "out.wav"), job)
	require.ErrorIs(t, err, errInvalidJob)

	job.Down = 1
	_, err = resampleWAV(in, filepath.Join(dir, "no", "such", "out.wav"), job)
	require.Error(t, err)
}

func TestWAVCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeTestWAV(t, in, 8000, 400)

	var stdout bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetArgs([]string{"wav", "--up", "3", "--down", "2", "--taps", "1,1,1", "--chunk", "100", in, out})
	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), "8000 Hz -> 12000 Hz")
	assert.Contains(t, stdout.String(), "400 frames -> 600 frames")

	root = NewRootCmd()
	root.SetArgs([]string{"wav", "--up", "2", in})
	require.Error(t, root.Execute(), "two positional arguments are required")
}
