package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	upfirdn "github.com/tphakala/go-upfirdn"
	"github.com/tphakala/go-upfirdn/internal/wavio"
)

const (
	percentScale     = 100
	progressInterval = 10 // log progress every N%
)

func newWAVCmd() *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "wav [flags] input.wav output.wav",
		Short: "Resample a PCM WAV file",
		Long: `Resample every channel of a PCM WAV file by up/down with one FIR filter.

The output rate is input_rate*up/down and must be an integer. The output
keeps the input bit depth and contains the full filter tail.

Examples:
  upfirdn wav --up 2 --taps 0.5,1,0.5 in.wav out.wav
  upfirdn wav --job job.yaml --parallel in.wav out.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			stats, err := resampleWAV(args[0], args[1], job)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resampled %s -> %s\n", filepath.Base(args[0]), filepath.Base(args[1]))
			fmt.Fprintf(out, "  %d Hz -> %d Hz (%d channels, %d-bit)\n",
				stats.inputRate, stats.outputRate, stats.channels, stats.bitDepth)
			fmt.Fprintf(out, "  %d frames -> %d frames in %.2fs\n",
				stats.inputFrames, stats.outputFrames, elapsed.Seconds())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

type resampleStats struct {
	inputRate    int
	outputRate   int
	channels     int
	bitDepth     int
	inputFrames  int64
	outputFrames int64
}

// outputRate returns rate*up/down, which must be integral.
func outputRate(rate, up, down int) (int, error) {
	if rate*up%down != 0 {
		return 0, fmt.Errorf("%w: %d Hz * %d/%d is not an integer rate", errInvalidJob, rate, up, down)
	}
	return rate * up / down, nil
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
}

// reportIfNeeded logs progress when a threshold is crossed.
func (p *progressTracker) reportIfNeeded(current int64) {
	if p.totalFrames == 0 {
		return
	}
	progress := int(float64(current) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		slog.Debug("progress", "percent", progress)
		p.lastProgress = progress
	}
}

// resampleWAV streams inputPath through a bank with one cell per channel.
func resampleWAV(inputPath, outputPath string, job *Job) (stats *resampleStats, err error) {
	input, err := wavio.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	rate, err := outputRate(input.SampleRate, job.Up, job.Down)
	if err != nil {
		return nil, err
	}
	slog.Debug("input format",
		"path", inputPath,
		"rate", input.SampleRate,
		"channels", input.Channels,
		"bitDepth", input.BitDepth,
		"frames", input.Frames)

	// The bank only needs the channel layout; the sample axis is ignored.
	layout, err := upfirdn.NewArray([]int{input.Channels, 0}, nil)
	if err != nil {
		return nil, err
	}
	taps, err := upfirdn.NewArray([]int{len(job.Taps)}, job.Taps)
	if err != nil {
		return nil, err
	}
	bank, err := upfirdn.NewBank(layout, taps,
		upfirdn.WithUpRate(job.Up),
		upfirdn.WithDownRate(job.Down),
		upfirdn.WithParallel(job.Parallel),
	)
	if err != nil {
		return nil, err
	}
	slog.Debug("bank ready",
		"cells", bank.Cells(),
		"coefsPerPhase", bank.CoefsPerPhase(),
		"parallel", job.Parallel)

	output, err := wavio.Create(outputPath, rate, input.BitDepth, input.Channels)
	if err != nil {
		return nil, err
	}
	// Close errors matter on the success path: the header is written there.
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &resampleStats{
		inputRate:  input.SampleRate,
		outputRate: rate,
		channels:   input.Channels,
		bitDepth:   input.BitDepth,
	}
	progress := &progressTracker{totalFrames: input.Frames}

	for {
		chunk, err := input.Read(job.Chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		stats.inputFrames += int64(chunk.Shape()[1])

		y, err := bank.Apply(chunk, false)
		if err != nil {
			return nil, err
		}
		if err := output.Write(y); err != nil {
			return nil, err
		}
		progress.reportIfNeeded(stats.inputFrames)
	}

	// Drain the filter tail.
	tail, err := bank.Apply(layout, true)
	if err != nil {
		return nil, err
	}
	if err := output.Write(tail); err != nil {
		return nil, err
	}

	stats.outputFrames = output.Frames
	slog.Info("resampled", "in", stats.inputFrames, "out", stats.outputFrames)
	return stats, nil
}
