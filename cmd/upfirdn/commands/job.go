package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultChunk = 4096

// errInvalidJob indicates unusable resampling parameters.
var errInvalidJob = errors.New("invalid job")

// Job describes one resampling run. It can be loaded from YAML and is
// overridden field by field by explicit command line flags.
type Job struct {
	Up       int       `yaml:"up"`
	Down     int       `yaml:"down"`
	Taps     []float64 `yaml:"taps"`
	Chunk    int       `yaml:"chunk"`
	Parallel bool      `yaml:"parallel"`
}

func defaultJob() Job {
	return Job{Up: 1, Down: 1, Chunk: defaultChunk}
}

// LoadJob reads a YAML job file. Fields missing from the file keep their
// defaults.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	job := defaultJob()
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}
	return &job, nil
}

// Validate checks if the job is usable.
func (j *Job) Validate() error {
	if j.Up <= 0 || j.Down <= 0 {
		return fmt.Errorf("%w: rates must be positive (up %d, down %d)", errInvalidJob, j.Up, j.Down)
	}
	if len(j.Taps) == 0 {
		return fmt.Errorf("%w: no filter taps (use --taps or a job file)", errInvalidJob)
	}
	if j.Chunk <= 0 {
		return fmt.Errorf("%w: chunk must be positive: %d", errInvalidJob, j.Chunk)
	}
	return nil
}

// parseTaps parses a comma separated coefficient list.
func parseTaps(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	taps := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tap %q: %v", errInvalidJob, f, err)
		}
		taps = append(taps, v)
	}
	return taps, nil
}

// jobFlags binds the resampling flags shared by commands that run a job.
type jobFlags struct {
	job      string
	up, down int
	taps     string
	chunk    int
	parallel bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.job, "job", "", "YAML job file (up, down, taps, chunk, parallel)")
	cmd.Flags().IntVar(&f.up, "up", 1, "upsampling factor")
	cmd.Flags().IntVar(&f.down, "down", 1, "downsampling factor")
	cmd.Flags().StringVar(&f.taps, "taps", "", "comma separated FIR coefficients")
	cmd.Flags().IntVar(&f.chunk, "chunk", defaultChunk, "frames per processing chunk")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "process channels concurrently")
}

// resolve loads the job file, if any, and applies explicitly set flags.
func (f *jobFlags) resolve(cmd *cobra.Command) (*Job, error) {
	job := defaultJob()
	if f.job != "" {
		loaded, err := LoadJob(f.job)
		if err != nil {
			return nil, err
		}
		job = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("up") {
		job.Up = f.up
	}
	if flags.Changed("down") {
		job.Down = f.down
	}
	if flags.Changed("chunk") {
		job.Chunk = f.chunk
	}
	if flags.Changed("parallel") {
		job.Parallel = f.parallel
	}
	if flags.Changed("taps") {
		taps, err := parseTaps(f.taps)
		if err != nil {
			return nil, err
		}
		job.Taps = taps
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}
