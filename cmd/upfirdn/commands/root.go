// Package commands implements the upfirdn command tree.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Each call returns independent flag
// state.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "upfirdn",
		Short: "Rational-factor resampling with polyphase FIR filters",
		Long: `upfirdn - upsample, FIR filter and downsample signals.

The filter is split into polyphase branches so zero-stuffed samples are
never multiplied. Streams are processed in chunks with exact carry-over of
filter history, so results do not depend on the chunk size.

Examples:
  # 44.1 kHz -> 48 kHz with taps from a job file
  upfirdn wav --job cd-to-dat.yaml in.wav out.wav

  # Double the rate with linear interpolation
  upfirdn wav --up 2 --taps 0.5,1,0.5 in.wav out.wav

  # Show the worked examples
  upfirdn demo`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newWAVCmd())
	root.AddCommand(newDemoCmd())
	root.AddCommand(newInfoCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
