package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	upfirdn "github.com/tphakala/go-upfirdn"
)

type demoCase struct {
	title    string
	x, h     []float64
	up, down int
}

var demoCases = []demoCase{
	{"FIR filter", []float64{1, 1, 1}, []float64{1, 1, 1}, 1, 1},
	{"Upsample with zeros", []float64{1, 2, 3}, []float64{1}, 3, 1},
	{"Upsample with sample-and-hold", []float64{1, 2, 3}, []float64{1, 1, 1}, 3, 1},
	{"Linear interpolation", []float64{1, 1, 1}, []float64{.5, 1, .5}, 2, 1},
	{"Decimate by 3", ramp(10), []float64{1}, 1, 3},
	{"Linear interp, rate 2/3", ramp(10), []float64{.5, 1, .5}, 2, 3},
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print worked upfirdn examples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	for _, c := range demoCases {
		y, err := upfirdn.Upfirdn1D(c.x, c.h, c.up, c.down)
		if err != nil {
			return fmt.Errorf("%s: %w", c.title, err)
		}
		fmt.Fprintf(w, "%s (up=%d, down=%d)\n", c.title, c.up, c.down)
		fmt.Fprintf(w, "  x = %s\n  h = %s\n  y = %s\n\n", formatRow(c.x), formatRow(c.h), formatRow(y))
	}

	x, err := upfirdn.NewArray([]int{4, 2}, ramp(8))
	if err != nil {
		return err
	}
	h, err := upfirdn.NewArray([]int{2}, []float64{1, 1})
	if err != nil {
		return err
	}
	for _, axis := range []int{-1, 0} {
		y, err := upfirdn.Upfirdn(x, h, upfirdn.WithUpRate(2), upfirdn.WithXDim(axis))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "2-D hold along axis %d, shape %v\n", axis, y.Shape())
		writeMatrix(w, y)
		fmt.Fprintln(w)
	}
	return nil
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func formatRow(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// writeMatrix prints a 2-D array row by row.
func writeMatrix(w io.Writer, a *upfirdn.Array) {
	shape := a.Shape()
	values := a.Float64s()
	for r := range shape[0] {
		fmt.Fprintf(w, "  %s\n", formatRow(values[r*shape[1]:(r+1)*shape[1]]))
	}
}
