package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/cobra"

	"github.com/tphakala/go-upfirdn/internal/simdops"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show CPU features used by the dot-product kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeInfo(cmd.OutOrStdout())
			return nil
		},
	}
}

func writeInfo(w io.Writer) {
	cpu := cpuid.CPU
	fmt.Fprintf(w, "CPU:       %s\n", cpu.BrandName)
	fmt.Fprintf(w, "Cores:     %d physical, %d logical\n", cpu.PhysicalCores, cpu.LogicalCores)
	fmt.Fprintf(w, "GOARCH:    %s, GOMAXPROCS %d\n", runtime.GOARCH, runtime.GOMAXPROCS(0))
	fmt.Fprintf(w, "AVX2+FMA3: %t\n", cpu.Supports(cpuid.AVX2, cpuid.FMA3))
	fmt.Fprintf(w, "AVX-512F:  %t\n", cpu.Supports(cpuid.AVX512F))
	fmt.Fprintf(w, "NEON:      %t\n", cpu.Supports(cpuid.ASIMD))
	fmt.Fprintf(w, "Kernel:    %s\n", simdops.Float64Ops().Name)
}
