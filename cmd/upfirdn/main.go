// Command upfirdn resamples signals by rational factors with a FIR filter.
//
// Usage:
//
//	upfirdn [flags] <command> [args]
//
// Commands:
//
//	wav   - Resample a PCM WAV file
//	demo  - Print worked examples
//	info  - Show CPU features used by the dot-product kernel
package main

import (
	"fmt"
	"os"

	"github.com/tphakala/go-upfirdn/cmd/upfirdn/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
