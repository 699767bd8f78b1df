// Command happi inspects and extracts Smilei diagnostics from the
// command line.
//
// Usage:
//
//	happi list <results>...
//	happi info --query query.yaml
//	happi timesteps --results run --operation Ex
//	happi extract --query query.yaml --timestep 400
//	happi tree Fields0.h5
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
