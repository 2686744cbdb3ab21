// Package main provides the cssbuild CLI tool for building distributable stylesheets.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Build failures have already been reported
		if !errors.Is(err, errBuildFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
