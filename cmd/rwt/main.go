// Package main is the entry point for RelayWatch. Without a subcommand it
// runs the TUI; the subcommands query a relay station once and print JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
