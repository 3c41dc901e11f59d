package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+err.Error()))
		os.Exit(1)
	}
}
