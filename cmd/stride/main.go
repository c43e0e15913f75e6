// Package main is the entry point for the stride CLI.
package main

import (
	"os"

	"github.com/stride-agent/stride/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
