// Package main is the entry point for the lms ledger server CLI.
package main

import (
	"os"

	"github.com/jbmohler/lmsmono/cmd/lms/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
