// Package main provides the annostore CLI: table lifecycle and
// annotation operations against a namespace's versioned annotation
// store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

// run executes the root command and maps the outcome to an exit code:
// storage-layer failures are system errors, everything else is the
// caller's fault.
func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, types.ErrTransaction) {
			return exitSysError
		}
		return exitUserError
	}
	return exitSuccess
}

func main() {
	os.Exit(run())
}
