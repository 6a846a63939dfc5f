// Command nodeflow runs flow graphs from files or serves them over HTTP.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitDeadlock = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	if errors.Is(err, nodeflow.ErrDeadlock) {
		return exitDeadlock
	}
	return exitError
}
