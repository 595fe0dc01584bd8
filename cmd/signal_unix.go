//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// interruptSignals lists the signals that cancel a running experiment.
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
