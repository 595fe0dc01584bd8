//go:build windows

package cmd

import "os"

// interruptSignals lists the signals that cancel a running experiment.
// On Windows, only os.Interrupt is supported.
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
