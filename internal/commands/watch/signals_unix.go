//go:build !windows

package watch

import (
	"os"
	"syscall"
)

var manualSaveSignals = []os.Signal{syscall.SIGUSR1}
