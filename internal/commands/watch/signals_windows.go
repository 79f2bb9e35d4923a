//go:build windows

package watch

import "os"

var manualSaveSignals []os.Signal
