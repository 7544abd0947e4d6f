//go:build !darwin || !cgo

package focus

// RunMain calls fn directly; there is no main run loop to service.
func RunMain(fn func() error) error {
	return fn()
}

func isMainThread() bool { return false }

func wakeMain() {}

const isMainloopNoop = true
