// Package focus turns OS accessibility notifications into a payload-free
// "refresh now" signal.
//
// The Observer is platform neutral and talks to an Accessibility
// implementation: the cgo one on macOS, or a fake in tests.
package focus

import (
	"errors"
)

// EventKind is an accessibility notification the observer subscribes to.
type EventKind int

const (
	FocusedWindowChanged EventKind = iota
	MainWindowChanged
	ApplicationActivated
	WindowCreated
)

// ObservedEvents are subscribed for every attached process.
var ObservedEvents = []EventKind{
	FocusedWindowChanged,
	MainWindowChanged,
	ApplicationActivated,
	WindowCreated,
}

func (k EventKind) String() string {
	switch k {
	case FocusedWindowChanged:
		return "focused_window_changed"
	case MainWindowChanged:
		return "main_window_changed"
	case ApplicationActivated:
		return "application_activated"
	case WindowCreated:
		return "window_created"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned where no accessibility layer is available.
var ErrUnsupported = errors.New("accessibility observation is not supported on this platform")

// App is a running application as seen by the workspace.
type App struct {
	PID  int
	Name string
	// Regular is true for dock-visible, user-facing applications.
	Regular bool
}

// Handle identifies one per-process subscription.
type Handle uint64

// EventFunc receives "an event of kind K occurred for process P".
type EventFunc func(pid int, kind EventKind)

// WorkspaceHandlers are invoked on application launch and termination.
type WorkspaceHandlers struct {
	Launched   func(App)
	Terminated func(App)
}

// Accessibility is the OS surface the Observer needs.
type Accessibility interface {
	// IsTrusted reports whether the process holds accessibility permission.
	// With prompt set, the OS may show its permission dialog.
	IsTrusted(prompt bool) bool

	// RunningApps lists currently running applications.
	RunningApps() ([]App, error)

	// Subscribe attaches an observer for the given events of one process.
	Subscribe(pid int, kinds []EventKind, fn EventFunc) (Handle, error)

	// Unsubscribe releases a subscription. Unknown handles are ignored.
	Unsubscribe(h Handle)

	// WatchWorkspace registers launch/terminate hooks until cancel is called.
	WatchWorkspace(h WorkspaceHandlers) (cancel func(), err error)
}
