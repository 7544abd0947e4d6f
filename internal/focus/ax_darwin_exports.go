//go:build darwin && cgo

package focus

/*
#include <stdint.h>
*/
import "C"

//export spacebarAXEvent
func spacebarAXEvent(handle C.uintptr_t, kind C.int) {
	dispatchAXEvent(Handle(handle), int(kind))
}

//export spacebarWorkspaceEvent
func spacebarWorkspaceEvent(pid C.int, name *C.char, regular C.int, launched C.int) {
	dispatchWorkspaceEvent(App{
		PID:     int(pid),
		Name:    C.GoString(name),
		Regular: regular == 1,
	}, launched == 1)
}

//export spacebarDrainMain
func spacebarDrainMain() {
	mainLoop.drain()
}
