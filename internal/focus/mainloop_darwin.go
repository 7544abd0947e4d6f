//go:build darwin && cgo

package focus

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreFoundation
#include <CoreFoundation/CoreFoundation.h>
#include <pthread.h>

extern void spacebarDrainMain(void);

static volatile int sb_main_stopped = 0;

static void sb_keepalive(CFRunLoopTimerRef timer, void *info) {}

static void sb_run_main(void) {
	CFRunLoopTimerRef timer = CFRunLoopTimerCreate(kCFAllocatorDefault,
		CFAbsoluteTimeGetCurrent() + 1e10, 1e10, 0, 0, sb_keepalive, NULL);
	CFRunLoopAddTimer(CFRunLoopGetMain(), timer, kCFRunLoopDefaultMode);
	while (!sb_main_stopped) {
		CFRunLoopRunInMode(kCFRunLoopDefaultMode, 1.0, false);
	}
	CFRunLoopRemoveTimer(CFRunLoopGetMain(), timer, kCFRunLoopDefaultMode);
	CFRelease(timer);
}

static int sb_is_main_thread(void) {
	return pthread_main_np();
}

static void sb_wake_main(void) {
	CFRunLoopPerformBlock(CFRunLoopGetMain(), kCFRunLoopDefaultMode, ^{ spacebarDrainMain(); });
	CFRunLoopWakeUp(CFRunLoopGetMain());
}

static void sb_stop_main(void) {
	sb_main_stopped = 1;
	CFRunLoopStop(CFRunLoopGetMain());
}
*/
import "C"

// RunMain runs fn on a goroutine while the calling goroutine services the
// main run loop, where accessibility and workspace callbacks are delivered.
// It must be called from the main goroutine with the OS thread locked
// (runtime.LockOSThread in an init func). It returns fn's result once fn
// returns. Accessibility registrations made from other goroutines are run
// on the loop while it is serviced.
func RunMain(fn func() error) error {
	mainLoop.start()
	errc := make(chan error, 1)
	go func() {
		errc <- fn()
		C.sb_stop_main()
	}()
	C.sb_run_main()
	mainLoop.stop()
	return <-errc
}

func isMainThread() bool { return C.sb_is_main_thread() != 0 }

func wakeMain() { C.sb_wake_main() }

const isMainloopNoop = false
