//go:build darwin && cgo

package focus

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework AppKit -framework CoreFoundation
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <ApplicationServices/ApplicationServices.h>
#import <AppKit/AppKit.h>

extern void spacebarAXEvent(uintptr_t handle, int kind);
extern void spacebarWorkspaceEvent(int pid, char *name, int regular, int launched);

static int sb_is_trusted(int prompt) {
	if (!prompt) {
		return AXIsProcessTrusted() ? 1 : 0;
	}
	const void *keys[] = { kAXTrustedCheckOptionPrompt };
	const void *values[] = { kCFBooleanTrue };
	CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
		&kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	Boolean ok = AXIsProcessTrustedWithOptions(opts);
	CFRelease(opts);
	return ok ? 1 : 0;
}

static CFStringRef sb_notification(int kind) {
	switch (kind) {
	case 0: return kAXFocusedWindowChangedNotification;
	case 1: return kAXMainWindowChangedNotification;
	case 2: return kAXApplicationActivatedNotification;
	case 3: return kAXWindowCreatedNotification;
	}
	return NULL;
}

static void sb_ax_callback(AXObserverRef observer, AXUIElementRef element,
                           CFStringRef notification, void *refcon) {
	int kind = -1;
	for (int k = 0; k < 4; k++) {
		if (CFStringCompare(notification, sb_notification(k), 0) == kCFCompareEqualTo) {
			kind = k;
			break;
		}
	}
	spacebarAXEvent((uintptr_t)refcon, kind);
}

typedef struct {
	AXObserverRef observer;
	AXUIElementRef app;
} sb_subscription;

static void *sb_subscribe(int pid, uintptr_t handle, int mask) {
	AXObserverRef observer = NULL;
	if (AXObserverCreate((pid_t)pid, sb_ax_callback, &observer) != kAXErrorSuccess || observer == NULL) {
		return NULL;
	}
	AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
	int added = 0;
	for (int k = 0; k < 4; k++) {
		if (!(mask & (1 << k))) {
			continue;
		}
		if (AXObserverAddNotification(observer, app, sb_notification(k), (void *)handle) == kAXErrorSuccess) {
			added++;
		}
	}
	if (added == 0) {
		CFRelease(app);
		CFRelease(observer);
		return NULL;
	}
	CFRunLoopAddSource(CFRunLoopGetMain(), AXObserverGetRunLoopSource(observer), kCFRunLoopDefaultMode);
	CFRunLoopWakeUp(CFRunLoopGetMain());

	sb_subscription *s = malloc(sizeof(sb_subscription));
	s->observer = observer;
	s->app = app;
	return s;
}

static void sb_unsubscribe(void *p) {
	sb_subscription *s = (sb_subscription *)p;
	for (int k = 0; k < 4; k++) {
		AXObserverRemoveNotification(s->observer, s->app, sb_notification(k));
	}
	CFRunLoopRemoveSource(CFRunLoopGetMain(), AXObserverGetRunLoopSource(s->observer), kCFRunLoopDefaultMode);
	CFRelease(s->app);
	CFRelease(s->observer);
	free(s);
}

typedef struct {
	int pid;
	char *name;
	int regular;
} sb_app;

static int sb_running_apps(sb_app **out) {
	@autoreleasepool {
		NSArray<NSRunningApplication *> *apps = [[NSWorkspace sharedWorkspace] runningApplications];
		int n = (int)[apps count];
		sb_app *list = calloc(n > 0 ? n : 1, sizeof(sb_app));
		for (int i = 0; i < n; i++) {
			NSRunningApplication *a = apps[i];
			const char *name = a.localizedName ? [a.localizedName UTF8String] : "";
			list[i].pid = (int)a.processIdentifier;
			list[i].name = strdup(name ? name : "");
			list[i].regular = a.activationPolicy == NSApplicationActivationPolicyRegular;
		}
		*out = list;
		return n;
	}
}

static void sb_free_apps(sb_app *list, int n) {
	for (int i = 0; i < n; i++) {
		free(list[i].name);
	}
	free(list);
}

static sb_app *sb_app_at(sb_app *list, int i) {
	return &list[i];
}

static id sb_launch_token = nil;
static id sb_terminate_token = nil;

static void sb_forward(NSNotification *note, int launched) {
	NSRunningApplication *a = note.userInfo[NSWorkspaceApplicationKey];
	if (a == nil) {
		return;
	}
	const char *name = a.localizedName ? [a.localizedName UTF8String] : "";
	spacebarWorkspaceEvent((int)a.processIdentifier, (char *)(name ? name : ""),
		a.activationPolicy == NSApplicationActivationPolicyRegular, launched);
}

static void sb_watch_workspace(void) {
	@autoreleasepool {
		NSNotificationCenter *center = [[NSWorkspace sharedWorkspace] notificationCenter];
		sb_launch_token = [[center addObserverForName:NSWorkspaceDidLaunchApplicationNotification
			object:nil queue:[NSOperationQueue mainQueue]
			usingBlock:^(NSNotification *note) { sb_forward(note, 1); }] retain];
		sb_terminate_token = [[center addObserverForName:NSWorkspaceDidTerminateApplicationNotification
			object:nil queue:[NSOperationQueue mainQueue]
			usingBlock:^(NSNotification *note) { sb_forward(note, 0); }] retain];
	}
}

static void sb_unwatch_workspace(void) {
	@autoreleasepool {
		NSNotificationCenter *center = [[NSWorkspace sharedWorkspace] notificationCenter];
		if (sb_launch_token != nil) {
			[center removeObserver:sb_launch_token];
			[sb_launch_token release];
			sb_launch_token = nil;
		}
		if (sb_terminate_token != nil) {
			[center removeObserver:sb_terminate_token];
			[sb_terminate_token release];
			sb_terminate_token = nil;
		}
	}
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

type subscription struct {
	pid  int
	fn   EventFunc
	cref unsafe.Pointer
}

// Callbacks arrive on the main run loop and look their Go target up here.
var (
	registryMu sync.RWMutex
	registry   = make(map[Handle]*subscription)
	nextHandle Handle

	workspaceMu       sync.RWMutex
	workspaceHandlers *WorkspaceHandlers
)

type systemAccessibility struct{}

// NewSystemAccessibility returns the macOS accessibility layer. Callbacks
// are delivered on the main run loop, see RunMain.
func NewSystemAccessibility() (Accessibility, error) {
	return systemAccessibility{}, nil
}

func (systemAccessibility) IsTrusted(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.sb_is_trusted(p) == 1
}

func (systemAccessibility) RunningApps() ([]App, error) {
	var list *C.sb_app
	n := int(C.sb_running_apps(&list))
	defer C.sb_free_apps(list, C.int(n))

	apps := make([]App, 0, n)
	for i := 0; i < n; i++ {
		a := C.sb_app_at(list, C.int(i))
		apps = append(apps, App{
			PID:     int(a.pid),
			Name:    C.GoString(a.name),
			Regular: a.regular == 1,
		})
	}
	return apps, nil
}

func (systemAccessibility) Subscribe(pid int, kinds []EventKind, fn EventFunc) (Handle, error) {
	mask := 0
	for _, k := range kinds {
		mask |= 1 << int(k)
	}

	registryMu.Lock()
	nextHandle++
	h := nextHandle
	sub := &subscription{pid: pid, fn: fn}
	registry[h] = sub
	registryMu.Unlock()

	var ref unsafe.Pointer
	mainLoop.do(func() {
		ref = C.sb_subscribe(C.int(pid), C.uintptr_t(h), C.int(mask))
	})
	if ref == nil {
		registryMu.Lock()
		delete(registry, h)
		registryMu.Unlock()
		return 0, fmt.Errorf("observe pid %d: accessibility observer unavailable", pid)
	}

	registryMu.Lock()
	sub.cref = ref
	registryMu.Unlock()
	return h, nil
}

func (systemAccessibility) Unsubscribe(h Handle) {
	registryMu.Lock()
	sub, ok := registry[h]
	delete(registry, h)
	registryMu.Unlock()
	if ok && sub.cref != nil {
		mainLoop.do(func() { C.sb_unsubscribe(sub.cref) })
	}
}

func (systemAccessibility) WatchWorkspace(h WorkspaceHandlers) (func(), error) {
	workspaceMu.Lock()
	if workspaceHandlers != nil {
		workspaceMu.Unlock()
		return nil, errors.New("workspace notifications already watched")
	}
	workspaceHandlers = &h
	workspaceMu.Unlock()

	mainLoop.do(func() { C.sb_watch_workspace() })

	var once sync.Once
	return func() {
		once.Do(func() {
			mainLoop.do(func() { C.sb_unwatch_workspace() })
			workspaceMu.Lock()
			workspaceHandlers = nil
			workspaceMu.Unlock()
		})
	}, nil
}

func dispatchAXEvent(h Handle, kind int) {
	registryMu.RLock()
	sub, ok := registry[h]
	registryMu.RUnlock()
	if !ok || kind < 0 {
		return
	}
	sub.fn(sub.pid, EventKind(kind))
}

func dispatchWorkspaceEvent(app App, launched bool) {
	workspaceMu.RLock()
	h := workspaceHandlers
	workspaceMu.RUnlock()
	if h == nil {
		return
	}
	if launched && h.Launched != nil {
		h.Launched(app)
	} else if !launched && h.Terminated != nil {
		h.Terminated(app)
	}
}
