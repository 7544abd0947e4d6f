package focus

import (
	"sort"
	"sync"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/rs/zerolog"
)

// DefaultPermissionPoll is how often permission is rechecked until granted.
const DefaultPermissionPoll = 2 * time.Second

// Options configures an Observer.
type Options struct {
	PermissionPoll time.Duration
}

// Observer attaches accessibility subscriptions to every regular
// application and calls onChange whenever focus or window membership may
// have changed. It never returns errors: processes that cannot be observed
// are skipped.
type Observer struct {
	ax       Accessibility
	onChange func()
	poll     time.Duration
	log      *zerolog.Logger

	mu              sync.Mutex
	handles         map[int]Handle
	cancelWorkspace func()
	ready           bool
	stopped         bool
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// NewObserver starts observing. If permission is not yet granted it polls
// every PermissionPoll until it is, without timeout.
func NewObserver(ax Accessibility, onChange func(), opts Options) *Observer {
	poll := opts.PermissionPoll
	if poll <= 0 {
		poll = DefaultPermissionPoll
	}
	o := &Observer{
		ax:       ax,
		onChange: onChange,
		poll:     poll,
		log:      logger.WithComponent("focus"),
		handles:  make(map[int]Handle),
		stopChan: make(chan struct{}),
	}

	if ax.IsTrusted(true) {
		o.setup()
	} else {
		o.log.Info().Dur("poll", poll).Msg("Accessibility permission not granted, waiting")
		o.wg.Add(1)
		go o.waitForPermission()
	}
	return o
}

func (o *Observer) waitForPermission() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ticker.C:
			if o.ax.IsTrusted(false) {
				o.log.Info().Msg("Accessibility permission granted")
				o.setup()
				return
			}
		}
	}
}

func (o *Observer) setup() {
	o.mu.Lock()
	if o.stopped || o.ready {
		o.mu.Unlock()
		return
	}
	o.ready = true
	o.mu.Unlock()

	apps, err := o.ax.RunningApps()
	if err != nil {
		o.log.Warn().Err(err).Msg("Failed to list running applications")
	}
	for _, app := range apps {
		if app.Regular {
			o.attach(app)
		}
	}

	cancel, err := o.ax.WatchWorkspace(WorkspaceHandlers{
		Launched:   o.handleLaunch,
		Terminated: o.handleTerminate,
	})
	if err != nil {
		o.log.Warn().Err(err).Msg("Failed to watch application launch/terminate")
		return
	}

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		cancel()
		return
	}
	o.cancelWorkspace = cancel
	o.mu.Unlock()

	o.log.Debug().Int("processes", len(o.Attached())).Msg("Accessibility observers attached")
}

func (o *Observer) attach(app App) {
	if app.PID <= 0 {
		return
	}
	o.mu.Lock()
	_, exists := o.handles[app.PID]
	stopped := o.stopped
	o.mu.Unlock()
	if exists || stopped {
		return
	}

	h, err := o.ax.Subscribe(app.PID, ObservedEvents, o.handleEvent)
	if err != nil {
		o.log.Debug().Err(err).Int("pid", app.PID).Str("app", app.Name).Msg("Skipping process")
		return
	}

	o.mu.Lock()
	_, raced := o.handles[app.PID]
	if o.stopped || raced {
		o.mu.Unlock()
		o.ax.Unsubscribe(h)
		return
	}
	o.handles[app.PID] = h
	o.mu.Unlock()
}

func (o *Observer) detach(pid int) {
	o.mu.Lock()
	h, ok := o.handles[pid]
	delete(o.handles, pid)
	o.mu.Unlock()
	if ok {
		o.ax.Unsubscribe(h)
	}
}

func (o *Observer) handleEvent(pid int, kind EventKind) {
	o.log.Debug().Int("pid", pid).Stringer("event", kind).Msg("Accessibility event")
	o.fire()
}

func (o *Observer) handleLaunch(app App) {
	o.attach(app)
}

// handleTerminate always fires: a quitting app's windows vanish without
// per-window events.
func (o *Observer) handleTerminate(app App) {
	o.detach(app.PID)
	o.fire()
}

func (o *Observer) fire() {
	o.mu.Lock()
	stopped := o.stopped
	o.mu.Unlock()
	if !stopped && o.onChange != nil {
		o.onChange()
	}
}

// Ready reports whether permission was granted and setup ran.
func (o *Observer) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready && !o.stopped
}

// Attached returns the observed process ids, ascending.
func (o *Observer) Attached() []int {
	o.mu.Lock()
	pids := make([]int, 0, len(o.handles))
	for pid := range o.handles {
		pids = append(pids, pid)
	}
	o.mu.Unlock()
	sort.Ints(pids)
	return pids
}

// Stop releases every subscription and the workspace hooks. It is safe to
// call more than once.
func (o *Observer) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.stopChan)
	handles := o.handles
	o.handles = make(map[int]Handle)
	cancel := o.cancelWorkspace
	o.cancelWorkspace = nil
	o.mu.Unlock()

	for _, h := range handles {
		o.ax.Unsubscribe(h)
	}
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
}
