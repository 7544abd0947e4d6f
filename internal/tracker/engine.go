// Package tracker owns the published space model and keeps it current.
package tracker

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/bryanchriswhite/SpaceBar/internal/window"
	"github.com/rs/zerolog"
)

const (
	DefaultFallbackInterval = 30 * time.Second
	DefaultSettleDelay      = 100 * time.Millisecond
	DefaultWindowFocusDelay = 100 * time.Millisecond
)

// IconLookup resolves an application's icon. Errors mean "no icon".
type IconLookup interface {
	Lookup(app string) (image.Image, error)
}

// Stopper is anything torn down with the engine, typically a focus.Observer.
type Stopper interface {
	Stop()
}

// Options configures an Engine. Zero values use the defaults above.
type Options struct {
	FallbackInterval time.Duration
	SettleDelay      time.Duration
	WindowFocusDelay time.Duration
	Icons            IconLookup
}

// Engine tracks spaces and windows reported by a provider.
//
// Every trigger issues an independent provider query in the background.
// Completed results are handed to a single loop goroutine which replaces
// the published model wholesale, so whichever query completes last wins.
type Engine struct {
	provider window.Provider
	opts     Options
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	spaces    []model.Space
	listeners []chan []model.Space
	observer  Stopper
	started   bool
	stopped   bool

	results    chan []model.Space
	intervalCh chan time.Duration
	stopChan   chan struct{}
	loopDone   chan struct{}
	wg         sync.WaitGroup
}

// New creates an engine over provider, which may be nil when no window
// manager was found. In that case every refresh publishes an empty model.
func New(provider window.Provider, opts Options) *Engine {
	if opts.FallbackInterval <= 0 {
		opts.FallbackInterval = DefaultFallbackInterval
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.WindowFocusDelay <= 0 {
		opts.WindowFocusDelay = DefaultWindowFocusDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		provider:   provider,
		opts:       opts,
		log:        logger.WithComponent("tracker"),
		ctx:        ctx,
		cancel:     cancel,
		spaces:     []model.Space{},
		results:    make(chan []model.Space),
		intervalCh: make(chan time.Duration, 1),
		stopChan:   make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
}

// Start runs the state loop and issues the initial refresh.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	e.log.Info().
		Str("provider", e.ProviderName()).
		Dur("fallback_interval", e.opts.FallbackInterval).
		Msg("Starting space tracker")

	go e.run(e.opts.FallbackInterval)
	e.Refresh()
}

// AttachObserver ties s to the engine's lifetime.
func (e *Engine) AttachObserver(s Stopper) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		s.Stop()
		return
	}
	e.observer = s
	e.mu.Unlock()
}

// ProviderName is the active provider's name, or "none".
func (e *Engine) ProviderName() string {
	if e.provider == nil {
		return string(window.KindNone)
	}
	return e.provider.Name()
}

func (e *Engine) run(interval time.Duration) {
	defer close(e.loopDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case d := <-e.intervalCh:
			ticker.Reset(d)
			e.log.Info().Dur("fallback_interval", d).Msg("Fallback interval updated")
		case <-ticker.C:
			e.log.Debug().Msg("Fallback refresh")
			e.Refresh()
		case spaces := <-e.results:
			e.publish(spaces)
		}
	}
}

// Refresh recomputes the model in the background. It never blocks, so it
// is safe to call from OS callbacks.
func (e *Engine) Refresh() {
	e.spawn(func() {
		spaces := e.snapshot()
		select {
		case e.results <- spaces:
		case <-e.stopChan:
		}
	})
}

// Signal is the focus-change callback.
func (e *Engine) Signal() {
	e.Refresh()
}

func (e *Engine) spawn(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
	return true
}

func (e *Engine) snapshot() []model.Space {
	if e.provider == nil {
		return []model.Space{}
	}
	spaces, err := Collect(e.ctx, e.provider, e.opts.Icons)
	if err != nil {
		e.log.Debug().Err(err).Str("provider", e.provider.Name()).Msg("Provider query failed, publishing empty model")
	}
	return spaces
}

func (e *Engine) publish(spaces []model.Space) {
	e.mu.Lock()
	e.spaces = spaces
	e.mu.Unlock()

	e.log.Debug().Int("spaces", len(spaces)).Msg("Published spaces")
	e.notifyListeners(spaces)
}

// Spaces returns the current published model.
func (e *Engine) Spaces() []model.Space {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneSpaces(e.spaces)
}

// Subscribe returns a channel receiving every published model. Snapshots
// are dropped for a subscriber whose channel is full. After Stop the
// returned channel is already closed.
func (e *Engine) Subscribe() chan []model.Space {
	ch := make(chan []model.Space, 10)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		close(ch)
		return ch
	}
	e.listeners = append(e.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener.
func (e *Engine) Unsubscribe(ch chan []model.Space) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, listener := range e.listeners {
		if listener == ch {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

func (e *Engine) notifyListeners(spaces []model.Space) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, listener := range e.listeners {
		select {
		case listener <- cloneSpaces(spaces):
		default:
			// Skip if channel is full
		}
	}
}

// SetFallbackInterval changes the fallback timer period.
func (e *Engine) SetFallbackInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-e.intervalCh:
	default:
	}
	select {
	case e.intervalCh <- d:
	default:
	}
}

// SwitchToSpace asks the provider to focus a space, then refreshes after
// the settle delay. Failures are logged and dropped.
func (e *Engine) SwitchToSpace(spaceID string, needWindowFocus bool) {
	e.action("focus_space", func(ctx context.Context, p window.Provider) {
		if err := p.FocusSpace(ctx, spaceID, needWindowFocus); err != nil {
			e.log.Debug().Err(err).Str("space", spaceID).Msg("Focus space failed")
		}
	})
}

// SwitchToWindow asks the provider to focus a window. The window's space
// must already be active; use FocusWindowInSpace otherwise.
func (e *Engine) SwitchToWindow(windowID int) {
	e.action("focus_window", func(ctx context.Context, p window.Provider) {
		if err := p.FocusWindow(ctx, windowID); err != nil {
			e.log.Debug().Err(err).Int("window", windowID).Msg("Focus window failed")
		}
	})
}

// FocusWindowInSpace switches to spaceID, waits the window focus delay,
// then focuses windowID.
func (e *Engine) FocusWindowInSpace(spaceID string, windowID int) {
	e.action("focus_window_in_space", func(ctx context.Context, p window.Provider) {
		if err := p.FocusSpace(ctx, spaceID, false); err != nil {
			e.log.Debug().Err(err).Str("space", spaceID).Msg("Focus space failed")
		}
		if !e.sleep(e.opts.WindowFocusDelay) {
			return
		}
		if err := p.FocusWindow(ctx, windowID); err != nil {
			e.log.Debug().Err(err).Int("window", windowID).Msg("Focus window failed")
		}
	})
}

func (e *Engine) action(name string, fn func(ctx context.Context, p window.Provider)) {
	if e.provider == nil {
		e.log.Debug().Str("action", name).Msg("No provider, ignoring action")
		return
	}
	e.spawn(func() {
		e.log.Debug().Str("action", name).Msg("Running action")
		fn(e.ctx, e.provider)
		if e.sleep(e.opts.SettleDelay) {
			e.Refresh()
		}
	})
}

// sleep waits d and reports false if the engine stopped meanwhile.
func (e *Engine) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.stopChan:
		return false
	}
}

// Stop tears down the loop, in-flight work and the attached observer. It
// is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	started := e.started
	observer := e.observer
	e.observer = nil
	close(e.stopChan)
	e.mu.Unlock()

	if observer != nil {
		observer.Stop()
	}
	e.cancel()
	e.wg.Wait()
	if started {
		<-e.loopDone
	}

	e.mu.Lock()
	for _, ch := range e.listeners {
		close(ch)
	}
	e.listeners = nil
	e.mu.Unlock()
	e.log.Info().Msg("Space tracker stopped")
}

func cloneSpaces(spaces []model.Space) []model.Space {
	out := make([]model.Space, len(spaces))
	for i, s := range spaces {
		out[i] = s
		out[i].Windows = append([]model.Window(nil), s.Windows...)
	}
	return out
}
