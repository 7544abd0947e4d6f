package tracker

import (
	"context"
	"errors"
	"image"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	spacesFn func(call int) ([]model.Space, error)
	actions  []string
	focusErr error
}

func (p *fakeProvider) SpacesWithWindows(ctx context.Context) ([]model.Space, error) {
	p.mu.Lock()
	call := p.calls
	p.calls++
	fn := p.spacesFn
	p.mu.Unlock()
	return fn(call)
}

func (p *fakeProvider) FocusSpace(ctx context.Context, spaceID string, needWindowFocus bool) error {
	p.record("space:" + spaceID)
	return p.focusErr
}

func (p *fakeProvider) FocusWindow(ctx context.Context, windowID int) error {
	p.record("window:" + strconv.Itoa(windowID))
	return p.focusErr
}

func (p *fakeProvider) Name() string       { return "fake" }
func (p *fakeProvider) Executable() string { return "/bin/fake" }

func (p *fakeProvider) record(a string) {
	p.mu.Lock()
	p.actions = append(p.actions, a)
	p.mu.Unlock()
}

func (p *fakeProvider) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func space(id string, focused bool, windows ...model.Window) model.Space {
	return model.Space{ID: id, Focused: focused, Windows: windows}
}

func staticProvider(spaces ...model.Space) *fakeProvider {
	return &fakeProvider{spacesFn: func(int) ([]model.Space, error) {
		return cloneSpaces(spaces), nil
	}}
}

func quietOptions() Options {
	return Options{
		FallbackInterval: time.Hour,
		SettleDelay:      time.Millisecond,
		WindowFocusDelay: time.Millisecond,
	}
}

func ids(spaces []model.Space) []string {
	out := make([]string, len(spaces))
	for i, s := range spaces {
		out[i] = s.ID
	}
	return out
}

func TestEngineInitialStateIsEmpty(t *testing.T) {
	e := New(staticProvider(space("1", true, model.Window{ID: 1})), quietOptions())
	defer e.Stop()

	assert.NotNil(t, e.Spaces())
	assert.Empty(t, e.Spaces())
}

func TestEngineStartPublishesSortedSnapshot(t *testing.T) {
	p := staticProvider(
		space("2", true, model.Window{ID: 3, Focused: true}),
		space("10", false, model.Window{ID: 5}),
	)
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	assert.Eventually(t, func() bool { return len(e.Spaces()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"10", "2"}, ids(e.Spaces()))
	assert.NoError(t, model.Validate(e.Spaces()))
}

func TestEngineProviderFailurePublishesEmpty(t *testing.T) {
	var mu sync.Mutex
	fail := false
	p := &fakeProvider{spacesFn: func(int) ([]model.Space, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("yabai: exit 1")
		}
		return []model.Space{space("1", true, model.Window{ID: 1})}, nil
	}}
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool { return len(e.Spaces()) == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	fail = true
	mu.Unlock()
	e.Refresh()

	assert.Eventually(t, func() bool {
		s := e.Spaces()
		return s != nil && len(s) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestEngineNilProviderPublishesEmpty(t *testing.T) {
	e := New(nil, quietOptions())
	ch := e.Subscribe()
	e.Start()
	defer e.Stop()

	select {
	case spaces := <-ch:
		assert.NotNil(t, spaces)
		assert.Empty(t, spaces)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
	assert.Equal(t, "none", e.ProviderName())

	// Actions are ignored without a provider.
	e.SwitchToSpace("1", true)
	e.SwitchToWindow(3)
}

func TestEngineLastCompletedQueryWins(t *testing.T) {
	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	snapshots := [][]model.Space{
		{space("1", true, model.Window{ID: 1})},
		{space("2", true, model.Window{ID: 2})},
	}
	p := &fakeProvider{spacesFn: func(call int) ([]model.Space, error) {
		if call == 0 {
			return []model.Space{}, nil
		}
		i := call - 1
		<-gates[i]
		return cloneSpaces(snapshots[i]), nil
	}}
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)
	e.Refresh()
	e.Refresh()
	require.Eventually(t, func() bool { return p.callCount() == 3 }, time.Second, time.Millisecond)

	close(gates[1])
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"2"}, ids(e.Spaces()))
	}, time.Second, time.Millisecond)

	close(gates[0])
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"1"}, ids(e.Spaces()))
	}, time.Second, time.Millisecond)

	// Never a blend of the two snapshots.
	spaces := e.Spaces()
	require.Len(t, spaces, 1)
	assert.Equal(t, []model.Window{{ID: 1}}, spaces[0].Windows)
}

func TestEngineFallbackTimerRefreshes(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	opts := quietOptions()
	opts.FallbackInterval = 10 * time.Millisecond
	e := New(p, opts)
	e.Start()
	defer e.Stop()

	assert.Eventually(t, func() bool { return p.callCount() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestEngineSetFallbackInterval(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)
	e.SetFallbackInterval(10 * time.Millisecond)
	assert.Eventually(t, func() bool { return p.callCount() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestEngineSwitchToSpaceRefreshesAfterSettle(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)
	e.SwitchToSpace("2", true)

	assert.Eventually(t, func() bool { return p.callCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"space:2"}, p.recorded())
}

func TestEngineFocusFailureStillRefreshes(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	p.focusErr = errors.New("rejected")
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)
	e.SwitchToWindow(7)

	assert.Eventually(t, func() bool { return p.callCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"window:7"}, p.recorded())
}

func TestEngineFocusWindowInSpaceOrdersCommands(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	e := New(p, quietOptions())
	e.Start()
	defer e.Stop()

	e.FocusWindowInSpace("3", 42)
	assert.Eventually(t, func() bool { return len(p.recorded()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"space:3", "window:42"}, p.recorded())
}

func TestEngineSubscribeReceivesSnapshots(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	e := New(p, quietOptions())
	ch := e.Subscribe()
	e.Start()
	defer e.Stop()

	select {
	case spaces := <-ch:
		assert.Equal(t, []string{"1"}, ids(spaces))
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	e.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

type stopCounter struct {
	mu    sync.Mutex
	stops int
}

func (s *stopCounter) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func TestEngineStopIsIdempotentAndStopsObserver(t *testing.T) {
	p := staticProvider(space("1", true, model.Window{ID: 1}))
	e := New(p, quietOptions())
	obs := &stopCounter{}
	e.AttachObserver(obs)
	ch := e.Subscribe()
	e.Start()

	e.Stop()
	e.Stop()

	assert.Equal(t, 1, obs.stops)
	for range ch {
	}
	calls := p.callCount()
	e.Refresh()
	e.Signal()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, p.callCount())

	late := &stopCounter{}
	e.AttachObserver(late)
	assert.Equal(t, 1, late.stops)
}

func TestEngineSubscribeAfterStopIsClosed(t *testing.T) {
	e := New(staticProvider(space("1", true, model.Window{ID: 1})), quietOptions())
	e.Start()
	e.Stop()

	select {
	case _, ok := <-e.Subscribe():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription after stop was left open")
	}
}

func TestEngineStopUnblocksInFlightQuery(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProvider{spacesFn: func(int) ([]model.Space, error) {
		<-block
		return nil, nil
	}}
	e := New(p, quietOptions())
	e.Start()
	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		close(block)
		e.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}

type fakeIcons map[string]image.Image

func (f fakeIcons) Lookup(app string) (image.Image, error) {
	if img, ok := f[app]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func TestCollectAttachesIcons(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	p := staticProvider(space("1", true,
		model.Window{ID: 1, App: "Safari"},
		model.Window{ID: 2, App: "Unknown"},
	))

	spaces, err := Collect(context.Background(), p, fakeIcons{"Safari": img})
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, image.Image(img), spaces[0].Windows[0].Icon)
	assert.Nil(t, spaces[0].Windows[1].Icon)
}

func TestCollectErrorReturnsEmpty(t *testing.T) {
	p := &fakeProvider{spacesFn: func(int) ([]model.Space, error) {
		return nil, errors.New("boom")
	}}
	spaces, err := Collect(context.Background(), p, nil)
	assert.Error(t, err)
	assert.NotNil(t, spaces)
	assert.Empty(t, spaces)
}
