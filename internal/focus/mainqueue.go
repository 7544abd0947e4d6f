package focus

import "sync"

// mainQueue hands work to the thread servicing the main run loop. Work
// runs inline when no loop is being serviced or when the caller already
// is that thread.
type mainQueue struct {
	onMain func() bool
	wake   func()

	mu      sync.Mutex
	running bool
	pending []func()
}

var mainLoop = &mainQueue{onMain: isMainThread, wake: wakeMain}

// do runs fn on the main run loop and waits for it to finish.
func (q *mainQueue) do(fn func()) {
	q.mu.Lock()
	if !q.running || q.onMain() {
		q.mu.Unlock()
		fn()
		return
	}
	done := make(chan struct{})
	q.pending = append(q.pending, func() {
		defer close(done)
		fn()
	})
	q.mu.Unlock()

	q.wake()
	<-done
}

// drain runs queued work. The run loop calls it after a wake.
func (q *mainQueue) drain() {
	q.mu.Lock()
	work := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range work {
		fn()
	}
}

func (q *mainQueue) start() {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
}

// stop marks the loop gone and runs whatever was still queued on the
// calling goroutine.
func (q *mainQueue) stop() {
	q.mu.Lock()
	q.running = false
	q.mu.Unlock()
	q.drain()
}
