package window

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// scriptedRunner answers commands by their joined argv (without the
// executable). Unknown commands fail like a non-zero exit.
type scriptedRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errors  map[string]error
	calls   []string
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
	}
}

func (r *scriptedRunner) on(args string, stdout string) *scriptedRunner {
	r.outputs[args] = stdout
	return r
}

func (r *scriptedRunner) fail(args string) *scriptedRunner {
	r.errors[args] = fmt.Errorf("%w: exit 1", ErrCommandFailed)
	return r
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
	if err, ok := r.errors[key]; ok {
		return nil, err
	}
	if out, ok := r.outputs[key]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%w: unexpected command %q", ErrCommandFailed, key)
}

func (r *scriptedRunner) called(args string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == args {
			return true
		}
	}
	return false
}

func (r *scriptedRunner) count(args string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == args {
			n++
		}
	}
	return n
}
