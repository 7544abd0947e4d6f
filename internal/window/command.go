package window

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrCommandFailed wraps launch failures and non-zero exits of a WM CLI.
var ErrCommandFailed = errors.New("command failed")

// Runner executes a CLI and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. A zero Timeout means no limit
// beyond the caller's context.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes name with args, blocking until it exits.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s %s: exit %d: %s", ErrCommandFailed,
				name, strings.Join(args, " "), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCommandFailed, name, err)
	}
	return out, nil
}

// ResolveExecutable returns path when it exists, otherwise the location of
// name on $PATH. If neither is found the configured path is returned so the
// failure surfaces on first use.
func ResolveExecutable(path, name string) string {
	if path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	if found, err := exec.LookPath(name); err == nil {
		return found
	}
	if path != "" {
		return path
	}
	return name
}

// cli is the shared plumbing of the WM clients: one executable, one runner.
type cli struct {
	path   string
	runner Runner
	log    *zerolog.Logger
}

func (c *cli) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := c.runner.Run(ctx, c.path, args...)
	if err != nil {
		c.log.Debug().Err(err).Strs("args", args).Msg("Command failed")
		return nil, err
	}
	return out, nil
}

// query runs one sub-query and decodes its JSON output into T.
func query[T any](ctx context.Context, c *cli, label string, args ...string) (T, error) {
	var v T
	out, err := c.run(ctx, args...)
	if err != nil {
		return v, fmt.Errorf("%s: %w", label, err)
	}
	if err := json.Unmarshal(out, &v); err != nil {
		c.log.Warn().Err(err).Str("query", label).Msg("Failed to decode CLI output")
		return v, fmt.Errorf("decode %s: %w", label, err)
	}
	return v, nil
}
