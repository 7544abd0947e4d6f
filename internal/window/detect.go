package window

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/shirou/gopsutil/v4/process"
)

// Kind names a supported window manager.
type Kind string

const (
	KindAuto      Kind = "auto"
	KindYabai     Kind = "yabai"
	KindAerospace Kind = "aerospace"
	KindNone      Kind = "none"
)

// ErrNoProvider is returned by Select when no window manager is recognized.
var ErrNoProvider = errors.New("no supported window manager running")

// ParseKind validates a provider name from config.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindYabai, KindAerospace, KindNone:
		return k, nil
	case "":
		return KindAuto, nil
	default:
		return "", fmt.Errorf("unknown provider %q (use auto, yabai, aerospace or none)", s)
	}
}

// ProcessLister reports the names of running processes.
type ProcessLister interface {
	ProcessNames(ctx context.Context) ([]string, error)
}

// SystemProcesses lists processes through gopsutil.
type SystemProcesses struct{}

// ProcessNames returns the executable name of every visible process.
// Processes that exit mid-listing are skipped.
func (SystemProcesses) ProcessNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// SelectOptions configures provider selection.
type SelectOptions struct {
	Kind          Kind
	YabaiPath     string
	AerospacePath string
	Runner        Runner
	Processes     ProcessLister
}

// Detect inspects running processes for a recognized window manager.
// yabai wins when both are running.
func Detect(ctx context.Context, lister ProcessLister) (Kind, error) {
	names, err := lister.ProcessNames(ctx)
	if err != nil {
		return KindNone, err
	}
	running := make(map[string]bool, len(names))
	for _, n := range names {
		running[strings.ToLower(n)] = true
	}
	switch {
	case running["yabai"]:
		return KindYabai, nil
	case running["aerospace"]:
		return KindAerospace, nil
	default:
		return KindNone, nil
	}
}

// Select picks exactly one provider. It is evaluated once at startup; a
// window manager started later is not picked up. A nil Provider with
// ErrNoProvider means the tracker should publish empty snapshots.
func Select(ctx context.Context, opts SelectOptions) (Provider, error) {
	log := logger.WithComponent("provider")

	kind := opts.Kind
	if kind == "" {
		kind = KindAuto
	}
	if kind == KindAuto {
		lister := opts.Processes
		if lister == nil {
			lister = SystemProcesses{}
		}
		detected, err := Detect(ctx, lister)
		if err != nil {
			log.Warn().Err(err).Msg("Process scan failed, no provider installed")
			return nil, fmt.Errorf("%w: %v", ErrNoProvider, err)
		}
		kind = detected
	}

	var p Provider
	switch kind {
	case KindYabai:
		p = NewYabaiBackend(opts.YabaiPath, opts.Runner)
	case KindAerospace:
		p = NewAerospaceBackend(opts.AerospacePath, opts.Runner)
	default:
		log.Info().Msg("No supported window manager found")
		return nil, ErrNoProvider
	}

	log.Info().
		Str("provider", p.Name()).
		Str("executable", p.Executable()).
		Msg("Window manager provider selected")
	return p, nil
}
