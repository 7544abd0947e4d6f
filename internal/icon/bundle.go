package icon

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// BundleFinder maps an application name to its .app bundle directory.
type BundleFinder interface {
	BundlePath(ctx context.Context, app string) (string, error)
}

// ProcessBundles finds bundles through running processes' executables.
type ProcessBundles struct{}

func (ProcessBundles) BundlePath(ctx context.Context, app string) (string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		exe, err := p.ExeWithContext(ctx)
		if err != nil {
			continue
		}
		bundle, ok := bundleOf(exe)
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(filepath.Base(bundle), ".app"), app) {
			return bundle, nil
		}
	}
	return "", ErrNotFound
}

// bundleOf returns the outermost .app directory containing exe.
func bundleOf(exe string) (string, bool) {
	idx := strings.Index(exe, ".app/")
	if idx < 0 {
		return "", false
	}
	return exe[:idx+len(".app")], true
}
