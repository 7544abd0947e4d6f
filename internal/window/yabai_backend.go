package window

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/model"
)

// YabaiBackend implements the Provider interface on top of `yabai -m`
type YabaiBackend struct {
	cli
}

type yabaiSpace struct {
	ID       int    `json:"id"`
	Index    int    `json:"index"`
	Label    string `json:"label"`
	HasFocus bool   `json:"has-focus"`
}

type yabaiWindow struct {
	ID          int    `json:"id"`
	App         string `json:"app"`
	Title       string `json:"title"`
	Space       int    `json:"space"`
	HasFocus    bool   `json:"has-focus"`
	IsHidden    bool   `json:"is-hidden"`
	IsMinimized bool   `json:"is-minimized"`
	IsFloating  bool   `json:"is-floating"`
	IsSticky    bool   `json:"is-sticky"`
}

// tiled reports whether the window belongs to exactly one space in the bar.
func (w yabaiWindow) tiled() bool {
	return !(w.IsHidden || w.IsMinimized || w.IsFloating || w.IsSticky)
}

func (w yabaiWindow) record() windowRecord {
	rec := windowRecord{ID: w.ID, App: w.App, Title: w.Title}
	if w.Space > 0 {
		rec.Workspace = strconv.Itoa(w.Space)
	}
	return rec
}

// NewYabaiBackend creates a yabai client. path may be empty to look up
// "yabai" on $PATH.
func NewYabaiBackend(path string, runner Runner) *YabaiBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &YabaiBackend{cli{
		path:   ResolveExecutable(path, "yabai"),
		runner: runner,
		log:    logger.WithComponent("yabai"),
	}}
}

// Name returns the backend name
func (b *YabaiBackend) Name() string {
	return "yabai"
}

// Executable returns the resolved yabai path
func (b *YabaiBackend) Executable() string {
	return b.path
}

// SpacesWithWindows runs one query round against yabai
func (b *YabaiBackend) SpacesWithWindows(ctx context.Context) ([]model.Space, error) {
	spaces, err := query[[]yabaiSpace](ctx, &b.cli, "spaces", "-m", "query", "--spaces")
	if err != nil {
		return nil, err
	}
	windows, err := query[[]yabaiWindow](ctx, &b.cli, "windows", "-m", "query", "--windows")
	if err != nil {
		return nil, err
	}

	parts := snapshotParts{Spaces: make([]string, 0, len(spaces))}
	for _, s := range spaces {
		parts.Spaces = append(parts.Spaces, strconv.Itoa(s.Index))
	}
	for _, w := range windows {
		if w.tiled() {
			parts.Windows = append(parts.Windows, w.record())
		}
	}

	if focused, err := query[yabaiSpace](ctx, &b.cli, "focused space", "-m", "query", "--spaces", "--space"); err == nil && focused.Index > 0 {
		id := strconv.Itoa(focused.Index)
		parts.FocusedSpace = &id
	}
	if focused, err := query[yabaiWindow](ctx, &b.cli, "focused window", "-m", "query", "--windows", "--window"); err == nil && focused.ID != 0 {
		id := focused.ID
		parts.FocusedWindow = &id
	}

	return assemble(parts), nil
}

// FocusSpace switches to a space and optionally focuses a window in it
func (b *YabaiBackend) FocusSpace(ctx context.Context, spaceID string, needWindowFocus bool) error {
	if _, err := b.run(ctx, "-m", "space", "--focus", spaceID); err != nil {
		return err
	}
	if !needWindowFocus {
		return nil
	}

	windows, err := query[[]yabaiWindow](ctx, &b.cli, "space windows", "-m", "query", "--windows", "--space", spaceID)
	if err != nil {
		return err
	}
	target := 0
	for _, w := range windows {
		if !w.tiled() {
			continue
		}
		if w.HasFocus {
			return nil
		}
		if target == 0 || w.ID < target {
			target = w.ID
		}
	}
	if target == 0 {
		return nil
	}
	return b.FocusWindow(ctx, target)
}

// FocusWindow focuses a window by id
func (b *YabaiBackend) FocusWindow(ctx context.Context, windowID int) error {
	if _, err := b.run(ctx, "-m", "window", "--focus", strconv.Itoa(windowID)); err != nil {
		return fmt.Errorf("focus window %d: %w", windowID, err)
	}
	return nil
}
