package window

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/model"
)

// aerospaceWindowFormat requests the fields assembly needs from list-windows
const aerospaceWindowFormat = "%{window-id} %{app-name} %{window-title} %{workspace}"

// AerospaceBackend implements the Provider interface on top of the aerospace CLI
type AerospaceBackend struct {
	cli
}

type aerospaceWorkspace struct {
	Workspace string `json:"workspace"`
}

type aerospaceWindow struct {
	ID        int    `json:"window-id"`
	App       string `json:"app-name"`
	Title     string `json:"window-title"`
	Workspace string `json:"workspace"`
}

// NewAerospaceBackend creates an AeroSpace client. path may be empty to
// look up "aerospace" on $PATH.
func NewAerospaceBackend(path string, runner Runner) *AerospaceBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &AerospaceBackend{cli{
		path:   ResolveExecutable(path, "aerospace"),
		runner: runner,
		log:    logger.WithComponent("aerospace"),
	}}
}

// Name returns the backend name
func (b *AerospaceBackend) Name() string {
	return "aerospace"
}

// Executable returns the resolved aerospace path
func (b *AerospaceBackend) Executable() string {
	return b.path
}

// SpacesWithWindows runs one query round against AeroSpace
func (b *AerospaceBackend) SpacesWithWindows(ctx context.Context) ([]model.Space, error) {
	workspaces, err := query[[]aerospaceWorkspace](ctx, &b.cli, "workspaces",
		"list-workspaces", "--all", "--json")
	if err != nil {
		return nil, err
	}
	windows, err := query[[]aerospaceWindow](ctx, &b.cli, "windows",
		"list-windows", "--all", "--json", "--format", aerospaceWindowFormat)
	if err != nil {
		return nil, err
	}

	parts := snapshotParts{Spaces: make([]string, 0, len(workspaces))}
	for _, ws := range workspaces {
		parts.Spaces = append(parts.Spaces, ws.Workspace)
	}
	for _, w := range windows {
		parts.Windows = append(parts.Windows, windowRecord{
			ID:        w.ID,
			App:       w.App,
			Title:     w.Title,
			Workspace: w.Workspace,
		})
	}

	// Fetched once and reused for untagged windows
	if focused, err := query[[]aerospaceWorkspace](ctx, &b.cli, "focused workspace",
		"list-workspaces", "--focused", "--json"); err == nil && len(focused) > 0 {
		id := focused[0].Workspace
		parts.FocusedSpace = &id
	}
	if focused, err := query[[]aerospaceWindow](ctx, &b.cli, "focused window",
		"list-windows", "--focused", "--json"); err == nil && len(focused) > 0 {
		id := focused[0].ID
		parts.FocusedWindow = &id
	}

	return assemble(parts), nil
}

// FocusSpace switches to a workspace. AeroSpace focuses the workspace's
// last-used window itself, so needWindowFocus needs no extra command.
func (b *AerospaceBackend) FocusSpace(ctx context.Context, spaceID string, needWindowFocus bool) error {
	if _, err := b.run(ctx, "workspace", spaceID); err != nil {
		return fmt.Errorf("focus workspace %s: %w", spaceID, err)
	}
	return nil
}

// FocusWindow focuses a window by id
func (b *AerospaceBackend) FocusWindow(ctx context.Context, windowID int) error {
	if _, err := b.run(ctx, "focus", "--window-id", strconv.Itoa(windowID)); err != nil {
		return fmt.Errorf("focus window %d: %w", windowID, err)
	}
	return nil
}
