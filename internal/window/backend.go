package window

import (
	"context"

	"github.com/bryanchriswhite/SpaceBar/internal/model"
)

// Provider defines the interface for external window-manager clients (yabai, AeroSpace)
type Provider interface {
	// SpacesWithWindows returns one complete snapshot. Any failure of the
	// space or window listing is returned as an error; the caller treats
	// it as "no snapshot". Returned spaces are not sorted.
	SpacesWithWindows(ctx context.Context) ([]model.Space, error)

	// FocusSpace asks the window manager to activate a space. When
	// needWindowFocus is set, a window inside the space is focused too.
	FocusSpace(ctx context.Context, spaceID string, needWindowFocus bool) error

	// FocusWindow asks the window manager to focus a window. The window's
	// space should already be active.
	FocusWindow(ctx context.Context, windowID int) error

	// Name returns the provider name (e.g., "yabai", "aerospace")
	Name() string

	// Executable returns the resolved CLI path used for queries
	Executable() string
}
