package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/window"
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Switch to a space or window",
	Long:  `Ask the window manager to focus a space or a window.`,
}

var focusSpaceCmd = &cobra.Command{
	Use:   "space ID",
	Short: "Focus a space",
	Example: `  # Switch to space 2
  spacebar focus space 2

  # Switch to space 2 and make sure one of its windows has focus
  spacebar focus space 2 --window`,
	Args: cobra.ExactArgs(1),
	RunE: runFocusSpace,
}

var focusWindowCmd = &cobra.Command{
	Use:   "window ID",
	Short: "Focus a window",
	Long: `Focus a window by id. Window managers may ignore the request while the
window's space is not active; pass --space to switch there first.`,
	Example: `  # Focus window 4242 on the active space
  spacebar focus window 4242

  # Switch to space 3, then focus window 4242
  spacebar focus window 4242 --space 3`,
	Args: cobra.ExactArgs(1),
	RunE: runFocusWindow,
}

var (
	focusNeedWindow bool
	focusInSpace    string
)

func init() {
	rootCmd.AddCommand(focusCmd)
	focusCmd.AddCommand(focusSpaceCmd)
	focusCmd.AddCommand(focusWindowCmd)

	focusSpaceCmd.Flags().BoolVarP(&focusNeedWindow, "window", "w", false, "also focus a window in the space")
	focusWindowCmd.Flags().StringVarP(&focusInSpace, "space", "s", "", "switch to this space first")
}

func requireProvider(ctx context.Context) (window.Provider, time.Duration, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, 0, err
	}
	p, err := selectProvider(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	if p == nil {
		return nil, 0, window.ErrNoProvider
	}
	return p, cfg.Refresh.WindowFocusDelay, nil
}

func runFocusSpace(cmd *cobra.Command, args []string) error {
	p, _, err := requireProvider(cmd.Context())
	if err != nil {
		return err
	}
	if err := p.FocusSpace(cmd.Context(), args[0], focusNeedWindow); err != nil {
		return fmt.Errorf("focus space %s: %w", args[0], err)
	}
	return nil
}

func runFocusWindow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.New("window id must be an integer")
	}
	p, delay, err := requireProvider(cmd.Context())
	if err != nil {
		return err
	}

	if focusInSpace != "" {
		if err := p.FocusSpace(cmd.Context(), focusInSpace, false); err != nil {
			return fmt.Errorf("focus space %s: %w", focusInSpace, err)
		}
		time.Sleep(delay)
	}
	if err := p.FocusWindow(cmd.Context(), id); err != nil {
		return fmt.Errorf("focus window %d: %w", id, err)
	}
	return nil
}
