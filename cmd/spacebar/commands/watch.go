package commands

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/SpaceBar/internal/focus"
	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/tracker"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every published snapshot as a JSON line",
	Long: `Run the tracker in the foreground and write each published space model
to stdout as one JSON document per line, until interrupted.`,
	Example: `  # Stream snapshots
  spacebar watch

  # Pipe to jq
  spacebar watch | jq '.[] | select(.focused)'`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := selectProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	engine := tracker.New(provider, tracker.Options{
		FallbackInterval: cfg.Refresh.FallbackInterval,
		SettleDelay:      cfg.Refresh.SettleDelay,
		WindowFocusDelay: cfg.Refresh.WindowFocusDelay,
	})
	defer engine.Stop()

	if ax, err := focus.NewSystemAccessibility(); err == nil {
		engine.AttachObserver(focus.NewObserver(ax, engine.Signal, focus.Options{
			PermissionPoll: cfg.Refresh.PermissionPoll,
		}))
	} else {
		logger.WithComponent("watch").Warn().Err(err).Msg("Focus events unavailable, relying on fallback refresh")
	}

	updates := engine.Subscribe()
	engine.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-sigChan:
			return nil
		case spaces, ok := <-updates:
			if !ok {
				return nil
			}
			if err := encoder.Encode(spaces); err != nil {
				return err
			}
		}
	}
}
