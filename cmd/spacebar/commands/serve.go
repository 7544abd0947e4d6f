package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/api"
	"github.com/bryanchriswhite/SpaceBar/internal/config"
	"github.com/bryanchriswhite/SpaceBar/internal/focus"
	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/tracker"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SpaceBar tracker and API server",
	Long: `Start tracking spaces and windows and serve them over HTTP.

The tracker refreshes on accessibility focus events, on a fallback timer and
after every space or window switch. The API exposes the current model, a
WebSocket stream of updates and focus actions.`,
	Example: `  # Start server on default port (7465)
  spacebar serve

  # Start server on custom port
  spacebar serve --port 9090

  # Start with debug logging
  spacebar serve --log-level debug --pretty`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("path", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := selectProvider(ctx, cfg)
	if err != nil {
		return err
	}

	icons := newIconService(cfg)
	engine := tracker.New(provider, tracker.Options{
		FallbackInterval: cfg.Refresh.FallbackInterval,
		SettleDelay:      cfg.Refresh.SettleDelay,
		WindowFocusDelay: cfg.Refresh.WindowFocusDelay,
		Icons:            icons,
	})
	defer engine.Stop()

	ax, err := focus.NewSystemAccessibility()
	if err != nil {
		log.Warn().Err(err).Msg("Focus events unavailable, relying on fallback refresh")
	} else {
		engine.AttachObserver(focus.NewObserver(ax, engine.Signal, focus.Options{
			PermissionPoll: cfg.Refresh.PermissionPoll,
		}))
	}
	engine.Start()

	configMgr.OnChange(func(next *config.Config) {
		next = applyFlagOverrides(next)
		logger.SetLevel(next.LogLevel)
		engine.SetFallbackInterval(next.Refresh.FallbackInterval)
		icons.Forget()
	})
	if err := configMgr.Watch(); err != nil {
		log.Warn().Err(err).Msg("Config hot reload disabled")
	}
	defer configMgr.Close()

	server := api.NewServer(engine, icons, configMgr)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Str("provider", engine.ProviderName()).
		Str("api", fmt.Sprintf("http://localhost:%d/api", cfg.ServerPort)).
		Msg("SpaceBar is running, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
