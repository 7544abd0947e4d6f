package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bryanchriswhite/SpaceBar/internal/config"
	"github.com/bryanchriswhite/SpaceBar/internal/icon"
	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/bryanchriswhite/SpaceBar/internal/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logPretty bool
	rootCmd   = &cobra.Command{
		Use:   "spacebar",
		Short: "SpaceBar - window manager spaces for the menu bar",
		Long: `SpaceBar tracks the spaces and windows of a tiling window manager
(yabai or AeroSpace) and serves them to a menu bar renderer.

Features:
  • Auto-detects the running window manager
  • Refreshes instantly on accessibility focus events
  • Falls back to periodic polling
  • Switches spaces and windows on request
  • Serves the model over HTTP and WebSocket`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := viper.GetString("log_level")
			if level == "" {
				level = "info"
			}
			logger.Init(level, logPretty)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/spacebar/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 7465)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human-readable log output")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file and applies flag overrides in memory.
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := applyFlagOverrides(configMgr.Get())
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return configMgr, cfg, nil
}

func applyFlagOverrides(cfg *config.Config) *config.Config {
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			cfg.ServerPort = port
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			cfg.LogLevel = level
		}
	}
	return cfg
}

// selectProvider returns nil without error when no window manager runs.
func selectProvider(ctx context.Context, cfg *config.Config) (window.Provider, error) {
	kind, err := window.ParseKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	p, err := window.Select(ctx, window.SelectOptions{
		Kind:          kind,
		YabaiPath:     cfg.Yabai.Path,
		AerospacePath: cfg.Aerospace.Path,
		Runner:        window.ExecRunner{Timeout: cfg.Refresh.CommandTimeout},
	})
	if errors.Is(err, window.ErrNoProvider) {
		return nil, nil
	}
	return p, err
}

func newIconService(cfg *config.Config) *icon.Service {
	return icon.NewService(icon.Options{
		Dir:          cfg.Icons.Dir,
		Size:         cfg.Icons.Size,
		BundleLookup: cfg.Icons.BundleLookup,
		Runner:       window.ExecRunner{Timeout: cfg.Refresh.CommandTimeout},
	})
}
