package config

import (
	"path/filepath"
	"time"
)

// Config is the on-disk configuration.
type Config struct {
	LogLevel   string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	ServerPort int    `json:"server_port" yaml:"server_port" mapstructure:"server_port"`

	// Provider is auto, yabai, aerospace or none.
	Provider  string         `json:"provider" yaml:"provider" mapstructure:"provider"`
	Yabai     ProviderConfig `json:"yabai" yaml:"yabai" mapstructure:"yabai"`
	Aerospace ProviderConfig `json:"aerospace" yaml:"aerospace" mapstructure:"aerospace"`

	Refresh RefreshConfig `json:"refresh" yaml:"refresh" mapstructure:"refresh"`
	Icons   IconConfig    `json:"icons" yaml:"icons" mapstructure:"icons"`
}

// ProviderConfig locates a window manager CLI.
type ProviderConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// RefreshConfig holds the tracker's timing knobs.
type RefreshConfig struct {
	FallbackInterval time.Duration `json:"fallback_interval" yaml:"fallback_interval" mapstructure:"fallback_interval"`
	SettleDelay      time.Duration `json:"settle_delay" yaml:"settle_delay" mapstructure:"settle_delay"`
	PermissionPoll   time.Duration `json:"permission_poll" yaml:"permission_poll" mapstructure:"permission_poll"`
	CommandTimeout   time.Duration `json:"command_timeout" yaml:"command_timeout" mapstructure:"command_timeout"`
	// WindowFocusDelay separates switching to a space from focusing a window in it.
	WindowFocusDelay time.Duration `json:"window_focus_delay" yaml:"window_focus_delay" mapstructure:"window_focus_delay"`
}

// IconConfig controls icon lookup.
type IconConfig struct {
	Dir          string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Size         int    `json:"size" yaml:"size" mapstructure:"size"`
	BundleLookup bool   `json:"bundle_lookup" yaml:"bundle_lookup" mapstructure:"bundle_lookup"`
}

// Defaults returns the default configuration rooted at configDir.
func Defaults(configDir string) *Config {
	return &Config{
		LogLevel:   "info",
		ServerPort: 7465,
		Provider:   "auto",
		Yabai:      ProviderConfig{Path: "/opt/homebrew/bin/yabai"},
		Aerospace:  ProviderConfig{Path: "/opt/homebrew/bin/aerospace"},
		Refresh: RefreshConfig{
			FallbackInterval: 30 * time.Second,
			SettleDelay:      100 * time.Millisecond,
			PermissionPoll:   2 * time.Second,
			CommandTimeout:   3 * time.Second,
			WindowFocusDelay: 100 * time.Millisecond,
		},
		Icons: IconConfig{
			Dir:          filepath.Join(configDir, "icons"),
			Size:         32,
			BundleLookup: true,
		},
	}
}
