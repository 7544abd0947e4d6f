package config

import (
	"errors"
	"fmt"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validProviders = map[string]bool{"auto": true, "yabai": true, "aerospace": true, "none": true}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port %d out of range 1-65535", c.ServerPort))
	}
	if !validLevels[c.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if !validProviders[c.Provider] {
		errs = append(errs, fmt.Errorf("provider %q must be one of auto, yabai, aerospace, none", c.Provider))
	}

	durations := []struct {
		key string
		val int64
	}{
		{"refresh.fallback_interval", int64(c.Refresh.FallbackInterval)},
		{"refresh.settle_delay", int64(c.Refresh.SettleDelay)},
		{"refresh.permission_poll", int64(c.Refresh.PermissionPoll)},
		{"refresh.command_timeout", int64(c.Refresh.CommandTimeout)},
		{"refresh.window_focus_delay", int64(c.Refresh.WindowFocusDelay)},
	}
	for _, d := range durations {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.key))
		}
	}
	if c.Icons.Size <= 0 {
		errs = append(errs, fmt.Errorf("icons.size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
