// Package config loads, saves and watches the YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned by GetKey/SetKey for keys not in Config.
var ErrUnknownKey = errors.New("unknown config key")

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex

	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	done     chan struct{}
}

// DefaultConfigDir is ~/.config/spacebar.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "spacebar"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		configDir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		actualConfigPath = filepath.Join(configDir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(actualConfigPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = m.defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("provider", m.config.Provider).
		Msg("Config loaded")

	return m, nil
}

func (m *Manager) defaults() *Config {
	return Defaults(m.GetConfigDir())
}

func (m *Manager) load() error {
	cfg, err := m.read()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// read parses the file over the defaults, so absent keys keep defaults.
func (m *Manager) read() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, err
	}
	cfg := m.defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return m.defaults()
	}
	cfg := *m.config
	return &cfg
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = m.defaults()
	}

	log := logger.WithComponent("config")
	log.Debug().Str("path", m.configPath).Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		log.Error().Err(err).Str("config_dir", configDir).Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config")
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		log.Error().Err(err).Str("path", m.configPath).Msg("Failed to write config")
		return err
	}

	log.Info().Str("path", m.configPath).Msg("Config saved successfully")
	return nil
}

// Update validates and replaces the entire configuration.
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}

// viper loads the current configuration into a fresh viper instance.
func (m *Manager) viper() (*viper.Viper, error) {
	data, err := yaml.Marshal(m.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to load config into viper: %w", err)
	}
	return v, nil
}

// Keys lists every settable dotted key.
func (m *Manager) Keys() []string {
	v, err := m.viper()
	if err != nil {
		return nil
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// GetKey returns the value of a dotted key such as refresh.settle_delay.
func (m *Manager) GetKey(key string) (any, error) {
	v, err := m.viper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v.Get(key), nil
}

// SetKey parses value for key, validates the result and saves it.
func (m *Manager) SetKey(key, value string) error {
	v, err := m.viper()
	if err != nil {
		return err
	}
	if !v.IsSet(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v.Set(key, value)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return m.Update(&cfg)
}
