package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/SpaceBar/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// OnChange registers a callback to be invoked after a successful reload.
// Register callbacks before calling Watch.
func (m *Manager) OnChange(cb func(*Config)) {
	m.mu.Lock()
	m.onChange = append(m.onChange, cb)
	m.mu.Unlock()
}

// Watch reloads the configuration whenever the file changes on disk.
func (m *Manager) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Editors replace files, so watch the directory.
	if err := watcher.Add(m.GetConfigDir()); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	m.mu.Lock()
	m.watcher = watcher
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.watchLoop(watcher, m.done)
	return nil
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	log := logger.WithComponent("config")
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(m.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, m.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (m *Manager) reload() {
	log := logger.WithComponent("config")

	cfg, err := m.read()
	if err != nil {
		log.Warn().Err(err).Str("path", m.configPath).Msg("Ignoring config change")
		return
	}

	m.mu.Lock()
	m.config = cfg
	callbacks := append([]func(*Config){}, m.onChange...)
	m.mu.Unlock()

	log.Info().Str("path", m.configPath).Msg("Config reloaded")
	for _, cb := range callbacks {
		c := *cfg
		cb(&c)
	}
}

// Close stops watching.
func (m *Manager) Close() error {
	m.mu.Lock()
	watcher := m.watcher
	done := m.done
	m.watcher = nil
	m.done = nil
	m.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(done)
	return watcher.Close()
}
