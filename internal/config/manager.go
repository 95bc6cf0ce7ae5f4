package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"linkstash/pkg/logging"
)

// DefaultDebounceInterval is the time to wait after the last file change
// before reloading.
const DefaultDebounceInterval = 200 * time.Millisecond

// Manager holds the effective configuration and keeps it in sync with the
// config file. It is safe for concurrent use; BaseURL is read on every
// backend request.
type Manager struct {
	mu  sync.RWMutex
	dir string
	cfg Config

	onChange []func(Config)

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewManager loads the configuration from configDir.
func NewManager(configDir string) (*Manager, error) {
	cfg, err := LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	return &Manager{dir: configDir, cfg: cfg}, nil
}

// Config returns a copy of the effective configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the config file path.
func (m *Manager) Path() string {
	return ConfigFilePath(m.dir)
}

// BaseURL returns the current backend base URL.
func (m *Manager) BaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.BaseURL
}

// SetBaseURL persists a new base URL. An empty value restores the default.
// A LINKSTASH_BASE_URL override still wins over the saved value.
func (m *Manager) SetBaseURL(raw string) error {
	baseURL := NormalizeBaseURL(raw)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := ValidateBaseURL(baseURL); err != nil {
		return err
	}

	fileCfg, err := loadFile(m.dir)
	if err != nil {
		return err
	}
	fileCfg.BaseURL = baseURL

	if err := SaveConfig(m.dir, fileCfg); err != nil {
		return err
	}

	logging.Info("ConfigManager", "Base URL set to %s", baseURL)
	return m.Reload()
}

// OnChange registers fn to run after every successful reload.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Reload re-reads the file and environment. On error the previous
// configuration stays in effect.
func (m *Manager) Reload() error {
	cfg, err := LoadConfig(m.dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg = cfg
	callbacks := append([]func(Config){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever config.yaml changes, until ctx
// is done. It returns once the watcher is running.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(m.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", m.dir, err)
	}

	go m.processEvents(ctx, watcher)

	logging.Debug("ConfigManager", "Watching %s for changes", m.Path())
	return nil
}

func (m *Manager) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			m.debounceMu.Lock()
			if m.debounceTimer != nil {
				m.debounceTimer.Stop()
			}
			m.debounceMu.Unlock()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logging.Debug("ConfigManager", "Config file changed: %s", event.Name)
			m.reloadDebounced()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigManager", err, "fsnotify error")
		}
	}
}

func (m *Manager) reloadDebounced() {
	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		if err := m.Reload(); err != nil {
			logging.Warn("ConfigManager", "Keeping previous configuration: %v", err)
		}
	})
}
