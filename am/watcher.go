package am

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// ConfigWatcher watches a config file and triggers reload callbacks.
// The parent directory is watched so editors that save by rename are seen.
type ConfigWatcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	loader         func() (*Config, error)
	done           chan struct{}
}

// ReloadCallback is called with the new config after a successful reload
type ReloadCallback func(*Config) error

// NewConfigWatcher creates a watcher for configPath. The file is re-read with
// LoadFromFile on every change.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve config path %s", configPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch config directory for %s", abs)
	}

	return &ConfigWatcher{
		configPath:     abs,
		watcher:        watcher,
		debouncePeriod: DefaultDebounce,
		loader:         func() (*Config, error) { return LoadFromFile(abs) },
		done:           make(chan struct{}),
	}, nil
}

// SetDebounce changes the debounce period. Call before Start.
func (cw *ConfigWatcher) SetDebounce(d time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debouncePeriod = d
}

// SetLoader replaces how the file is re-read, e.g. with Reload to keep the
// full cascade. Call before Start.
func (cw *ConfigWatcher) SetLoader(loader func() (*Config, error)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.loader = loader
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watchLoop() {
	log := logger.ComponentLogger("am")
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.configPath || isBackupFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			log.Debugw("Config watcher detected change",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("Config watcher error", logger.FieldError, err)

		case <-cw.done:
			return
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			logger.ComponentLogger("am").Errorw("Config reload failed", logger.FieldError, err)
		}
	})
}

// reload re-reads and validates the file, then calls every callback.
// An invalid file leaves the running configuration untouched.
func (cw *ConfigWatcher) reload() error {
	newConfig, err := cw.loader()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := newConfig.Validate(); err != nil {
		return errors.Wrapf(err, "ignoring invalid config %s", cw.configPath)
	}

	logger.ComponentLogger("am").Infow("Config reloaded", logger.FieldFile, cw.configPath)

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(newConfig); err != nil {
			// Continue calling other callbacks even if one fails
			logger.ComponentLogger("am").Warnw("Config reload callback error", logger.FieldError, err)
		}
	}

	return nil
}

// Stop stops watching for config changes
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.mu.Unlock()

	select {
	case <-cw.done:
	default:
		close(cw.done)
	}
	return cw.watcher.Close()
}

// isBackupFile reports editor and rotation leftovers (am.toml.back1, am.toml~)
func isBackupFile(path string) bool {
	base := filepath.Base(path)
	return strings.Contains(base, ".back") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
