package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder provides thread-safe access to configuration with hot reload support.
// Reloads swap the whole *Config; callers must treat snapshots as read-only.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder creates a new config holder and loads the initial configuration.
// An empty or missing path falls back to the environment.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := LoadWithFallback(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewHolderWith(cfg, path, logger)
}

// NewHolderWith wraps an already loaded configuration read from path. With
// an empty path Reload keeps cfg and still notifies listeners.
func NewHolderWith(cfg *Config, path string, logger zerolog.Logger) (*Holder, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
		path = abs
	}

	return &Holder{
		config: cfg,
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the absolute config file path, empty when none is used.
func (h *Holder) Path() string {
	return h.path
}

// Reload reloads the configuration from disk.
// Returns error if loading fails (keeps old config).
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	newCfg := h.Get()
	if h.path != "" {
		cfg, err := LoadWithFallback(h.path)
		if err != nil {
			h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
			return fmt.Errorf("reload config: %w", err)
		}
		newCfg = cfg
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)

	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Watch starts watching the config file and the given data directories.
// A change to the file or to any file below a directory triggers a reload.
// Directories that do not exist are skipped.
func (h *Holder) Watch(dirs ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	var watched []string
	if h.path != "" {
		// The directory is watched so editors doing atomic saves are seen.
		if err := watcher.Add(filepath.Dir(h.path)); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory: %w", err)
		}
	}
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(abs); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory %s: %w", abs, err)
		}
		watched = append(watched, abs)
	}

	go h.watchLoop(watched)

	h.logger.Info().Str("path", h.path).Strs("dirs", watched).Msg("watching configuration for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop(dirs []string) {
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !h.relevant(event.Name, dirs) {
				continue
			}

			// React to write or create (atomic save = create) and removals in data dirs.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("configuration changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

// relevant reports whether a changed file is the config file or lives in
// a watched data directory.
func (h *Holder) relevant(name string, dirs []string) bool {
	if h.path != "" && filepath.Clean(name) == h.path {
		return true
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	dir := filepath.Dir(filepath.Clean(name))
	for _, d := range dirs {
		if dir == d {
			return true
		}
	}
	return false
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if len(old.Lookup.AllowedConfigs) != len(new.Lookup.AllowedConfigs) {
		h.logger.Info().
			Int("old", len(old.Lookup.AllowedConfigs)).
			Int("new", len(new.Lookup.AllowedConfigs)).
			Msg("allowed config namespaces changed")
	}

	if len(old.Lookup.RootExcluded) != len(new.Lookup.RootExcluded) {
		h.logger.Info().
			Strs("old", old.Lookup.RootExcluded).
			Strs("new", new.Lookup.RootExcluded).
			Msg("root exclusions changed")
	}

	if old.Lookup.PerPage != new.Lookup.PerPage || old.Lookup.MaxPerPage != new.Lookup.MaxPerPage {
		h.logger.Info().
			Int("old", old.Lookup.PerPage).
			Int("new", new.Lookup.PerPage).
			Int("max", new.Lookup.MaxPerPage).
			Msg("page size changed")
	}
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"lookup.allowed_configs",
		"lookup.root_excluded",
		"lookup.per_page",
		"lookup.max_per_page",
		"lookup.config_dir contents",
		"lookup.translations_dir contents",
		"logging.level",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"database.driver",
		"database.dsn",
		"lookup.entities_dir",
		"lookup.enums_dir",
		"lookup.modules_dir",
	}
}
