package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/extractd/internal/providers"
)

// WatchCatalog watches the model catalog file for changes and reloads it
// in place, notifying every OnCatalogChange callback with the fresh
// catalog. A malformed reload is logged and the previous catalog is kept,
// since a running pipeline must not be left without a usable registry.
func (m *Manager) WatchCatalog(logger *slog.Logger) (*fsnotify.Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(m.catalogPath); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				m.reloadCatalog(logger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config: catalog watcher error", "error", err)
			}
		}
	}()

	return watcher, nil
}

func (m *Manager) reloadCatalog(logger *slog.Logger) {
	catalog, err := loadCatalogFile(m.catalogPath)
	if err != nil {
		logger.Warn("config: failed to reload model catalog, keeping previous catalog", "path", m.catalogPath, "error", err)
		return
	}

	m.mu.Lock()
	m.catalog = catalog
	callbacks := make([]func(*providers.ModelCatalog), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	logger.Info("config: reloaded model catalog", "path", m.catalogPath)
	for _, fn := range callbacks {
		fn(catalog)
	}
}
