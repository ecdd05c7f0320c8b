package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/config"
)

// Reloader is a data source that can reread its files.
type Reloader interface {
	Reload() error
}

// RegisterReloadHooks makes every config change reapply the log level and
// reload the named sources. Each outcome is recorded in m.
func RegisterReloadHooks(h *config.Holder, sources map[string]Reloader, m *metrics.Collector, logger zerolog.Logger) {
	h.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}

		var failed error
		for name, src := range sources {
			if err := src.Reload(); err != nil {
				logger.Error().Err(err).Str("source", name).Msg("reload failed, keeping previous data")
				failed = err
				continue
			}
			logger.Debug().Str("source", name).Msg("reloaded")
		}
		m.Reloaded(failed)
	})

	logger.Debug().Int("sources", len(sources)).Msg("reload hooks registered")
}
