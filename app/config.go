package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/domain/allowlist"
	"github.com/artpar/lookup/domain/lookup"
	"github.com/artpar/lookup/ports"
)

// ConfigService exposes allow-listed configuration values. Anything not
// allow-listed comes back empty, never as an error.
type ConfigService struct {
	source   ports.ConfigSource
	settings SettingsFunc
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// NewConfigService creates a new config lookup service.
func NewConfigService(source ports.ConfigSource, settings SettingsFunc, m *metrics.Collector, logger zerolog.Logger) *ConfigService {
	return &ConfigService{
		source:   source,
		settings: settings,
		metrics:  m,
		logger:   logger,
	}
}

// Lookup resolves every config spec. Specs without a name are skipped.
func (s *ConfigService) Lookup(ctx context.Context, specs []lookup.ConfigSpec) map[string]any {
	list := s.settings().AllowedConfigs
	result := make(map[string]any, len(specs))

	for i, spec := range specs {
		if spec.Name == "" {
			s.logger.Warn().Int("index", i).Msg("skipped a config without a name")
			continue
		}
		result[spec.Name] = s.lookupOne(list, spec)
	}

	return result
}

func (s *ConfigService) lookupOne(list allowlist.List, spec lookup.ConfigSpec) (out map[string]any) {
	kind := string(lookup.KindConfigs)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("config", spec.Name).Msg("config lookup failed")
			s.metrics.Item(kind, metrics.OutcomeFailed)
			out = map[string]any{}
		}
	}()

	d := list.Check(spec.Name, spec.Keys, spec.HasKeys)
	if !d.Allowed {
		s.logger.Warn().Str("config", spec.Name).Strs("keys", spec.Keys).Msg("config blocked by allow-list")
		s.metrics.Item(kind, metrics.OutcomeDenied)
		return map[string]any{}
	}

	tree, ok := s.source.Namespace(spec.Name)
	if !ok || len(tree) == 0 {
		s.logger.Warn().Str("config", spec.Name).Msg("config not found or empty")
		s.metrics.Item(kind, metrics.OutcomeOK)
		return map[string]any{}
	}

	s.metrics.Item(kind, metrics.OutcomeOK)
	return allowlist.Filter(d, tree, s.source.Value)
}
