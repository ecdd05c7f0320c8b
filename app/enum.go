package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/domain/enum"
	"github.com/artpar/lookup/domain/lookup"
	"github.com/artpar/lookup/ports"
)

// EnumService lists enumerations.
//
// An enum name that does not resolve fails the whole request with
// lookup.ErrNotFound. A method that is unknown or fails yields an empty
// list for that entry only.
type EnumService struct {
	enums      *registry.Enums
	translator ports.Translator
	metrics    *metrics.Collector
	logger     zerolog.Logger
}

// NewEnumService creates a new enum lookup service.
func NewEnumService(enums *registry.Enums, translator ports.Translator, m *metrics.Collector, logger zerolog.Logger) *EnumService {
	return &EnumService{
		enums:      enums,
		translator: translator,
		metrics:    m,
		logger:     logger,
	}
}

// Lookup resolves every enum spec, or every registered enum when specs is
// nil. Results are keyed by the requested name.
func (s *EnumService) Lookup(ctx context.Context, specs []lookup.EnumSpec) (map[string]any, error) {
	if specs == nil {
		return s.all(ctx), nil
	}

	entries := make([]registry.EnumEntry, len(specs))
	for i, spec := range specs {
		e, err := s.enums.Lookup(spec.Module, spec.Name)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("enum", spec.Name).
				Str("module", spec.Module).
				Msg("enum not found")
			s.metrics.Item(string(lookup.KindEnums), metrics.OutcomeFailed)
			return nil, err
		}
		entries[i] = e
	}

	translate := s.translateFunc(ctx)
	result := make(map[string]any, len(specs))
	for i, spec := range specs {
		out, err := enum.Invoke(entries[i].Source, spec.Method, translate)
		if err != nil {
			s.logger.Error().Err(err).
				Str("enum", spec.Name).
				Str("method", spec.Method).
				Msg("enum method failed")
			s.metrics.Item(string(lookup.KindEnums), metrics.OutcomeFailed)
			result[spec.Name] = []enum.Entry{}
			continue
		}
		s.metrics.Item(string(lookup.KindEnums), metrics.OutcomeOK)
		result[spec.Name] = out
	}
	return result, nil
}

// all lists every registered enum keyed by its derived key. Module enums
// replace default ones with the same key.
func (s *EnumService) all(ctx context.Context) map[string]any {
	translate := s.translateFunc(ctx)
	list := s.enums.List()
	result := make(map[string]any, len(list))
	for _, e := range list {
		result[e.Key] = enum.List(e.Source, translate)
	}
	return result
}

// Resolve maps a value or case name of an enum to its label.
func (s *EnumService) Resolve(ctx context.Context, module, name string, value any, trans bool) (any, error) {
	e, err := s.enums.Lookup(module, name)
	if err != nil {
		return nil, err
	}
	return enum.Resolve(e.Source, value, trans, s.translateFunc(ctx)), nil
}

func (s *EnumService) translateFunc(ctx context.Context) enum.TranslateFunc {
	if s.translator == nil {
		return nil
	}
	return func(key string) (string, bool) {
		return s.translator.Translate(ctx, key)
	}
}
