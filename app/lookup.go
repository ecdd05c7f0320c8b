package app

import (
	"context"
	"fmt"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/domain/lookup"
)

// LookupService dispatches a request to the service of its kind.
// It holds no state of its own and is safe for concurrent use.
type LookupService struct {
	Models  *ModelService
	Enums   *EnumService
	Configs *ConfigService
	Metrics *metrics.Collector
}

// Lookup runs a decoded request. Tables without specs return the catalog;
// enums without specs return every registered enum.
func (s *LookupService) Lookup(ctx context.Context, req lookup.Request) (result any, err error) {
	done := s.Metrics.Begin(string(req.Kind))
	defer func() { done(err) }()

	switch req.Kind {
	case lookup.KindTables:
		if req.Tables == nil {
			return s.Models.Catalog(ctx), nil
		}
		return s.Models.Lookup(ctx, req.Tables), nil
	case lookup.KindEnums:
		return s.Enums.Lookup(ctx, req.Enums)
	case lookup.KindConfigs:
		if len(req.Configs) == 0 {
			return nil, fmt.Errorf("%w: the configs key is required and must be a non-empty array", lookup.ErrValidation)
		}
		return s.Configs.Lookup(ctx, req.Configs), nil
	}
	return nil, fmt.Errorf("%w: unknown request kind %q", lookup.ErrValidation, req.Kind)
}

// LookupJSON decodes and runs a request body.
func (s *LookupService) LookupJSON(ctx context.Context, body []byte) (any, error) {
	req, err := lookup.ParseRequest(body)
	if err != nil {
		return nil, err
	}
	return s.Lookup(ctx, req)
}
