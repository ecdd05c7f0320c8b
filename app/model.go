// Package app contains the lookup services: table records, enumerations and
// allow-listed configuration values, and the façade dispatching between
// them.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/core/storage"
	"github.com/artpar/lookup/domain/lookup"
	"github.com/artpar/lookup/pkg/paging"
	"github.com/artpar/lookup/ports"
)

// ModelService fetches and shapes entity records.
// Failures are isolated per request item: a failing table yields an empty
// list and never affects its siblings.
type ModelService struct {
	entities   *registry.Entities
	store      ports.EntityStore
	translator ports.Translator
	settings   SettingsFunc
	metrics    *metrics.Collector
	logger     zerolog.Logger
}

// NewModelService creates a new model lookup service.
func NewModelService(
	entities *registry.Entities,
	store ports.EntityStore,
	translator ports.Translator,
	settings SettingsFunc,
	m *metrics.Collector,
	logger zerolog.Logger,
) *ModelService {
	return &ModelService{
		entities:   entities,
		store:      store,
		translator: translator,
		settings:   settings,
		metrics:    m,
		logger:     logger,
	}
}

// Lookup resolves every table spec. The result maps each spec name to a
// list of records, or to a paginated result when the spec asks for one.
func (s *ModelService) Lookup(ctx context.Context, specs []lookup.TableSpec) map[string]any {
	settings := s.settings()
	result := make(map[string]any, len(specs))

	for _, spec := range specs {
		out, err := s.lookupOne(ctx, spec, settings)
		if err != nil {
			s.logger.Error().Err(err).
				Str("table", spec.Name).
				Str("module", spec.Module).
				Msg("table lookup failed")
			s.metrics.Item(string(lookup.KindTables), metrics.OutcomeFailed)
			result[spec.Name] = []lookup.OutputRecord{}
			continue
		}
		s.metrics.Item(string(lookup.KindTables), metrics.OutcomeOK)
		result[spec.Name] = out
	}

	return result
}

func (s *ModelService) lookupOne(ctx context.Context, spec lookup.TableSpec, settings Settings) (any, error) {
	ent, err := s.entities.Lookup(spec.Module, spec.Name)
	if err != nil {
		return nil, err
	}

	columns, err := s.store.Columns(ctx, ent.Table)
	if err != nil {
		return nil, err
	}

	selection := lookup.SelectFields(spec.Extra, columns, ent.Source.NameFields, ent.Source.NameSource)

	q := storage.NewQuery(ent.Table).Select(selection...)
	s.applyScopes(ent, q, spec, columns, settings)
	s.applySearch(ent, q, spec.Search, selection, columns)
	if contains(columns, lookup.IDField) {
		q.OrderBy(lookup.IDField, false)
	}

	opts := lookup.TransformOptions{
		NameSource:     ent.Source.NameSource,
		Translatable:   ent.IsTranslatable,
		Locale:         s.locale(ctx),
		FallbackLocale: s.fallbackLocale(),
	}

	if spec.Paginate {
		perPage := spec.PerPage
		if perPage == 0 {
			perPage = settings.PerPage
		}
		p := paging.New(0, spec.Page, perPage, settings.MaxPerPage, spec.BaseURL)

		rows, total, err := s.store.Paginate(ctx, q, p.Limit(), p.Offset())
		if err != nil {
			return nil, err
		}
		p.Total = total
		return lookup.NewPaginatedResult(transform(rows, selection, opts), p), nil
	}

	rows, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return transform(rows, selection, opts), nil
}

// applyScopes applies exclude_root for listed entities, then the requested
// scopes in order. Unknown and failing scopes are logged and skipped.
func (s *ModelService) applyScopes(ent *registry.Entity, q *storage.Query, spec lookup.TableSpec, columns []string, settings Settings) {
	if settings.rootExcluded(ent) {
		if fn, ok := ent.Scope(schema.ExcludeRootScope); ok {
			s.runScope(ent, q, schema.ExcludeRootScope, fn, nil, false, columns)
		}
	}

	for i, call := range spec.Scopes {
		fn, ok := ent.Scope(call.Name)
		if !ok {
			s.logger.Warn().Err(lookup.ErrUnknownScope).
				Str("entity", ent.Qualified()).
				Str("scope", call.Name).
				Msg("scope skipped")
			s.metrics.ScopeFailure(ent.Qualified(), "unknown")
			continue
		}
		arg, hasArg := spec.Values.Arg(call, i)
		s.runScope(ent, q, call.Name, fn, arg, hasArg, columns)
	}
}

// runScope invokes one scope. On failure the conditions it added are
// removed.
func (s *ModelService) runScope(ent *registry.Entity, q *storage.Query, name string, fn registry.ScopeFunc, arg any, hasArg bool, columns []string) {
	n := len(q.Where)
	err := callScope(fn, q, arg, hasArg)
	if err == nil {
		err = checkColumns(q.Where[n:], columns)
	}
	if err != nil {
		q.Where = q.Where[:n]
		s.logger.Warn().Err(err).
			Str("entity", ent.Qualified()).
			Str("scope", name).
			Msg("scope failed")
		s.metrics.ScopeFailure(ent.Qualified(), "error")
	}
}

// callScope turns a panicking Go scope into an error.
func callScope(fn registry.ScopeFunc, q *storage.Query, arg any, hasArg bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scope panicked: %v", r)
		}
	}()
	return fn(q, arg, hasArg)
}

func checkColumns(preds []storage.Predicate, columns []string) error {
	for _, p := range preds {
		for _, c := range p.Any {
			if !contains(columns, c.Field) {
				return fmt.Errorf("%w: %s", storage.ErrUnknownColumn, c.Field)
			}
		}
	}
	return nil
}

// applySearch adds one OR group matching the term on every search field.
// Translatable fields match in every configured locale.
func (s *ModelService) applySearch(ent *registry.Entity, q *storage.Query, search lookup.Search, selection, columns []string) {
	if !search.Active() {
		return
	}
	fields := lookup.SearchFields(search, selection, columns)
	if len(fields) == 0 {
		return
	}

	pattern := storage.Contains(strings.TrimSpace(search.Term))
	var locales []string
	if s.translator != nil {
		locales = s.translator.Locales()
	}

	var conds []storage.Condition
	for _, f := range fields {
		if ent.IsTranslatable(f) && len(locales) > 0 {
			for _, loc := range locales {
				conds = append(conds, storage.Condition{
					Field: f, Op: schema.OpLike, Value: pattern, JSONKey: loc, Fold: true,
				})
			}
			continue
		}
		conds = append(conds, storage.Condition{
			Field: f, Op: schema.OpLike, Value: pattern, Fold: true,
		})
	}
	q.FilterAny(conds...)
}

// Catalog lists every registered entity without fetching records.
func (s *ModelService) Catalog(ctx context.Context) []lookup.CatalogEntry {
	list := s.entities.List()
	out := make([]lookup.CatalogEntry, 0, len(list))
	for _, ent := range list {
		out = append(out, lookup.CatalogEntry{
			Name:  s.label(ctx, ent),
			Model: ent.Model,
			Table: ent.Table,
		})
	}
	return out
}

func (s *ModelService) label(ctx context.Context, ent *registry.Entity) string {
	if s.translator != nil {
		if l, ok := s.translator.Translate(ctx, "models."+ent.Name); ok {
			return l
		}
	}
	if ent.Source.Label != "" {
		return ent.Source.Label
	}
	return convention.Headline(ent.Name)
}

func (s *ModelService) locale(ctx context.Context) string {
	if s.translator == nil {
		return ""
	}
	return s.translator.Locale(ctx)
}

func (s *ModelService) fallbackLocale() string {
	if s.translator == nil {
		return ""
	}
	return s.translator.FallbackLocale()
}

func transform(rows []map[string]any, selection []string, opts lookup.TransformOptions) []lookup.OutputRecord {
	out := make([]lookup.OutputRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, lookup.TransformRecord(r, selection, opts))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
