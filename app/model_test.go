package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/domain/lookup"
)

func records(t *testing.T, v any) []lookup.OutputRecord {
	t.Helper()
	recs, ok := v.([]lookup.OutputRecord)
	require.True(t, ok, "got %T, want []lookup.OutputRecord", v)
	return recs
}

func names(recs []lookup.OutputRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Name == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *r.Name)
	}
	return out
}

func TestModelService_RootExcluded(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{RootExcluded: []string{"role"}}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{{Name: "roles"}})

	recs := records(t, got["roles"])
	assert.Equal(t, []string{"Admin", "Editor"}, names(recs))

	data, err := json.Marshal(recs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"name":"Admin"}`, string(data))
}

func TestModelService_RootNotListed(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{{Name: "roles"}})
	assert.Len(t, records(t, got["roles"]), 3)
}

func TestModelService_FailureIsolation(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{
		{Name: "unicorns"},
		{Name: "ghosts"},
		{Name: "people"},
	})

	assert.Empty(t, records(t, got["unicorns"]))
	assert.Empty(t, records(t, got["ghosts"]))
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, names(records(t, got["people"])))
}

func TestModelService_ExtraFields(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{
		{Name: "people", Extra: lookup.StringList{"email", "password"}},
	})

	recs := records(t, got["people"])
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"id", "name", "email"}, recs[0].Keys())
	v, _ := recs[0].Get("email")
	assert.Equal(t, "ada@example.com", v)
}

func TestModelService_NameSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ent, err := f.entities.Register(schema.Entity{
		Name: "country",
		Schema: map[string]schema.Field{
			"id":   {Type: schema.FieldTypeInt},
			"name": {Type: schema.FieldTypeString},
			"code": {Type: schema.FieldTypeString},
		},
		NameSource: []string{"code"},
	})
	require.NoError(t, err)
	_, err = f.store.CreateTable(ctx, ent.Derived)
	require.NoError(t, err)
	_, err = f.store.Insert(ctx, ent.Derived, map[string]any{"name": "France", "code": "FR"})
	require.NoError(t, err)
	f.store.ResetColumns()

	svc := f.models(Settings{}, "en")
	for _, spec := range []lookup.TableSpec{
		{Name: "countries"},
		{Name: "countries", Extra: lookup.StringList{"name"}},
	} {
		got := svc.Lookup(ctx, []lookup.TableSpec{spec})

		recs := records(t, got["countries"])
		require.Len(t, recs, 1)
		assert.Equal(t, []string{"id", "name"}, recs[0].Keys())
		assert.Equal(t, []string{"FR"}, names(recs))

		data, err := json.Marshal(recs[0])
		require.NoError(t, err)
		assert.Equal(t, `{"id":1,"name":"FR"}`, string(data))
	}
}

func TestModelService_Scopes(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{RootExcluded: []string{"role"}}, "en")
	ctx := context.Background()

	tests := []struct {
		name string
		spec lookup.TableSpec
		want []string
	}{
		{
			name: "fixed value scope",
			spec: lookup.TableSpec{Name: "roles", Scopes: lookup.Scopes{{Name: "active"}}},
			want: []string{"Admin"},
		},
		{
			name: "argument by name",
			spec: lookup.TableSpec{
				Name:   "roles",
				Scopes: lookup.Scopes{{Name: "of_code"}},
				Values: lookup.ScopeValues{ByName: map[string]any{"of_code": "editor"}},
			},
			want: []string{"Editor"},
		},
		{
			name: "argument by position",
			spec: lookup.TableSpec{
				Name:   "roles",
				Scopes: lookup.Scopes{{Name: "active"}, {Name: "of_code"}},
				Values: lookup.ScopeValues{Positional: []any{nil, "admin"}},
			},
			want: []string{"Admin"},
		},
		{
			name: "unknown scope is skipped",
			spec: lookup.TableSpec{Name: "roles", Scopes: lookup.Scopes{{Name: "nope"}, {Name: "active"}}},
			want: []string{"Admin"},
		},
		{
			name: "scope without required argument is skipped",
			spec: lookup.TableSpec{Name: "roles", Scopes: lookup.Scopes{{Name: "of_code"}}},
			want: []string{"Admin", "Editor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Lookup(ctx, []lookup.TableSpec{tt.spec})
			assert.Equal(t, tt.want, names(records(t, got["roles"])))
		})
	}
}

func TestModelService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("empty term is a no-op", func(t *testing.T) {
		svc := f.models(Settings{}, "en")
		plain := svc.Lookup(ctx, []lookup.TableSpec{{Name: "roles"}})
		searched := svc.Lookup(ctx, []lookup.TableSpec{{Name: "roles", Search: lookup.Search{Term: "  "}}})
		assert.Equal(t, plain, searched)
	})

	t.Run("selection fields", func(t *testing.T) {
		svc := f.models(Settings{}, "en")
		got := svc.Lookup(ctx, []lookup.TableSpec{{Name: "roles", Search: lookup.Search{Term: "ADM"}}})
		assert.Equal(t, []string{"Admin"}, names(records(t, got["roles"])))
	})

	t.Run("explicit fields", func(t *testing.T) {
		svc := f.models(Settings{}, "en")
		got := svc.Lookup(ctx, []lookup.TableSpec{{
			Name:   "people",
			Search: lookup.Search{Term: "alan@", Fields: []string{"email"}},
		}})
		assert.Equal(t, []string{"Alan Turing"}, names(records(t, got["people"])))
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		svc := f.models(Settings{}, "en")
		got := svc.Lookup(ctx, []lookup.TableSpec{{Name: "roles", Search: lookup.Search{Term: "%"}}})
		assert.Empty(t, records(t, got["roles"]))
	})

	t.Run("translatable field in any locale", func(t *testing.T) {
		svc := f.models(Settings{}, "en")
		got := svc.Lookup(ctx, []lookup.TableSpec{{Name: "categories", Search: lookup.Search{Term: "livres"}}})
		assert.Equal(t, []string{"Books"}, names(records(t, got["categories"])))
	})
}

func TestModelService_Localized(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "fr")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{{Name: "categories"}})
	assert.Equal(t, []string{"Livres", "Musique"}, names(records(t, got["categories"])))
}

func TestModelService_Module(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{
		{Name: "leads", Module: "crm"},
	})
	assert.Equal(t, []string{"Alpha"}, names(records(t, got["leads"])))

	got = svc.Lookup(context.Background(), []lookup.TableSpec{{Name: "leads"}})
	assert.Empty(t, records(t, got["leads"]))
}

func TestModelService_Paginate(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{PerPage: 2, MaxPerPage: 50}, "en")

	got := svc.Lookup(context.Background(), []lookup.TableSpec{
		{Name: "roles", Paginate: true, Page: 2},
	})

	page, ok := got["roles"].(lookup.PaginatedResult)
	require.True(t, ok, "got %T", got["roles"])
	assert.Equal(t, []string{"Editor"}, names(page.Data))
	assert.Equal(t, int64(3), page.Meta["total"])
	assert.Equal(t, 2, page.Meta["page"])
	assert.Equal(t, 2, page.Meta["per_page"])
	assert.Equal(t, 2, page.Meta["pages"])
}

func TestModelService_Catalog(t *testing.T) {
	f := newFixture(t)
	svc := f.models(Settings{}, "en")

	got := svc.Catalog(context.Background())
	require.Len(t, got, 5)

	byModel := map[string]lookup.CatalogEntry{}
	for _, e := range got {
		byModel[e.Model] = e
	}
	assert.Equal(t, lookup.CatalogEntry{Name: "Roles", Model: "Role", Table: "roles"}, byModel["Role"])
	assert.Equal(t, "Product categories", byModel["Category"].Name)
	assert.Equal(t, "Person", byModel["Person"].Name)
	assert.Equal(t, "people", byModel["Person"].Table)
}
