package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/core/storage"
)

// fakeTranslator serves fixed messages for the "en" and "fr" locales.
type fakeTranslator struct {
	locale   string
	messages map[string]string
}

func (f fakeTranslator) Translate(_ context.Context, key string) (string, bool) {
	s, ok := f.messages[key]
	return s, ok
}

func (f fakeTranslator) Locale(context.Context) string { return f.locale }
func (f fakeTranslator) FallbackLocale() string        { return "en" }
func (f fakeTranslator) Locales() []string             { return []string{"en", "fr"} }

type fixture struct {
	store    *storage.SQLStore
	entities *registry.Entities
	enums    *registry.Enums
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, entities: registry.NewEntities(), enums: registry.NewEnums()}

	definitions := []schema.Entity{
		{
			Name: "role",
			Schema: map[string]schema.Field{
				"id":      {Type: schema.FieldTypeInt},
				"name":    {Type: schema.FieldTypeString},
				"code":    {Type: schema.FieldTypeString},
				"is_root": {Type: schema.FieldTypeBool, Default: false},
				"status":  {Type: schema.FieldTypeString},
			},
			Root: &schema.Root{Field: "is_root"},
			Scopes: map[string]schema.Scope{
				"active":  {Field: "status", Op: schema.OpEq, Value: "active"},
				"of_code": {Field: "code", Op: schema.OpEq},
			},
			Seed: []map[string]any{
				{"name": "Root", "code": "root", "is_root": true, "status": "active"},
				{"name": "Admin", "code": "admin", "status": "active"},
				{"name": "Editor", "code": "editor", "status": "disabled"},
			},
		},
		{
			Name: "person",
			Schema: map[string]schema.Field{
				"id":         {Type: schema.FieldTypeInt},
				"first_name": {Type: schema.FieldTypeString},
				"last_name":  {Type: schema.FieldTypeString},
				"email":      {Type: schema.FieldTypeString},
			},
			Seed: []map[string]any{
				{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
				{"first_name": "Alan", "last_name": "Turing", "email": "alan@example.com"},
			},
		},
		{
			Name:  "category",
			Label: "Product categories",
			Schema: map[string]schema.Field{
				"id":    {Type: schema.FieldTypeInt},
				"title": {Type: schema.FieldTypeJSON, Translatable: true},
			},
			Seed: []map[string]any{
				{"title": map[string]any{"en": "Books", "fr": "Livres"}},
				{"title": map[string]any{"en": "Music", "fr": "Musique"}},
			},
		},
		{
			Name:      "lead",
			Namespace: "crm",
			Schema: map[string]schema.Field{
				"id":    {Type: schema.FieldTypeInt},
				"title": {Type: schema.FieldTypeString},
			},
			Seed: []map[string]any{{"title": "Alpha"}},
		},
		{
			// Registered but never created: every lookup on it fails.
			Name:   "ghost",
			Schema: map[string]schema.Field{"name": {Type: schema.FieldTypeString}},
		},
	}

	for _, def := range definitions {
		ent, err := f.entities.Register(def)
		require.NoError(t, err)
		if def.Name == "ghost" {
			continue
		}
		_, err = store.CreateTable(ctx, ent.Derived)
		require.NoError(t, err)
		for _, row := range def.Seed {
			_, err := store.Insert(ctx, ent.Derived, row)
			require.NoError(t, err)
		}
	}

	return f
}

func (f *fixture) models(settings Settings, locale string) *ModelService {
	tr := fakeTranslator{locale: locale, messages: map[string]string{"models.role": "Roles"}}
	return NewModelService(f.entities, f.store, tr, StaticSettings(settings), nil, zerolog.Nop())
}
