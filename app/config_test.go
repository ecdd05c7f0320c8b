package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/artpar/lookup/adapters/configtree"
	"github.com/artpar/lookup/domain/allowlist"
	"github.com/artpar/lookup/domain/lookup"
)

func newConfigService() *ConfigService {
	tree := configtree.FromMap(map[string]map[string]any{
		"app": {
			"name": "Shop",
			"env":  "production",
			"key":  "base64:secret",
		},
		"mail": {
			"from": map[string]any{"address": "shop@example.com"},
		},
		"database": {
			"password": "hunter2",
		},
		"empty": {},
	})

	settings := Settings{AllowedConfigs: allowlist.List{
		"app":   {"name", "env"},
		"mail":  {},
		"empty": {},
	}}
	return NewConfigService(tree, StaticSettings(settings), nil, zerolog.Nop())
}

func TestConfigService_Lookup(t *testing.T) {
	svc := newConfigService()

	tests := []struct {
		name string
		spec lookup.ConfigSpec
		want map[string]any
	}{
		{
			name: "not allow-listed",
			spec: lookup.ConfigSpec{Name: "database"},
			want: map[string]any{},
		},
		{
			name: "not allow-listed with keys",
			spec: lookup.ConfigSpec{Name: "database", Keys: []string{"password"}, HasKeys: true},
			want: map[string]any{},
		},
		{
			name: "whole namespace",
			spec: lookup.ConfigSpec{Name: "mail"},
			want: map[string]any{"from": map[string]any{"address": "shop@example.com"}},
		},
		{
			name: "allow-listed keys only",
			spec: lookup.ConfigSpec{Name: "app"},
			want: map[string]any{"name": "Shop", "env": "production"},
		},
		{
			name: "intersection",
			spec: lookup.ConfigSpec{Name: "app", Keys: []string{"name", "key"}, HasKeys: true},
			want: map[string]any{"name": "Shop"},
		},
		{
			name: "empty intersection",
			spec: lookup.ConfigSpec{Name: "app", Keys: []string{"key"}, HasKeys: true},
			want: map[string]any{},
		},
		{
			name: "empty namespace",
			spec: lookup.ConfigSpec{Name: "empty"},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Lookup(context.Background(), []lookup.ConfigSpec{tt.spec})
			assert.Equal(t, map[string]any{tt.spec.Name: tt.want}, got)
		})
	}
}

func TestConfigService_SkipsNameless(t *testing.T) {
	svc := newConfigService()

	got := svc.Lookup(context.Background(), []lookup.ConfigSpec{{}, {Name: "app", Keys: []string{"env"}, HasKeys: true}})
	assert.Equal(t, map[string]any{"app": map[string]any{"env": "production"}}, got)
}

func TestConfigService_ReadsSettingsPerCall(t *testing.T) {
	tree := configtree.FromMap(map[string]map[string]any{"app": {"name": "Shop"}})
	current := Settings{}
	svc := NewConfigService(tree, func() Settings { return current }, nil, zerolog.Nop())

	got := svc.Lookup(context.Background(), []lookup.ConfigSpec{{Name: "app"}})
	assert.Equal(t, map[string]any{}, got["app"])

	current = Settings{AllowedConfigs: allowlist.List{"app": {}}}
	got = svc.Lookup(context.Background(), []lookup.ConfigSpec{{Name: "app"}})
	assert.Equal(t, map[string]any{"name": "Shop"}, got["app"])
}
