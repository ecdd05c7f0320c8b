package app

import (
	"strings"

	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/domain/allowlist"
)

// Settings are the runtime options the lookup services read at the start
// of every call.
type Settings struct {
	// PerPage is the page size when a paginated request gives none.
	PerPage int

	// MaxPerPage caps the page size. Zero means no cap.
	MaxPerPage int

	// RootExcluded lists entities ("role", "crm.lead") that always get the
	// exclude_root scope.
	RootExcluded []string

	// AllowedConfigs is the config gate allow-list.
	AllowedConfigs allowlist.List
}

// SettingsFunc returns the current settings snapshot.
type SettingsFunc func() Settings

// StaticSettings returns a SettingsFunc that always yields s.
func StaticSettings(s Settings) SettingsFunc {
	return func() Settings { return s }
}

// rootExcluded reports whether ent is listed in names.
func (s Settings) rootExcluded(ent *registry.Entity) bool {
	want := registry.Key(ent.Module, ent.Name)
	for _, n := range s.RootExcluded {
		module, name := "", n
		if i := strings.LastIndex(n, "."); i >= 0 {
			module, name = n[:i], n[i+1:]
		}
		if registry.Key(module, name) == want {
			return true
		}
	}
	return false
}
