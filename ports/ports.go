// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and core/.
package ports

import (
	"context"

	"github.com/artpar/lookup/core/storage"
)

// -----------------------------------------------------------------------------
// Data Source Ports
// -----------------------------------------------------------------------------

// EntityStore reads entity tables.
type EntityStore interface {
	// Columns lists the columns of a table. It fails with storage.ErrNoTable
	// when the table does not exist.
	Columns(ctx context.Context, table string) ([]string, error)

	// Find returns every row matching the query.
	Find(ctx context.Context, q *storage.Query) ([]map[string]any, error)

	// Paginate returns one window of matching rows and the total count.
	Paginate(ctx context.Context, q *storage.Query, limit, offset int) ([]map[string]any, int64, error)
}

// -----------------------------------------------------------------------------
// Translation Ports
// -----------------------------------------------------------------------------

// Translator resolves translation keys for the locale of a request.
type Translator interface {
	// Translate looks key up in the request locale, then the fallback
	// locale. ok is false on a miss.
	Translate(ctx context.Context, key string) (string, bool)

	// Locale returns the request locale.
	Locale(ctx context.Context) string

	// FallbackLocale returns the default locale.
	FallbackLocale() string

	// Locales returns every configured locale.
	Locales() []string
}

// -----------------------------------------------------------------------------
// Configuration Ports
// -----------------------------------------------------------------------------

// ConfigSource exposes configuration namespaces as nested maps.
type ConfigSource interface {
	// Namespace returns the tree of a namespace.
	Namespace(name string) (map[string]any, bool)

	// Value resolves a dotted key inside a tree.
	Value(tree map[string]any, key string) (any, bool)
}
