package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/core/storage"
	"github.com/artpar/lookup/core/validation"
)

// SeedResult counts what Seed did.
type SeedResult struct {
	Created int
	Rows    int
}

// Seed creates the table of every registered entity that lacks one and
// fills it with the entity's seed rows. Rows are validated before the table
// is created, and each table is created and filled in one transaction, so a
// failed seed leaves no table behind. Existing tables are left alone, so
// seeding twice inserts nothing.
func Seed(ctx context.Context, store *storage.SQLStore, entities *registry.Entities, logger zerolog.Logger) (SeedResult, error) {
	var res SeedResult

	for _, ent := range entities.List() {
		for i, row := range ent.Source.Seed {
			if check := validation.Row(ent.Derived, row); !check.Valid() {
				return res, fmt.Errorf("seed %s row %d: %s", ent.Qualified(), i, check.Error())
			}
		}

		created, err := store.SeedTable(ctx, ent.Derived, ent.Source.Seed)
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", ent.Qualified(), err)
		}
		if !created {
			continue
		}
		res.Created++
		res.Rows += len(ent.Source.Seed)

		logger.Info().
			Str("entity", ent.Qualified()).
			Str("table", ent.Table).
			Int("rows", len(ent.Source.Seed)).
			Msg("table created")
	}

	store.ResetColumns()
	return res, nil
}
