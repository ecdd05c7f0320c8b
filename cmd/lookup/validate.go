package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/lookup/adapters/configtree"
	"github.com/artpar/lookup/adapters/translation"
	"github.com/artpar/lookup/config"
	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/core/storage"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and definitions before deployment",
	Long: `Validate the lookup configuration and every definition it points at.

Checks:
  - Config file (or LOOKUP_* environment) is valid
  - Entity definitions load and derive
  - Enum definitions load
  - Translation files parse
  - Config namespaces parse and allow-listed namespaces exist
  - Database is reachable (optional)

Examples:
  lookup validate
  lookup validate --config /etc/lookup/lookup.yaml --check-database`,
	RunE: runValidate,
}

var validateCheckDatabase bool

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
	warnMark  = "\033[33m!\033[0m"
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the database is reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)
	l := cfg.Lookup

	entities := registry.NewEntities()
	n, err := registry.LoadEntities(entities, l.EntitiesDir, l.ModulesDir)
	if err != nil {
		fmt.Fprintf(out, "  %s Entities\n", crossMark)
		return fmt.Errorf("entities: %w", err)
	}
	fmt.Fprintf(out, "  %s Entities: %d\n", checkMark, n)

	enums := registry.NewEnums()
	n, err = registry.LoadEnums(enums, l.EnumsDir, l.ModulesDir)
	if err != nil {
		fmt.Fprintf(out, "  %s Enums\n", crossMark)
		return fmt.Errorf("enums: %w", err)
	}
	fmt.Fprintf(out, "  %s Enums: %d\n", checkMark, n)

	tr, err := translation.New(l.TranslationsDir, l.Locales, l.DefaultLocale, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(out, "  %s Translations\n", crossMark)
		return fmt.Errorf("translations: %w", err)
	}
	fmt.Fprintf(out, "  %s Translations: %v\n", checkMark, tr.Locales())

	tree, err := configtree.Load(l.ConfigDir)
	if err != nil {
		fmt.Fprintf(out, "  %s Config namespaces\n", crossMark)
		return fmt.Errorf("config namespaces: %w", err)
	}
	fmt.Fprintf(out, "  %s Config namespaces: %v\n", checkMark, tree.Names())

	for _, name := range l.AllowedConfigs.Namespaces() {
		if _, ok := tree.Namespace(name); !ok {
			fmt.Fprintf(out, "  %s Allowed namespace %q has no file in %s\n", warnMark, name, l.ConfigDir)
		}
	}

	if validateCheckDatabase {
		store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			fmt.Fprintf(out, "  %s Database reachable\n", crossMark)
			return fmt.Errorf("database: %w", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			fmt.Fprintf(out, "  %s Database reachable\n", crossMark)
			return fmt.Errorf("database: %w", err)
		}
		fmt.Fprintf(out, "  %s Database reachable (%s)\n", checkMark, store.Dialect().Name())
	}

	fmt.Fprintln(out, "\nConfiguration is valid.")
	return nil
}
