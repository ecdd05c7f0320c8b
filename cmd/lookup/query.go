package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/lookup/adapters/translation"
	"github.com/artpar/lookup/bootstrap"
	"github.com/artpar/lookup/core/formatter"
	"github.com/artpar/lookup/domain/lookup"
)

var (
	outputFormat string
	outputFile   string
	locale       string
	columns      []string
	noHeader     bool
	compact      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [request-file]",
	Short: "Run a lookup request against the configured database",
	Long: `Run a lookup request without starting the server.

The request has the same shape as the POST /api/lookup body and is read
from the given file, or from stdin when the file is "-" or omitted.
Files ending in .yaml or .yml are accepted as well as JSON.

Examples:
  lookup query request.json
  echo '{"tables":[{"name":"roles","extra":["slug"]}]}' | lookup query --format table
  lookup query request.yaml --format xlsx --output lookup.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"catalog"},
	Short:   "List the registered tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, lookup.Request{Kind: lookup.KindTables})
	},
}

var enumsCmd = &cobra.Command{
	Use:   "enums",
	Short: "Print every registered enum",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, lookup.Request{Kind: lookup.KindEnums})
	},
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, modelsCmd, enumsCmd} {
		c.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format ("+strings.Join(formatter.List(), ", ")+")")
		c.Flags().StringVarP(&outputFile, "output", "o", "", "write output to a file instead of stdout")
		c.Flags().StringVar(&locale, "locale", "", "locale for labels and translated names")
		c.Flags().StringSliceVar(&columns, "columns", nil, "columns to show in table and xlsx output")
		c.Flags().BoolVar(&noHeader, "no-header", false, "omit header rows in table and xlsx output")
		c.Flags().BoolVar(&compact, "compact", false, "compact json output")
		rootCmd.AddCommand(c)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	body, err := readRequest(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
		return app.Lookup.LookupJSON(ctx, body)
	})
}

func runRequest(cmd *cobra.Command, req lookup.Request) error {
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
		return app.Lookup.Lookup(ctx, req)
	})
}

// withApp builds the application, runs fn and writes its result in the
// selected format.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) (any, error)) error {
	f, ok := formatter.Get(outputFormat)
	if !ok {
		return fmt.Errorf("unknown format %q (available: %s)", outputFormat, strings.Join(formatter.List(), ", "))
	}
	if f.Name() == "xlsx" && outputFile == "" {
		return fmt.Errorf("xlsx output needs --output")
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		LogOutput:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if locale != "" {
		ctx = translation.WithLocale(ctx, app.Translator.Match(locale))
	}

	result, err := fn(ctx, app)
	if err != nil {
		f.FormatError(cmd.ErrOrStderr(), err)
		return err
	}

	out := cmd.OutOrStdout()
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	return f.Format(out, result, formatter.FormatOptions{
		Columns:  columns,
		NoHeader: noHeader,
		Compact:  compact,
	})
}

// readRequest loads a request body. YAML files are converted to JSON.
func readRequest(stdin io.Reader, path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse request: %w", err)
		}
		return json.Marshal(v)
	}
	return data, nil
}
