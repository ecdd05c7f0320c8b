package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lookup/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lookup HTTP server",
	Long: `Start the lookup HTTP server.

The server will:
  - Load configuration from lookup.yaml (or --config)
  - Or load configuration from LOOKUP_* environment variables
  - Load entity and enum definitions, translations and config namespaces
  - Connect to the database (and seed it when database.seed is set)
  - Serve POST /api/lookup and the GET helpers under /api/lookup

Edits to the config file, the config namespaces directory or the
translations directory are picked up without a restart, as is SIGHUP.

Environment variables (for container deployments):
  LOOKUP_DATABASE_DRIVER   - sqlite3, postgres or mysql
  LOOKUP_DATABASE_DSN      - Database DSN (default: lookup.db)
  LOOKUP_SERVER_PORT       - Server port (default: 8080)
  LOOKUP_LOG_LEVEL         - Log level: debug, info, warn, error
  LOOKUP_DEFAULT_LOCALE    - Fallback locale for labels

Examples:
  lookup serve
  lookup serve --config /etc/lookup/lookup.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		return err
	}

	return app.Run()
}
