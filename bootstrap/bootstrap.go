// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/lookup/adapters/configtree"
	apihttp "github.com/artpar/lookup/adapters/http"
	"github.com/artpar/lookup/adapters/metrics"
	"github.com/artpar/lookup/adapters/translation"
	"github.com/artpar/lookup/app"
	"github.com/artpar/lookup/config"
	"github.com/artpar/lookup/core/registry"
	"github.com/artpar/lookup/core/storage"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	Store      *storage.SQLStore
	Entities   *registry.Entities
	Enums      *registry.Enums
	Translator *translation.Translator
	ConfigTree *configtree.Tree
	Metrics    *metrics.Collector
	Lookup     *app.LookupService
	HTTPServer *http.Server

	metricsHandler http.Handler
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML config file. Empty or missing falls back to
	// LOOKUP_* environment variables.
	ConfigPath string

	// Version is reported by /version.
	Version string

	// LogOutput overrides stdout for logs.
	LogOutput io.Writer
}

// New loads the configuration and builds the application without
// starting the server.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := SetupLogger(cfg.Logging, out)

	holder, err := config.NewHolderWith(cfg, opts.ConfigPath, logger)
	if err != nil {
		return nil, err
	}

	return NewWithHolder(holder, opts.Version, logger)
}

// NewWithHolder builds the application from a loaded configuration.
func NewWithHolder(holder *config.Holder, version string, logger zerolog.Logger) (*App, error) {
	cfg := holder.Get()
	logger.Info().Str("driver", cfg.Database.Driver).Msg("initializing lookup")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	if err := a.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := a.initRegistries(cfg); err != nil {
		a.Store.Close()
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	if cfg.Database.Seed {
		if _, err := Seed(context.Background(), a.Store, a.Entities, logger); err != nil {
			a.Store.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	if err := a.initSources(cfg); err != nil {
		a.Store.Close()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		a.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	a.initServices()

	RegisterReloadHooks(holder, map[string]Reloader{
		"config_tree":  a.ConfigTree,
		"translations": a.Translator,
	}, a.Metrics, logger)

	a.initHTTPServer(cfg, version)

	return a, nil
}

func (a *App) initDatabase(cfg *config.Config) error {
	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	a.Store = store
	a.Logger.Info().Str("driver", store.Dialect().Name()).Msg("database connected")
	return nil
}

func (a *App) initRegistries(cfg *config.Config) error {
	l := cfg.Lookup

	a.Entities = registry.NewEntities()
	n, err := registry.LoadEntities(a.Entities, l.EntitiesDir, l.ModulesDir)
	if err != nil {
		return fmt.Errorf("entities: %w", err)
	}
	a.Logger.Info().Int("count", n).Str("dir", l.EntitiesDir).Msg("entities registered")

	a.Enums = registry.NewEnums()
	n, err = registry.LoadEnums(a.Enums, l.EnumsDir, l.ModulesDir)
	if err != nil {
		return fmt.Errorf("enums: %w", err)
	}
	a.Logger.Info().Int("count", n).Str("dir", l.EnumsDir).Msg("enums registered")

	return nil
}

func (a *App) initSources(cfg *config.Config) error {
	l := cfg.Lookup

	tr, err := translation.New(l.TranslationsDir, l.Locales, l.DefaultLocale, a.Logger)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	a.Translator = tr

	tree, err := configtree.Load(l.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config tree: %w", err)
	}
	a.ConfigTree = tree
	a.Logger.Info().Strs("namespaces", tree.Names()).Msg("config namespaces loaded")

	return nil
}

func (a *App) initServices() {
	a.Lookup = &app.LookupService{
		Models:  app.NewModelService(a.Entities, a.Store, a.Translator, a.Settings, a.Metrics, a.Logger),
		Enums:   app.NewEnumService(a.Enums, a.Translator, a.Metrics, a.Logger),
		Configs: app.NewConfigService(a.ConfigTree, a.Settings, a.Metrics, a.Logger),
		Metrics: a.Metrics,
	}
}

func (a *App) initHTTPServer(cfg *config.Config, version string) {
	routerCfg := apihttp.RouterConfig{
		Metrics:        a.Metrics,
		Locales:        a.Translator,
		Version:        version,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.Metrics != nil {
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.MetricsHandler = a.metricsHandler
	}

	router := apihttp.NewRouter(
		apihttp.NewLookupHandler(a.Lookup, a.Logger),
		apihttp.NewHealthHandler(a.Store),
		a.Logger,
		routerCfg,
	)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Settings returns the lookup settings of the current config snapshot.
func (a *App) Settings() app.Settings {
	l := a.Config.Get().Lookup
	return app.Settings{
		PerPage:        l.PerPage,
		MaxPerPage:     l.MaxPerPage,
		RootExcluded:   l.RootExcluded,
		AllowedConfigs: l.AllowedConfigs,
	}
}

// Run starts the HTTP server and blocks until shutdown. Config changes on
// disk and SIGHUP trigger a reload.
func (a *App) Run() error {
	l := a.Config.Get().Lookup
	if err := a.Config.Watch(l.ConfigDir, l.TranslationsDir); err != nil {
		a.Logger.Warn().Err(err).Msg("config watch disabled")
	}
	a.Config.WatchSignals()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// SetupLogger builds the process logger and sets the global level.
func SetupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
