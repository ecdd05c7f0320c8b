// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/lookup/domain/allowlist"
	"github.com/artpar/lookup/pkg/paging"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Lookup   LookupConfig   `yaml:"lookup"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3", "postgres" or "mysql"
	DSN    string `yaml:"dsn"`

	// Seed creates missing entity tables and inserts their seed rows at startup.
	Seed bool `yaml:"seed"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LookupConfig configures the lookup service.
type LookupConfig struct {
	EntitiesDir     string `yaml:"entities_dir"`
	EnumsDir        string `yaml:"enums_dir"`
	ModulesDir      string `yaml:"modules_dir"`
	ConfigDir       string `yaml:"config_dir"`
	TranslationsDir string `yaml:"translations_dir"`

	Locales       []string `yaml:"locales"`
	DefaultLocale string   `yaml:"default_locale"`

	PerPage    int `yaml:"per_page"`
	MaxPerPage int `yaml:"max_per_page"`

	// AllowedConfigs maps a config namespace to its readable keys. An empty
	// list exposes the whole namespace.
	AllowedConfigs allowlist.List `yaml:"allowed_configs"`

	// RootExcluded lists entities ("role" or "module.role") whose root
	// records are always hidden.
	RootExcluded []string `yaml:"root_excluded"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes. ${VAR} references are
// expanded and LOOKUP_* variables override file values.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	LOOKUP_SERVER_HOST        - Server host (default: 0.0.0.0)
//	LOOKUP_SERVER_PORT        - Server port (default: 8080)
//	LOOKUP_DATABASE_DRIVER    - sqlite3, postgres or mysql (default: sqlite3)
//	LOOKUP_DATABASE_DSN       - Data source name (default: lookup.db)
//	LOOKUP_DATABASE_SEED      - Create tables and insert seed rows
//	LOOKUP_LOG_LEVEL          - debug, info, warn, error (default: info)
//	LOOKUP_LOG_FORMAT         - json or console (default: json)
//	LOOKUP_METRICS_ENABLED    - Enable the metrics endpoint
//	LOOKUP_METRICS_PATH       - Metrics path (default: /metrics)
//	LOOKUP_ENTITIES_DIR       - Entity definitions (default: entities)
//	LOOKUP_ENUMS_DIR          - Enum definitions (default: enums)
//	LOOKUP_MODULES_DIR        - Module tree (default: modules)
//	LOOKUP_CONFIG_DIR         - Config namespaces (default: config.d)
//	LOOKUP_TRANSLATIONS_DIR   - Translation files (default: lang)
//	LOOKUP_LOCALES            - Comma separated locales
//	LOOKUP_DEFAULT_LOCALE     - Fallback locale (default: en)
//	LOOKUP_PER_PAGE           - Default page size (default: 15)
//	LOOKUP_MAX_PER_PAGE       - Page size cap (default: 100)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies LOOKUP_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("LOOKUP_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LOOKUP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOOKUP_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("LOOKUP_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("LOOKUP_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("LOOKUP_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOOKUP_DATABASE_SEED"); v != "" {
		cfg.Database.Seed = parseBool(v)
	}

	// Logging configuration
	if v := os.Getenv("LOOKUP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOOKUP_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("LOOKUP_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("LOOKUP_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// Lookup configuration
	dirs := map[string]*string{
		"LOOKUP_ENTITIES_DIR":     &cfg.Lookup.EntitiesDir,
		"LOOKUP_ENUMS_DIR":        &cfg.Lookup.EnumsDir,
		"LOOKUP_MODULES_DIR":      &cfg.Lookup.ModulesDir,
		"LOOKUP_CONFIG_DIR":       &cfg.Lookup.ConfigDir,
		"LOOKUP_TRANSLATIONS_DIR": &cfg.Lookup.TranslationsDir,
		"LOOKUP_DEFAULT_LOCALE":   &cfg.Lookup.DefaultLocale,
	}
	for name, dst := range dirs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("LOOKUP_LOCALES"); v != "" {
		cfg.Lookup.Locales = splitList(v)
	}
	if v := os.Getenv("LOOKUP_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lookup.PerPage = n
		}
	}
	if v := os.Getenv("LOOKUP_MAX_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lookup.MaxPerPage = n
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite3"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "lookup.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	l := &cfg.Lookup
	if l.EntitiesDir == "" {
		l.EntitiesDir = "entities"
	}
	if l.EnumsDir == "" {
		l.EnumsDir = "enums"
	}
	if l.ModulesDir == "" {
		l.ModulesDir = "modules"
	}
	if l.ConfigDir == "" {
		l.ConfigDir = "config.d"
	}
	if l.TranslationsDir == "" {
		l.TranslationsDir = "lang"
	}
	if l.DefaultLocale == "" {
		l.DefaultLocale = "en"
	}
	if l.PerPage == 0 {
		l.PerPage = paging.DefaultPerPage
	}
	if l.MaxPerPage == 0 {
		l.MaxPerPage = 100
	}
	if l.AllowedConfigs == nil {
		l.AllowedConfigs = allowlist.List{}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{
		"sqlite3": true, "sqlite": true, "postgres": true, "postgresql": true, "mysql": true,
	}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite3, postgres, mysql, got %q", cfg.Database.Driver)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	l := cfg.Lookup
	if l.PerPage < 1 {
		return fmt.Errorf("lookup.per_page must be positive, got %d", l.PerPage)
	}
	if l.MaxPerPage < l.PerPage {
		return fmt.Errorf("lookup.max_per_page (%d) must not be below lookup.per_page (%d)", l.MaxPerPage, l.PerPage)
	}
	if len(l.Locales) > 0 && !contains(l.Locales, l.DefaultLocale) {
		return fmt.Errorf("lookup.default_locale %q is not in lookup.locales", l.DefaultLocale)
	}
	for ns := range l.AllowedConfigs {
		if strings.TrimSpace(ns) == "" {
			return fmt.Errorf("lookup.allowed_configs has an empty namespace")
		}
	}
	for i, name := range l.RootExcluded {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("lookup.root_excluded[%d] is empty", i)
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
