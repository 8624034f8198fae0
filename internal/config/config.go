package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Simplici0/costeo/internal/settings"
)

const (
	defaultDBPath     = "./costeo.db"
	defaultPort       = "8080"
	defaultEnv        = "dev"
	defaultLogLevel   = "info"
	defaultConfigFile = "costeo.toml"
)

// Config holds application configuration sourced from an optional TOML file
// and environment variables. Environment variables win.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	Env           string
	LogLevel      string
	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string

	// Defaults seed the settings singleton on first boot.
	Defaults settings.Settings
}

// fileConfig mirrors costeo.toml.
type fileConfig struct {
	Server struct {
		Port          string `toml:"port"`
		DBPath        string `toml:"db_path"`
		Env           string `toml:"env"`
		LogLevel      string `toml:"log_level"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"server"`
	// Defaults uses the same keys as the settings document. Values may be
	// TOML integers or floats.
	Defaults map[string]any `toml:"defaults"`
}

// Load reads .env, the TOML file named by COSTEO_CONFIG (costeo.toml when
// unset) and the process environment.
func Load() (Config, error) {
	// Local development convenience; production injects real env vars.
	if _, err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		DBPath:   defaultDBPath,
		Port:     defaultPort,
		Env:      defaultEnv,
		LogLevel: defaultLogLevel,
		Defaults: settings.Defaults(),
	}

	path := os.Getenv("COSTEO_CONFIG")
	required := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	if err := cfg.applyFile(path, required); err != nil {
		return Config{}, err
	}

	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	overrideFromEnv(&cfg.DBPath, "DB_PATH")
	overrideFromEnv(&cfg.Port, "PORT")
	overrideFromEnv(&cfg.Env, "APP_ENV")
	overrideFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	overrideFromEnv(&cfg.MigrationsDir, "MIGRATIONS_DIR")

	return cfg, nil
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overrideFrom(&c.Port, fc.Server.Port)
	overrideFrom(&c.DBPath, fc.Server.DBPath)
	overrideFrom(&c.Env, fc.Server.Env)
	overrideFrom(&c.LogLevel, fc.Server.LogLevel)
	overrideFrom(&c.MigrationsDir, fc.Server.MigrationsDir)

	if len(fc.Defaults) > 0 {
		doc, err := numericTable(fc.Defaults)
		if err != nil {
			return fmt.Errorf("config file %s: defaults: %w", path, err)
		}
		defaults, err := settings.ApplyFlat(c.Defaults, doc)
		if err != nil {
			return fmt.Errorf("config file %s: defaults: %w", path, err)
		}
		c.Defaults = defaults
	}
	return nil
}

// IsDev reports whether the app runs in development mode, where migrations
// are applied at startup.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev") || strings.EqualFold(c.Env, "development")
}

// Warnings lists missing optional values worth logging at startup.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

func numericTable(in map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		switch n := v.(type) {
		case int64:
			out[k] = float64(n)
		case float64:
			out[k] = n
		default:
			return nil, fmt.Errorf("%s: expected a number, got %T", k, v)
		}
	}
	return out, nil
}

func overrideFromEnv(dst *string, key string) {
	overrideFrom(dst, os.Getenv(key))
}

func overrideFrom(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
