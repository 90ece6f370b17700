package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all service configuration, loaded from FOLLOWUP_* environment
// variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
}

// ServerConfig contains HTTP server and dashboard settings.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	StaticDir string `mapstructure:"static_dir"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Timezone controls the calendar-day window of the today dashboard.
	// Any IANA zone name, or "Local".
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// DatabaseConfig selects and configures the task store backend. For sqlite
// the DSN is a file path; for postgres it is a connection URL carrying the
// privileged credential.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn"`
}

// Location resolves the configured dashboard timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Server.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from the environment, applies defaults, and
// validates the result. A missing or invalid store setting is a startup
// error; the process must not serve without one.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "web/static")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.timezone", "Local")
	v.SetDefault("database.driver", "sqlite")

	v.SetEnvPrefix("FOLLOWUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env values through Unmarshal for
	// keys that only exist as defaults, so bind each key explicitly.
	for _, key := range []string{
		"server.addr", "server.static_dir", "server.log_level", "server.timezone",
		"database.driver", "database.dsn",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Driver == "postgres" {
			return nil, fmt.Errorf("FOLLOWUP_DATABASE_DSN is required for the postgres driver")
		}
		cfg.Database.DSN = "data/followup.db"
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
