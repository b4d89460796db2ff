// Package config loads server settings from an optional YAML file and
// EMOSCOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Images     ImagesConfig     `mapstructure:"images"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Log        LogConfig        `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type ImagesConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type ClassifierConfig struct {
	// Endpoint of the inference service. Empty selects the built-in
	// deterministic classifier.
	Endpoint   string `mapstructure:"endpoint"`
	TimeoutMs  int    `mapstructure:"timeout_ms"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", ":5110")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.max_upload_mb", 10)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "emoscope.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("images.enabled", true)
	v.SetDefault("images.dir", "session_images")
	v.SetDefault("classifier.endpoint", "")
	v.SetDefault("classifier.timeout_ms", 10000)
	v.SetDefault("classifier.max_retries", 2)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("EMOSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
