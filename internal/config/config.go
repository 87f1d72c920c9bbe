package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	SessionDriverRedis  = "redis"
	SessionDriverSQLite = "sqlite"
	SessionDriverMemory = "memory"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Redis    RedisConfig    `mapstructure:"redis"`
	ArudAPI  ArudAPIConfig  `mapstructure:"arud_api"`
	App      AppConfig      `mapstructure:"app"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type RedisConfig struct {
	URI string `mapstructure:"uri"`
}

type ArudAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type AppConfig struct {
	LocalesDir      string `mapstructure:"locales_dir"`
	DefaultLanguage string `mapstructure:"default_language"`
}

type SessionConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	Key        string `mapstructure:"key"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type AnalysisConfig struct {
	NormalizeUnicode bool `mapstructure:"normalize_unicode"`
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty filename skips the file and uses defaults and environment only.
func Load(filename string) (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv can override it during Unmarshal
	v.SetDefault("telegram.token", "")
	v.SetDefault("redis.uri", "")
	v.SetDefault("arud_api.base_url", "http://localhost:5000/api")
	v.SetDefault("app.locales_dir", "")
	v.SetDefault("app.default_language", "en")
	v.SetDefault("session.driver", SessionDriverSQLite)
	v.SetDefault("session.sqlite_path", "")
	v.SetDefault("session.key", "lastAnalysis")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("analysis.normalize_unicode", true)

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Environment variable configuration
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ArudAPI.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.ArudAPI.BaseURL), "/")
	cfg.Session.Driver = strings.ToLower(strings.TrimSpace(cfg.Session.Driver))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ArudAPI.BaseURL == "" {
		return fmt.Errorf("arud API base URL is required")
	}
	switch c.Session.Driver {
	case SessionDriverRedis:
		if c.Redis.URI == "" {
			return fmt.Errorf("redis URI is required for the redis session driver")
		}
	case SessionDriverSQLite, SessionDriverMemory:
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if c.Session.Key == "" {
		return fmt.Errorf("session key is required")
	}
	return nil
}

// ValidateBot checks the settings only the Telegram bot needs
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	return nil
}

// SQLitePath returns the configured database path, defaulting to the user cache directory
func (c *Config) SQLitePath() (string, error) {
	if c.Session.SQLitePath != "" {
		return c.Session.SQLitePath, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "arud", "session.db"), nil
}

// DefaultPath returns CONFIG_PATH, or config.yaml when that file exists, or "".
func DefaultPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return "config.yaml"
}
