package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSecret = "dev_secret_change_me"

var ErrMissingSecret = errors.New("SESSION_SECRET must be set in production")

// Config holds application configuration loaded from .env, an optional
// config file and environment variables.
type Config struct {
	Env            string        `mapstructure:"env"`              // local, production, ...
	Port           string        `mapstructure:"port"`             // HTTP listen port
	LogLevel       string        `mapstructure:"log_level"`        // zerolog level name
	DBPath         string        `mapstructure:"db_path"`          // sqlite run journal; "off" disables it
	SessionSecret  string        `mapstructure:"session_secret"`   // HS256 key for the session cookie
	CookieName     string        `mapstructure:"cookie_name"`      // session cookie name
	ClientOrigin   string        `mapstructure:"client_origin"`    // extra CORS origin for a dev client
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"` // idle sessions are dropped after this
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// JournalEnabled reports whether finished runs are written to SQLite.
func (c *Config) JournalEnabled() bool { return c.DBPath != "" && c.DBPath != "off" }

// Production reports whether the app runs in production mode.
func (c *Config) Production() bool { return c.Env == "production" }

// Load reads configuration. A missing .env or config file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("port", "5175")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "./data/memorygrid.db")
	v.SetDefault("session_secret", devSecret)
	v.SetDefault("cookie_name", "memorygrid_session")
	v.SetDefault("client_origin", "http://localhost:5173")
	v.SetDefault("session_idle_ttl", "2h")
	v.SetDefault("sweep_interval", "5m")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.Production() && cfg.SessionSecret == devSecret {
		return nil, ErrMissingSecret
	}
	return &cfg, nil
}
