// Package config loads settings for both the server and the CLI client.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration. Values come from an optional YAML file
// and environment variables; the environment always wins. Secrets are only
// read from the environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	OIDC     OIDCConfig     `yaml:"oidc"`
	Sky      SkyConfig      `yaml:"sky"`
	Weather  WeatherConfig  `yaml:"weather"`
	Redis    RedisConfig    `yaml:"redis"`
	Client   ClientConfig   `yaml:"client"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR" env-default:":8080"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig selects storage. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL string `yaml:"-" env:"DATABASE_URL"`
}

// AuthConfig configures access tokens.
type AuthConfig struct {
	Secret   string        `yaml:"-" env:"AUTH_SECRET"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"60m"`
	// PurgeSchedule is a cron spec for deleting expired tokens.
	PurgeSchedule string `yaml:"purge_schedule" env:"TOKEN_PURGE_SCHEDULE" env-default:"@hourly"`
}

// OIDCConfig enables single sign-on when Issuer is set.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer" env:"OIDC_ISSUER"`
	ClientID     string `yaml:"client_id" env:"OIDC_CLIENT_ID"`
	ClientSecret string `yaml:"-" env:"OIDC_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"OIDC_REDIRECT_URL"`
}

// Enabled reports whether SSO is configured.
func (c OIDCConfig) Enabled() bool { return c.Issuer != "" }

// SkyConfig points at the service that computes target visibility.
type SkyConfig struct {
	URL     string        `yaml:"url" env:"SKY_API_URL" env-default:"http://localhost:8090"`
	Timeout time.Duration `yaml:"timeout" env:"SKY_API_TIMEOUT" env-default:"15s"`
}

// WeatherConfig points at the forecast and geocoding services.
type WeatherConfig struct {
	ForecastURL string        `yaml:"forecast_url" env:"WEATHER_FORECAST_URL" env-default:"https://api.open-meteo.com/v1/forecast"`
	GeocodeURL  string        `yaml:"geocode_url" env:"WEATHER_GEOCODE_URL" env-default:"https://geocoding-api.open-meteo.com/v1/search"`
	Timeout     time.Duration `yaml:"timeout" env:"WEATHER_TIMEOUT" env-default:"10s"`
}

// RedisConfig enables the forecast cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"30m"`
}

// ClientConfig configures the CLI's connection to the API.
type ClientConfig struct {
	BaseURL string `yaml:"base_url" env:"ASTRO_API_URL" env-default:"http://localhost:8080"`
	Token   string `yaml:"-" env:"ASTRO_TOKEN"`
	// TokenFile, when set, is where login stores the token and where it is
	// read from when ASTRO_TOKEN is empty.
	TokenFile string `yaml:"token_file" env:"ASTRO_TOKEN_FILE"`
	// Timeout is the per-request transport timeout. Zero disables it.
	Timeout time.Duration `yaml:"timeout" env:"ASTRO_TIMEOUT" env-default:"0s"`
	// Timezone overrides the ambient zone used for locations without one.
	Timezone string `yaml:"timezone" env:"ASTRO_TZ"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads path when it is non-empty, then applies the environment. With
// an empty path only the environment and defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg, nil
}

// ValidateServer checks what the API server needs to start.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("oidc issuer requires client_id and redirect_url"))
	}
	if c.Sky.URL == "" {
		errs = append(errs, errors.New("sky url is required"))
	}
	return errors.Join(errs...)
}
