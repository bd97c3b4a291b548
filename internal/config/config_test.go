package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "@hourly", cfg.Auth.PurgeSchedule)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.Weather.ForecastURL)
	assert.Equal(t, time.Duration(0), cfg.Client.Timeout, "client timeout is disabled by default")
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.False(t, cfg.OIDC.Enabled())
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
server:
  addr: ":9000"
auth:
  token_ttl: 30m
sky:
  url: "http://sky.internal:7000"
redis:
  addr: "cache:6379"
  ttl: 5m
client:
  base_url: "http://planner.example.com"
  timeout: 20s
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))
	t.Setenv("ADDR", ":9100")
	t.Setenv("AUTH_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over yaml")
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "http://sky.internal:7000", cfg.Sky.URL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "http://planner.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_SecretsIgnoredInYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  secret: leaked\n"), 0o644))
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.Secret)
	assert.ErrorContains(t, cfg.ValidateServer(), "AUTH_SECRET is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateServer_OIDCNeedsClient(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{Secret: "x", TokenTTL: time.Hour},
		Sky:  SkyConfig{URL: "http://sky"},
		OIDC: OIDCConfig{Issuer: "https://id.example.com"},
	}
	assert.ErrorContains(t, cfg.ValidateServer(), "oidc issuer requires client_id")

	cfg.OIDC.ClientID = "astro"
	cfg.OIDC.RedirectURL = "http://localhost:8080/auth/sso/callback"
	assert.NoError(t, cfg.ValidateServer())
}
