package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, "https://creator.bid/api", cfg.API.BaseURL)
	assert.Equal(t, "https://creator.bid", cfg.API.SiteURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 32, cfg.API.PageSize)
	assert.Equal(t, 8, cfg.Gallery.EnrichConcurrency)
	assert.Equal(t, 30*time.Minute, cfg.Web.SessionIdle)
	assert.Equal(t, "692ae9943e131028c344b312", cfg.Profile.AgentID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9999
  bind: lan
  allowedOrigins:
    - https://agents.example.com
api:
  baseUrl: http://localhost:4000/api
  timeout: 3s
gallery:
  enrichConcurrency: 4
web:
  sessionIdle: 5m
  maxSessions: 10
profile:
  agentId: abc123
logging:
  level: debug
  consoleStyle: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, []string{"https://agents.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:4000/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 32, cfg.API.PageSize, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Gallery.EnrichConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.Web.SessionIdle)
	assert.Equal(t, 10, cfg.Web.MaxSessions)
	assert.Equal(t, "abc123", cfg.Profile.AgentID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTGALLERY_PORT", "9100")
	t.Setenv("AGENTGALLERY_BIND", "lan")
	t.Setenv("AGENTGALLERY_API_BASE_URL", "http://127.0.0.1:9/api")
	t.Setenv("AGENTGALLERY_LOG_LEVEL", "DEBUG")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, "http://127.0.0.1:9/api", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrideInvalidPortIgnored(t *testing.T) {
	t.Setenv("AGENTGALLERY_PORT", "not-a-number")
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CB_API", "http://fake.test/api")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  baseUrl: ${CB_API}\n  siteUrl: ${UNSET_VAR_FOR_TEST}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://fake.test/api", cfg.API.BaseURL)
	assert.Equal(t, "${UNSET_VAR_FOR_TEST}", cfg.API.SiteURL)
}

func TestLoadDotEnv(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, ".env"), []byte("AGENTGALLERY_DOTENV_TEST=from-file\n"), 0o600))
	t.Setenv("AGENTGALLERY_DOTENV_TEST", "")
	os.Unsetenv("AGENTGALLERY_DOTENV_TEST")

	require.NoError(t, LoadDotEnv(base))
	assert.Equal(t, "from-file", os.Getenv("AGENTGALLERY_DOTENV_TEST"))

	require.NoError(t, LoadDotEnv(filepath.Join(base, "missing")))
}

func TestRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"server", "port"}, 9000)
	require.NoError(t, SaveRaw(path, raw))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Message: "bad"}
	assert.Equal(t, "config: bad", err.Error())
}
