package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandURLFields lets the API endpoints be written as ${ENV_VAR}.
func expandURLFields(cfg *Config) {
	cfg.API.BaseURL = expandEnvVars(cfg.API.BaseURL)
	cfg.API.SiteURL = expandEnvVars(cfg.API.SiteURL)
	cfg.Server.CustomBindHost = expandEnvVars(cfg.Server.CustomBindHost)
}

// LoadDotEnv loads .env from the working directory and then from base.
// Variables already set in the environment win; missing files are ignored.
func LoadDotEnv(base string) error {
	for _, p := range []string{".env", filepath.Join(base, ".env")} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &ConfigError{Message: "failed to load " + p + ": " + err.Error()}
		}
	}
	return nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandURLFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file, creating the
// parent directory if needed.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.SiteURL == "" {
		cfg.API.SiteURL = DefaultSiteURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = DefaultPageSize
	}
	if cfg.Gallery.EnrichConcurrency == 0 {
		cfg.Gallery.EnrichConcurrency = DefaultEnrichConcurrency
	}
	if cfg.Web.SessionIdle == 0 {
		cfg.Web.SessionIdle = DefaultSessionIdle
	}
	if cfg.Web.MaxSessions == 0 {
		cfg.Web.MaxSessions = DefaultMaxSessions
	}
	if cfg.Profile.AgentID == "" {
		cfg.Profile.AgentID = DefaultProfileAgentID
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads AGENTGALLERY_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTGALLERY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AGENTGALLERY_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("AGENTGALLERY_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("AGENTGALLERY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
