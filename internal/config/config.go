package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort              = 8787
	DefaultAPIBaseURL        = "https://creator.bid/api"
	DefaultSiteURL           = "https://creator.bid"
	DefaultAPITimeout        = 15 * time.Second
	DefaultPageSize          = 32
	DefaultEnrichConcurrency = 8
	DefaultSessionIdle       = 30 * time.Minute
	DefaultMaxSessions       = 1000
	DefaultProfileAgentID    = "692ae9943e131028c344b312"
)

// Defaults returns a Config with every default applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}
