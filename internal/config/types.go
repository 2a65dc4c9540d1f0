package config

import "time"

// Config is the root configuration for agentgallery.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	API     APIConfig     `yaml:"api,omitempty"`
	Gallery GalleryConfig `yaml:"gallery,omitempty"`
	Web     WebConfig     `yaml:"web,omitempty"`
	Profile ProfileConfig `yaml:"profile,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"` // websocket origins besides same-host
}

// APIConfig points at the CreatorBid API.
type APIConfig struct {
	BaseURL  string        `yaml:"baseUrl,omitempty"`
	SiteURL  string        `yaml:"siteUrl,omitempty"` // target of "View on CreatorBid"
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	PageSize int           `yaml:"pageSize,omitempty"`
}

// GalleryConfig tunes gallery loading.
type GalleryConfig struct {
	EnrichConcurrency int `yaml:"enrichConcurrency,omitempty"`
}

// WebConfig controls per-visitor gallery sessions.
type WebConfig struct {
	SessionIdle time.Duration `yaml:"sessionIdle,omitempty"`
	MaxSessions int           `yaml:"maxSessions,omitempty"`
}

// ProfileConfig configures `agentgallery profile`.
type ProfileConfig struct {
	AgentID string `yaml:"agentId,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
