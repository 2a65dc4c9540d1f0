package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Server
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind is custom",
		})
	}

	// API
	for path, raw := range map[string]string{"api.baseUrl": cfg.API.BaseURL, "api.siteUrl": cfg.API.SiteURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", raw),
			})
		}
	}
	if cfg.API.Timeout < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "api.timeout",
			Message: "must not be negative",
		})
	}
	if cfg.API.PageSize < 0 || cfg.API.PageSize > 100 {
		issues = append(issues, ValidationIssue{
			Path:    "api.pageSize",
			Message: fmt.Sprintf("must be 1-100, got %d", cfg.API.PageSize),
		})
	}

	// Gallery / web
	if cfg.Gallery.EnrichConcurrency < 0 || cfg.Gallery.EnrichConcurrency > 64 {
		issues = append(issues, ValidationIssue{
			Path:    "gallery.enrichConcurrency",
			Message: fmt.Sprintf("must be 1-64, got %d", cfg.Gallery.EnrichConcurrency),
		})
	}
	if cfg.Web.SessionIdle < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "web.sessionIdle",
			Message: "must not be negative",
		})
	}
	if cfg.Web.MaxSessions < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "web.maxSessions",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Web.MaxSessions),
		})
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	slices.SortFunc(issues, func(a, b ValidationIssue) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return issues
}
