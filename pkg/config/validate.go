package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Path    string // config path, e.g. "server.port"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects all validation errors for a Config.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result.AddError("server.port", fmt.Sprintf("invalid port %d, must be 1-65535", c.Server.Port))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		result.AddError("log.level", fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level))
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		result.AddError("log.format", fmt.Sprintf("invalid format %q, must be \"text\" or \"json\"", c.Log.Format))
	}

	if c.Log.Loki != nil {
		if c.Log.Loki.URL == "" {
			result.AddError("log.loki.url", "required")
		} else if u, err := url.Parse(c.Log.Loki.URL); err != nil || u.Scheme == "" || u.Host == "" {
			result.AddError("log.loki.url", fmt.Sprintf("invalid URL %q", c.Log.Loki.URL))
		}
	}

	if ttl, err := c.Session.ParseTTL(); err != nil {
		result.AddError("session.ttl", fmt.Sprintf("invalid duration %q", c.Session.TTL))
	} else if ttl < 0 {
		result.AddError("session.ttl", "must not be negative")
	}

	if interval, err := c.Session.ParseReapInterval(); err != nil {
		result.AddError("session.reapInterval", fmt.Sprintf("invalid duration %q", c.Session.ReapInterval))
	} else if interval < 0 {
		result.AddError("session.reapInterval", "must not be negative")
	}

	for i, pattern := range c.Flows.Paths {
		if strings.TrimSpace(pattern) == "" {
			result.AddError(fmt.Sprintf("flows.paths[%d]", i), "cannot be empty")
		}
	}

	return result
}
