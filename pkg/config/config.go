package config

import (
	"fmt"
	"time"
)

// Defaults applied by Default and assumed by Load when a setting is absent
// from every layer.
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultSessionTTL   = "30m"
	DefaultReapInterval = "1m"
)

// Config is the root configuration for a marketd server.
type Config struct {
	// Server holds the HTTP listener settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Log holds logging settings.
	Log LogConfig `json:"log" yaml:"log"`

	// Session holds session lifecycle settings.
	Session SessionConfig `json:"session" yaml:"session"`

	// Flows holds validation flow loading settings.
	Flows FlowsConfig `json:"flows" yaml:"flows"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Host is the interface to bind (default 0.0.0.0).
	Host string `json:"host" yaml:"host"`

	// Port is the listen port (default 8080).
	Port int `json:"port" yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn or error
	// (default info).
	Level string `json:"level" yaml:"level"`

	// Format is the output format: text or json (default text).
	Format string `json:"format" yaml:"format"`

	// AddSource includes source file and line in log entries.
	AddSource bool `json:"addSource,omitempty" yaml:"addSource,omitempty"`

	// Loki optionally ships logs to a Loki push endpoint in addition to
	// the standard output stream.
	Loki *LokiConfig `json:"loki,omitempty" yaml:"loki,omitempty"`
}

// LokiConfig configures optional log shipping to Loki.
type LokiConfig struct {
	// URL is the push endpoint, e.g. http://localhost:3100/loki/api/v1/push.
	URL string `json:"url" yaml:"url"`

	// Labels are extra stream labels merged over the default job label.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// TTL is the idle lifetime of a session before the reaper may collect
	// it, as a Go duration string. "0" disables expiry. Default 30m.
	TTL string `json:"ttl" yaml:"ttl"`

	// ReapInterval is how often expired sessions are collected. Default 1m.
	ReapInterval string `json:"reapInterval" yaml:"reapInterval"`
}

// ParseTTL returns the session TTL as a duration. Unset and "0" both mean
// no expiry.
func (s SessionConfig) ParseTTL() (time.Duration, error) {
	return parseDuration(s.TTL)
}

// ParseReapInterval returns the reaper interval as a duration.
func (s SessionConfig) ParseReapInterval() (time.Duration, error) {
	return parseDuration(s.ReapInterval)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// FlowsConfig holds validation flow loading settings.
type FlowsConfig struct {
	// Paths are glob patterns for flow definition files, loaded on top of
	// the builtin flows. Patterns may use ** for recursive matching.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Session: SessionConfig{
			TTL:          DefaultSessionTTL,
			ReapInterval: DefaultReapInterval,
		},
	}
}
