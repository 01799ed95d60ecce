package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvConfig       = "MARKETD_CONFIG"
	EnvHost         = "MARKETD_HOST"
	EnvPort         = "MARKETD_PORT"
	EnvLogLevel     = "MARKETD_LOG_LEVEL"
	EnvLogFormat    = "MARKETD_LOG_FORMAT"
	EnvLokiURL      = "MARKETD_LOKI_URL"
	EnvSessionTTL   = "MARKETD_SESSION_TTL"
	EnvReapInterval = "MARKETD_REAP_INTERVAL"
	EnvFlowPaths    = "MARKETD_FLOW_PATHS"
)

// ApplyEnv overlays MARKETD_* environment variables onto cfg.
// Only variables present in the environment are applied.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv(EnvLokiURL); v != "" {
		if cfg.Log.Loki == nil {
			cfg.Log.Loki = &LokiConfig{}
		}
		cfg.Log.Loki.URL = v
	}

	if v := os.Getenv(EnvSessionTTL); v != "" {
		cfg.Session.TTL = v
	}

	if v := os.Getenv(EnvReapInterval); v != "" {
		cfg.Session.ReapInterval = v
	}

	// MARKETD_FLOW_PATHS is a comma-separated list of glob patterns.
	if v := os.Getenv(EnvFlowPaths); v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		cfg.Flows.Paths = paths
	}
}
