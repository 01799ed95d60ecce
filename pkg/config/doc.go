// Package config defines the marketd server configuration.
//
// Configuration is layered: built-in defaults first, then an optional YAML
// or JSON file, then MARKETD_* environment variables. Flags parsed by the
// CLI sit on top of all three. The file is discovered as marketd.yaml or
// marketd.yml in the working directory, or named explicitly via --config
// or the MARKETD_CONFIG environment variable.
//
// File-based Configuration:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	log:
//	  level: info
//	  format: text
//	session:
//	  ttl: 30m
//	  reapInterval: 1m
//	flows:
//	  paths:
//	    - flows/**/*.yaml
//
// Values of the form ${VAR} or ${VAR:-default} are expanded from the
// environment before the file is parsed, so secrets and per-host settings
// can stay out of the file itself.
package config
