package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidJSON       = errors.New("invalid JSON syntax")
	ErrInvalidYAML       = errors.New("invalid YAML syntax")
	ErrEmptyFile         = errors.New("configuration file is empty")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// DiscoveryOrder defines the file names probed in the working directory
// when no config path is given.
var DiscoveryOrder = []string{
	"marketd.yaml",
	"marketd.yml",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load assembles the effective configuration: defaults, then the config
// file, then MARKETD_* environment variables. When path is empty the file
// is discovered via MARKETD_CONFIG or the discovery order; a missing file
// is only an error when it was named explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Discover()
	}
	if path != "" {
		if err := loadInto(path, cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg)

	if result := cfg.Validate(); !result.IsValid() {
		return nil, fmt.Errorf("invalid configuration: %w", result)
	}
	return cfg, nil
}

// LoadFromFile reads a Config from a YAML or JSON file, merged over the
// defaults but without environment overrides. The format is detected from
// the file extension.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadInto(path, cfg); err != nil {
		return nil, err
	}
	if result := cfg.Validate(); !result.IsValid() {
		return nil, fmt.Errorf("invalid configuration: %w", result)
	}
	return cfg, nil
}

// Discover returns the config file path from MARKETD_CONFIG or the first
// discovery-order name present in the working directory. Returns an empty
// string when there is nothing to load.
func Discover() string {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		return envPath
	}
	for _, name := range DiscoveryOrder {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// loadInto reads path and unmarshals it over cfg, so values present in the
// file override the defaults already set.
func loadInto(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	expanded := []byte(ExpandEnvVars(string(data)))

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	case ".json":
		if !json.Valid(expanded) {
			return fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
		}
		if err := json.Unmarshal(expanded, cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultVal := ""
		if len(submatch) >= 3 {
			defaultVal = submatch[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// SaveToFile writes a Config to a file using atomic rename. The format is
// determined by file extension (.yaml, .yml or .json). Creates parent
// directories if they don't exist.
func SaveToFile(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = ToYAML(cfg)
	case ".json":
		data, err = ToJSON(cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write to temporary file first (atomic write pattern)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// ToJSON marshals a Config to formatted JSON bytes.
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	// Add trailing newline for better file formatting
	data = append(data, '\n')

	return data, nil
}

// ToYAML marshals a Config to YAML bytes.
func ToYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	return data, nil
}
