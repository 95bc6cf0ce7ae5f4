package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"linkstash/pkg/logging"
)

const (
	userConfigDir  = ".config/linkstash"
	configFileName = "config.yaml"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigDir returns ~/.config/linkstash.
func DefaultConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// ConfigFilePath returns the config file location inside configDir.
func ConfigFilePath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}

// LoadConfig returns the effective configuration for configDir: defaults,
// overlaid by config.yaml when present, overlaid by LINKSTASH_* variables.
func LoadConfig(configDir string) (Config, error) {
	cfg, err := loadFile(configDir)
	if err != nil {
		return Config{}, err
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	normalize(&cfg, configDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, &ConfigurationError{
			FilePath:    ConfigFilePath(configDir),
			ErrorType:   "validation",
			Message:     err.Error(),
			Suggestions: []string{"Run 'linkstash config show' to inspect the effective settings"},
			Err:         err,
		}
	}
	return cfg, nil
}

// ParseEnv loads configuration overrides from environment variables.
func ParseEnv(target *Config) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadFile returns defaults overlaid by config.yaml, without environment
// overrides. This is the document SaveConfig writes back.
func loadFile(configDir string) (Config, error) {
	configFilePath := ConfigFilePath(configDir)
	cfg := GetDefaultConfig(configDir)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: "io",
			Message:   err.Error(),
			Err:       err,
		}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigurationError{
			FilePath:    configFilePath,
			ErrorType:   "parse",
			Message:     err.Error(),
			Suggestions: []string{"Check the YAML syntax", "Remove the file to fall back to defaults"},
			Err:         err,
		}
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}

// SaveConfig writes cfg to config.yaml in configDir, owner-only.
func SaveConfig(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Keep the file portable when the token dir is the default.
	if cfg.TokenStore.Dir == configDir {
		cfg.TokenStore.Dir = ""
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(configDir), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func normalize(cfg *Config, configDir string) {
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.TokenStore.Backend = strings.ToLower(strings.TrimSpace(cfg.TokenStore.Backend))

	if cfg.TokenStore.Dir == "" {
		cfg.TokenStore.Dir = configDir
	}
	cfg.TokenStore.Dir = expandHome(cfg.TokenStore.Dir)
	cfg.TokenStore.SQLitePath = expandHome(cfg.TokenStore.SQLitePath)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
