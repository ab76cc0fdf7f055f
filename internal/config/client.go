package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the vehiclectl configuration file.
type ClientConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:  "http://localhost:8080",
		Timeout:  30 * time.Second,
		LogLevel: "info",
	}
}

// DefaultClientPath is ~/.vehiclectl.yaml.
func DefaultClientPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vehiclectl.yaml"
	}
	return filepath.Join(home, ".vehiclectl.yaml")
}

// LoadClient reads path over the defaults. A missing file is not an error.
// VEHICLECTL_TOKEN overrides the token from the file.
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if tok := os.Getenv("VEHICLECTL_TOKEN"); tok != "" {
		cfg.Token = tok
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return cfg, errors.New("base_url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	return cfg, nil
}

// SaveClient writes cfg with owner-only permissions, since it holds the token.
func SaveClient(path string, cfg ClientConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
