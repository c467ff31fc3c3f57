// Package session provides the standard HTTP transport for the results
// client: one authenticated round trip per call, no retries, no token
// acquisition flows.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production nanoHUB API root.
const DefaultBaseURL = "https://nanohub.org/api"

// Config describes a session. It can be populated directly or loaded from a
// YAML file with LoadConfig.
type Config struct {
	// BaseURL is the API root every request path is resolved against.
	// Defaults to DefaultBaseURL.
	BaseURL string `yaml:"base_url,omitempty"`

	// Token is a static API bearer token sent with every request. Optional;
	// public tool metadata is readable without one.
	Token string `yaml:"token,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// RequestTimeout bounds one request-response cycle.
	// Format: Go duration string (e.g., "30s", "2m")
	// Default: 30s
	RequestTimeout string `yaml:"request_timeout,omitempty"`
}

// GetRequestTimeout parses the request timeout string and returns a
// duration. Returns the default value if not set or invalid.
func (c *Config) GetRequestTimeout() time.Duration {
	if c == nil || c.RequestTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetBaseURL returns the configured base URL or the default.
func (c *Config) GetBaseURL() string {
	if c == nil || c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// GetUserAgent returns the configured user agent or the default.
func (c *Config) GetUserAgent() string {
	if c == nil || c.UserAgent == "" {
		return "nanohub-go-results"
	}
	return c.UserAgent
}

// LoadConfig reads and parses a session config file from the given path. If
// the path is a directory, it looks for session.yaml or session.yml in that
// directory.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "session.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "session.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no session.yaml or session.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}
