// Package config loads guidebase configuration from YAML with environment
// overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the guidebase configuration.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Serve ServeConfig `yaml:"serve"`
	// StatePath is where the credential store lives. Supports environment
	// variable expansion. Default: ~/.guidebase/guidebase.db
	StatePath string `yaml:"state_path,omitempty"`
}

// APIConfig describes the remote guide service and the client's behavior
// toward it.
type APIConfig struct {
	// BaseURL of the remote service. The GUIDEBASE_API_URL environment
	// variable overrides it.
	BaseURL string `yaml:"base_url"`
	// Timeout per request (e.g. "10s"). Default: 10s
	Timeout string `yaml:"timeout,omitempty"`
	// Retry configures backoff for read requests.
	Retry *RetryConfig `yaml:"retry,omitempty"`
	// RateLimit bounds outgoing requests.
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
	// Debug enables request logging.
	Debug bool `yaml:"debug,omitempty"`
}

// RetryConfig configures retry behavior for read requests.
type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries,omitempty"` // default: 3
	BaseDelay  string `yaml:"base_delay,omitempty"`  // default: 100ms
	MaxDelay   string `yaml:"max_delay,omitempty"`   // default: 5s
}

// RateLimitConfig bounds outgoing requests to the service.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // default: 10
	Burst             int     `yaml:"burst,omitempty"`               // default: 20
}

// ServeConfig holds preview server configuration.
type ServeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RefreshInterval between background catalog refreshes (e.g. "30s").
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
	// DraftsDir, when set, is watched for YAML draft files to preview live.
	DraftsDir string `yaml:"drafts_dir,omitempty"`
	// CacheTTL for detail pages and the category list (e.g. "30s").
	CacheTTL string `yaml:"cache_ttl,omitempty"`
	Debug    bool   `yaml:"debug,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
		},
		Serve: ServeConfig{
			Host: "localhost",
			Port: 4280,
		},
	}
}

// GetBaseURL returns the service base URL, honoring the GUIDEBASE_API_URL
// override and environment expansion in the configured value.
func (c *APIConfig) GetBaseURL() string {
	if env := os.Getenv("GUIDEBASE_API_URL"); env != "" {
		return env
	}
	if c.BaseURL != "" {
		return os.ExpandEnv(c.BaseURL)
	}
	return "http://localhost:8080"
}

// GetTimeout returns the per-request timeout (default 10s).
func (c *APIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetRetryMaxRetries returns the retry attempt cap (default 3).
func (c *APIConfig) GetRetryMaxRetries() int {
	if c.Retry == nil || c.Retry.MaxRetries <= 0 {
		return 3
	}
	return c.Retry.MaxRetries
}

// GetRetryBaseDelay returns the initial retry delay (default 100ms).
func (c *APIConfig) GetRetryBaseDelay() time.Duration {
	if c.Retry == nil {
		return 100 * time.Millisecond
	}
	return parseDuration(c.Retry.BaseDelay, 100*time.Millisecond)
}

// GetRetryMaxDelay returns the retry delay cap (default 5s).
func (c *APIConfig) GetRetryMaxDelay() time.Duration {
	if c.Retry == nil {
		return 5 * time.Second
	}
	return parseDuration(c.Retry.MaxDelay, 5*time.Second)
}

// GetRateLimitRPS returns the request rate limit (default 10).
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the rate limit burst (default 20).
func (c *APIConfig) GetRateLimitBurst() int {
	if c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 20
	}
	return c.RateLimit.Burst
}

// GetRefreshInterval returns the background refresh interval (default 30s).
func (c *ServeConfig) GetRefreshInterval() time.Duration {
	return parseDuration(c.RefreshInterval, 30*time.Second)
}

// GetCacheTTL returns the preview cache TTL (default 30s).
func (c *ServeConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 30*time.Second)
}

// Addr returns the listen address for the preview server.
func (c *ServeConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 4280
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// GetStatePath returns the credential store path, with environment expansion.
func (c *Config) GetStatePath() (string, error) {
	if c.StatePath != "" {
		return os.ExpandEnv(c.StatePath), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".guidebase", "guidebase.db"), nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir looks for guidebase.yaml (then guidebase.yml) in the given
// directory. If neither exists, returns the defaults.
func LoadFromDir(dir string) (*Config, error) {
	yamlPath := filepath.Join(dir, "guidebase.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return Load(yamlPath)
	}
	return Load(filepath.Join(dir, "guidebase.yml"))
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
