package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the executor defaults loaded from a config file
type Config struct {
	ConnectTimeout  string           `yaml:"connectTimeout,omitempty"`
	Timeout         string           `yaml:"timeout,omitempty"`
	FollowRedirects *bool            `yaml:"followRedirects,omitempty"`
	MaxRedirects    int              `yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool            `yaml:"validateSSL,omitempty"`
	UserAgent       string           `yaml:"userAgent,omitempty"`
	Headers         []string         `yaml:"headers,omitempty"`      // Literal header lines for all requests
	Certificates    string           `yaml:"certificates,omitempty"` // CA bundle file or directory
	ClientRequestID *bool            `yaml:"clientRequestId,omitempty"`
	Proxy           *ProxyConfig     `yaml:"proxy,omitempty"`
	RateLimit       *RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// ProxyConfig holds an explicit HTTP proxy and its basic credentials
type ProxyConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// RateLimitConfig throttles request issuance
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetClientRequestID returns the client-request-id setting, defaulting to false
func (c *Config) GetClientRequestID() bool {
	return getBool(c.ClientRequestID, false)
}

// ConnectTimeoutDuration parses ConnectTimeout. Empty means zero.
func (c *Config) ConnectTimeoutDuration() (time.Duration, error) {
	return parseDuration("connectTimeout", c.ConnectTimeout)
}

// TimeoutDuration parses Timeout. Empty means zero.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, s)
	}
	return d, nil
}

// Validate checks values the schema cannot express
func (c *Config) Validate() error {
	if _, err := c.ConnectTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid maxRedirects %d: must not be negative", c.MaxRedirects)
	}
	if c.Proxy != nil && c.Proxy.URL == "" {
		return fmt.Errorf("proxy url is required")
	}
	if c.RateLimit != nil && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rateLimit rps must be positive")
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitclient.yaml",
	"hitclient.yaml",
	".hitclient.json",
	"hitclient.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindConfigFile returns the first config file present in dir, or ""
func FindConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	if configPath := FindConfigFile(dir); configPath != "" {
		return loadConfigFromFile(configPath)
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse decodes a YAML or JSON config document over the defaults. ${VAR}
// references are expanded from the environment before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var doc any
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(expanded, config); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.ConnectTimeout != "" {
		result.ConnectTimeout = other.ConnectTimeout
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.Certificates != "" {
		result.Certificates = other.Certificates
	}
	if other.Proxy != nil {
		proxy := *other.Proxy
		result.Proxy = &proxy
	}
	if other.RateLimit != nil {
		rl := *other.RateLimit
		result.RateLimit = &rl
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.ClientRequestID != nil {
		result.ClientRequestID = other.ClientRequestID
	}

	// Header lines replace, they are an ordered list
	if len(other.Headers) > 0 {
		result.Headers = append([]string(nil), other.Headers...)
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
