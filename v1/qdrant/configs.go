package qdrant

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds connection and behavior settings for the Qdrant REST client.
//
// It can be loaded from YAML, overridden from environment variables, or
// built programmatically via helper methods.
//
// Example (programmatic):
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Endpoint = "http://localhost:6333"
//	cfg.ApiKey = os.Getenv("QDRANT_API_KEY")
//	cfg.Timeout = 10 * time.Second
//
// Example (builder style):
//
//	cfg := qdrant.FromEndpoint("http://localhost:6333").
//	    WithApiKey(os.Getenv("QDRANT_API_KEY")).
//	    WithTimeout(10 * time.Second)
type Config struct {
	// Base URL of the Qdrant REST API, e.g. "http://localhost:6333".
	Endpoint string `yaml:"endpoint" envconfig:"QDRANT_ENDPOINT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" envconfig:"QDRANT_API_KEY"`

	// Collection used when an operation is called with an empty name.
	DefaultCollection string `yaml:"default_collection" envconfig:"QDRANT_DEFAULT_COLLECTION"`

	// Maximum request duration before timing out.
	Timeout time.Duration `yaml:"timeout" envconfig:"QDRANT_TIMEOUT"`

	// Upper bound of in-flight requests issued by SearchConcurrent.
	MaxConcurrentSearches int `yaml:"max_concurrent_searches" envconfig:"QDRANT_MAX_CONCURRENT_SEARCHES"`

	// Enable gzip compression for request bodies.
	Compression bool `yaml:"compression" envconfig:"QDRANT_COMPRESSION"`

	// Whether to check the server version on startup.
	CheckCompatibility bool `yaml:"check_compatibility" envconfig:"QDRANT_CHECK_COMPATIBILITY"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:              "http://localhost:6333",
		Timeout:               5 * time.Second,
		MaxConcurrentSearches: defaultMaxConcurrentSearches,
		Compression:           false,
		CheckCompatibility:    true,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(url string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = url
	return cfg
}

// LoadConfig reads a YAML file on top of DefaultConfig and then applies
// QDRANT_* environment variables. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("[Qdrant] failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("[Qdrant] failed to parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the config can be used to build a client.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("[Qdrant] endpoint cannot be empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("[Qdrant] endpoint %q must be an http(s) URL", c.Endpoint)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("[Qdrant] timeout cannot be negative")
	}
	if c.MaxConcurrentSearches < 0 {
		return fmt.Errorf("[Qdrant] max concurrent searches cannot be negative")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithDefaultCollection(name string) *Config {
	c.DefaultCollection = name
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithMaxConcurrentSearches(n int) *Config {
	c.MaxConcurrentSearches = n
	return c
}

func (c *Config) WithCompression(enabled bool) *Config {
	c.Compression = enabled
	return c
}

func (c *Config) WithCompatibilityCheck(enabled bool) *Config {
	c.CheckCompatibility = enabled
	return c
}
