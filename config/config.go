// Package config provides YAML-based configuration for the mirror daemon:
// the upstream feed location and the license policy blocklists.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/github/go-spdx/v2/spdxexp"
	"gopkg.in/yaml.v3"

	"github.com/pkgmirror/pkgmirror/policy"
)

// Sentinel errors for configuration validation
var (
	ErrUpstreamURLRequired = errors.New("upstream url is required")
	ErrUpstreamURLInvalid  = errors.New("upstream url must be an absolute http(s) URL")
	ErrListenRequired      = errors.New("listen address is required")
)

// Config is the top-level configuration structure.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Listen   string         `yaml:"listen"`
	LogLevel string         `yaml:"log_level"`
	Policy   PolicyConfig   `yaml:"policy"`
}

// UpstreamConfig locates the remote feed being mirrored.
type UpstreamConfig struct {
	URL        string `yaml:"url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// GetTimeout parses and returns the upstream request timeout.
func (u *UpstreamConfig) GetTimeout() time.Duration {
	if u.Timeout == "" {
		return 30 * time.Second // Default timeout
	}
	d, err := time.ParseDuration(u.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetMaxRetries returns the upstream retry budget. An omitted or
// non-positive value falls back to the client default.
func (u *UpstreamConfig) GetMaxRetries() int {
	if u.MaxRetries <= 0 {
		return 5 // Default retries, matches client.DefaultClient
	}
	return u.MaxRetries
}

// PolicyConfig holds the license blocklists.
type PolicyConfig struct {
	BlockedLicenseExpressions []string `yaml:"blocked_license_expressions"`
	BlockedLicenseURLPatterns []string `yaml:"blocked_license_url_patterns"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Upstream.URL == "" {
		return ErrUpstreamURLRequired
	}
	parsed, err := url.Parse(c.Upstream.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrUpstreamURLInvalid, c.Upstream.URL)
	}
	if c.Listen == "" {
		return ErrListenRequired
	}
	return nil
}

// Warnings reports advisory problems that do not fail validation. Blocked
// license expressions that are not valid SPDX identifiers still match by
// substring, but are usually typos worth surfacing.
func (c *Config) Warnings() []string {
	var warnings []string
	for _, expr := range c.Policy.BlockedLicenseExpressions {
		if expr == "" {
			warnings = append(warnings, "blocked license expression list contains an empty entry")
			continue
		}
		if valid, _ := spdxexp.ValidateLicenses([]string{expr}); !valid {
			warnings = append(warnings,
				fmt.Sprintf("blocked license expression %q is not a recognized SPDX identifier; it will still match by substring", expr))
		}
	}
	return warnings
}

// PolicyRules converts the file shape into the policy engine's config.
func (c *Config) PolicyRules() policy.Config {
	return policy.Config{
		BlockedLicenseExpressions: c.Policy.BlockedLicenseExpressions,
		BlockedLicenseURLPatterns: c.Policy.BlockedLicenseURLPatterns,
	}
}

// Store holds the active configuration and lets it be swapped between
// requests. It implements policy.ConfigSource.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a store with cfg as the active configuration.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Current returns the active configuration.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Replace swaps in a new configuration. In-flight evaluations keep the
// snapshot they started with.
func (s *Store) Replace(cfg *Config) {
	s.current.Store(cfg)
}

// PolicyConfig returns the active policy rules.
func (s *Store) PolicyConfig() policy.Config {
	return s.Current().PolicyRules()
}
